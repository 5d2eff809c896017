package middleware

import (
	"mime"
	"net/http"

	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimits caps request bodies. JSON calls are small; multipart bodies
// carry import spreadsheets and get their own ceiling. A zero limit turns
// the check off for that kind of request.
type BodyLimits struct {
	JSON      int64
	Multipart int64
}

// limitFor picks the cap for a request by its content type
func (l BodyLimits) limitFor(r *http.Request) int64 {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return l.Multipart
	}
	return l.JSON
}

// BodyLimit rejects declared oversize bodies with 413 before the handler
// runs, and cuts off undeclared ones that grow past the cap while read
func BodyLimit(limits BodyLimits) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := limits.limitFor(c.Request)
		if limit <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				getRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
