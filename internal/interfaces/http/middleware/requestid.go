package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the header that carries the request ID
	RequestIDKey = "X-Request-ID"
	// MaxRequestIDLength caps client supplied request IDs
	MaxRequestIDLength = 128

	requestIDContextKey = "request_id"
)

func clampRequestID(id string) string {
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

// RequestID tags each request with an ID, echoed in the response header.
// A client supplied ID is kept, cut to MaxRequestIDLength.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := clampRequestID(c.GetHeader(RequestIDKey))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDContextKey, id)
		c.Header(RequestIDKey, id)
		c.Next()
	}
}

// GetRequestID returns the ID set by RequestID. Without that middleware it
// falls back to the request header.
func GetRequestID(c *gin.Context) string {
	return getRequestID(c)
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDContextKey); id != "" {
		return id
	}
	return clampRequestID(c.GetHeader(RequestIDKey))
}
