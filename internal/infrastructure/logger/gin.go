package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ginRequestIDKey is where the RequestID middleware keeps the ID
const ginRequestIDKey = "request_id"

// GinMiddleware logs one line per request and puts a request scoped logger
// on the request context, so services and SQL traces carry the request ID.
// Paths in skip get neither.
func GinMiddleware(base *zap.Logger, skip ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := quiet[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		began := time.Now()
		id := c.GetString(ginRequestIDKey)
		log := base.With(
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Request = c.Request.WithContext(WithContext(WithRequestID(c.Request.Context(), id), log))

		c.Next()

		status := c.Writer.Status()
		if ce := log.Check(statusLevel(status), "HTTP Request"); ce != nil {
			ce.Write(outcome(c, status, time.Since(began))...)
		}
	}
}

// statusLevel logs server errors as errors and client errors as warnings
func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func outcome(c *gin.Context, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	if route := c.FullPath(); route != "" {
		fields = append(fields, zap.String("route", route))
	}
	if q := c.Request.URL.RawQuery; q != "" {
		fields = append(fields, zap.String("query", q))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// panicBody is the error envelope of a recovered panic
type panicBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// Recovery turns a handler panic into a 500 in the API's error envelope
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			var body panicBody
			body.Error.Code = "ERR_INTERNAL"
			body.Error.Message = "An unexpected error occurred"
			body.Error.RequestID = c.GetString(ginRequestIDKey)

			base.Error("Panic recovered",
				zap.String("request_id", body.Error.RequestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", r),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
