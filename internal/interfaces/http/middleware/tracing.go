package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// errorCodeContextKey holds the API error code of the response
const errorCodeContextKey = "error_code"

// TracingConfig configures the server span middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced, e.g. the health probe
	SkipPaths []string
}

// DefaultTracingConfig traces everything but /health
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{ServiceName: "rental-ledger", Enabled: true, SkipPaths: []string{"/health"}}
}

// TracingWithConfig opens a server span per request with otelgin. Spans
// are named "METHOD route", e.g. "GET /api/v1/tenants/:id/balance".
// SpanAnnotator must run after it.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	return otelgin.Middleware(cfg.ServiceName,
		otelgin.WithFilter(func(r *http.Request) bool { return !skip[r.URL.Path] }),
	)
}

// SpanAnnotator tags the server span with the request ID and the ledger
// records named in the route, e.g. tenant.id for /tenants/:id. After the
// handler it records the API error code; 5xx answers mark the span failed.
func SpanAnnotator() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := getRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		span.SetAttributes(recordAttributes(c.FullPath(), c.Param)...)

		c.Next()

		status := c.Writer.Status()
		if code := c.GetString(errorCodeContextKey); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
			if len(c.Errors) > 0 {
				span.RecordError(c.Errors.Last().Err)
			}
		}
	}
}

// recordAttributes names each path parameter after the resource segment
// before it: /agreements/:id/charges/:charge_id gives agreement.id and
// charge.charge_id
func recordAttributes(route string, param func(string) string) []attribute.KeyValue {
	segments := strings.Split(strings.Trim(route, "/"), "/")
	var attrs []attribute.KeyValue
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") || i == 0 {
			continue
		}
		name := seg[1:]
		if v := param(name); v != "" {
			attrs = append(attrs, attribute.String(singular(segments[i-1])+"."+name, v))
		}
	}
	return attrs
}

func singular(resource string) string {
	switch {
	case strings.HasSuffix(resource, "ies"):
		return strings.TrimSuffix(resource, "ies") + "y"
	case strings.HasSuffix(resource, "s"):
		return strings.TrimSuffix(resource, "s")
	}
	return resource
}

// SetErrorCode remembers the API error code answered for the request
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeContextKey, code)
}
