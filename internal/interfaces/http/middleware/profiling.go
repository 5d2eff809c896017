package middleware

import (
	"context"
	"strings"

	"github.com/erp/rental/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling tags the CPU and allocation samples of each request with its
// method, route template and area so Pyroscope can slice them per endpoint.
// Requests to the skip paths and unmatched routes are left untagged.
func Profiling(enabled bool, skip ...string) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	quiet := make(map[string]bool, len(skip))
	for _, p := range skip {
		quiet[p] = true
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || quiet[c.Request.URL.Path] {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.LabelMethod: c.Request.Method,
			telemetry.LabelRoute:  route,
			telemetry.LabelArea:   routeArea(route),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// routeArea is the first fixed segment after the api prefix and version:
// "/api/v1/tenants/:id/dues" gives "tenants"
func routeArea(route string) string {
	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "", part == "api", strings.HasPrefix(part, ":"), strings.HasPrefix(part, "*"):
			continue
		case len(part) > 1 && part[0] == 'v' && strings.Trim(part[1:], "0123456789") == "":
			continue
		}
		return part
	}
	return ""
}
