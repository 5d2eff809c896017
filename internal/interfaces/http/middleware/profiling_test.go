package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// ============ Profiling Tests ============

func TestRouteArea(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/tenants/:id/dues", "tenants"},
		{"/api/v2/dues/totals", "dues"},
		{"/health", "health"},
		{"/:id", ""},
		{"", ""},
		{"/api/v1/vacancies", "vacancies"},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, routeArea(tt.route))
		})
	}
}

func TestProfiling(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(enabled bool, path string) (labels map[string]string) {
		r := gin.New()
		r.Use(Profiling(enabled, "/health"))
		handler := func(c *gin.Context) {
			labels = map[string]string{}
			pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
				labels[k] = v
				return true
			})
			c.Status(http.StatusOK)
		}
		r.GET("/api/v1/tenants/:id", handler)
		r.GET("/health", handler)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		return labels
	}

	t.Run("tags the request", func(t *testing.T) {
		labels := serve(true, "/api/v1/tenants/42")
		assert.Equal(t, map[string]string{"method": "GET", "route": "/api/v1/tenants/:id", "area": "tenants"}, labels)
	})

	t.Run("skip paths stay untagged", func(t *testing.T) {
		assert.Empty(t, serve(true, "/health"))
	})

	t.Run("disabled", func(t *testing.T) {
		assert.Empty(t, serve(false, "/api/v1/tenants/42"))
	})
}
