package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func ok(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

// ============ Router Tests ============

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.version)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.areas)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	tenants := NewArea("tenants", "/tenants")
	tenants.GET("/:id/balance", ok("balance"))
	dues := NewArea("dues", "/dues")
	dues.GET("/totals", ok("totals"))

	r.Mount(tenants, dues).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/tenants/abc/balance")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "balance", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/dues/totals")
	assert.Equal(t, "totals", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/tenants/abc/balance").Code)
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", ok("up"))

	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	})
	g := NewArea("dues", "/dues")
	g.GET("", ok("list"))
	r.Mount(g).Setup()

	assert.Equal(t, "1", serve(engine, http.MethodGet, "/api/v1/dues").Header().Get("X-Api"))
	assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-Api"), "engine routes skip API middleware")
}

func TestRouterRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	g := NewArea("collections", "/collections")
	g.POST("", ok("create")).GET("", ok("list")).GET("/recent", ok("recent"))
	r.Mount(g).Setup()

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/api/v1/collections"},
		{Method: http.MethodPost, Path: "/api/v1/collections"},
		{Method: http.MethodGet, Path: "/api/v1/collections/recent"},
	}, r.Routes())
}

// ============ Area Tests ============

func TestArea(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewArea("agreements", "/agreements")
		assert.Equal(t, "agreements", g.Name())
		assert.Equal(t, "/agreements", g.Prefix())
	})

	t.Run("every method", func(t *testing.T) {
		engine := gin.New()
		g := NewArea("agreements", "/agreements")
		g.GET("/a", ok("get")).
			POST("/a", ok("post")).
			PUT("/a", ok("put")).
			PATCH("/a", ok("patch")).
			DELETE("/a", ok("delete"))
		g.Mount(engine.Group("/api/v1"))

		tests := []struct {
			method string
			body   string
		}{
			{http.MethodGet, "get"},
			{http.MethodPost, "post"},
			{http.MethodPut, "put"},
			{http.MethodPatch, "patch"},
			{http.MethodDelete, "delete"},
		}
		for _, tt := range tests {
			t.Run(tt.method, func(t *testing.T) {
				w := serve(engine, tt.method, "/api/v1/agreements/a")
				assert.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, tt.body, w.Body.String())
			})
		}
		assert.Equal(t, 5, g.Len())
	})

	t.Run("area middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewArea("jobs", "/jobs")
		g.Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		})
		g.POST("/:name/run", ok("ran"))
		g.Mount(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPost, "/api/v1/jobs/x/run").Code)
	})

	t.Run("nested areas", func(t *testing.T) {
		engine := gin.New()
		g := NewArea("catalog", "/catalog")
		g.GET("", ok("catalog"))
		g.Nest("charges", "/charges").GET("", ok("charges"))
		g.Mount(engine.Group("/api/v1"))

		assert.Equal(t, "charges", serve(engine, http.MethodGet, "/api/v1/catalog/charges").Body.String())
		assert.Equal(t, 2, g.Len())
	})
}
