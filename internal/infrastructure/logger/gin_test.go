package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newEngine stamps a fixed request ID the way the RequestID middleware does
func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(ginRequestIDKey, "req-7")
		c.Next()
	})
	engine.Use(mw...)
	return engine
}

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

// ============ Request Logging Tests ============

func TestGinMiddleware_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			engine := newEngine(GinMiddleware(zap.New(core)))
			engine.GET("/tenants/:id", func(c *gin.Context) { c.Status(tt.status) })

			serve(engine, "/tenants/42?include=dues")

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			fields := logs[0].ContextMap()
			assert.Equal(t, "req-7", fields["request_id"])
			assert.Equal(t, "/tenants/42", fields["path"])
			assert.Equal(t, "/tenants/:id", fields["route"])
			assert.Equal(t, "include=dues", fields["query"])
			assert.Equal(t, int64(tt.status), fields["status"])
		})
	}
}

func TestGinMiddleware_RequestContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	engine := newEngine(GinMiddleware(zap.New(core)))
	engine.GET("/dues", func(c *gin.Context) {
		ctx := c.Request.Context()
		assert.Equal(t, "req-7", RequestID(ctx))
		FromContext(ctx).Info("dues listed")
		c.Status(http.StatusOK)
	})

	serve(engine, "/dues")

	logs := recorded.FilterMessage("dues listed").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "req-7", logs[0].ContextMap()["request_id"])
}

func TestGinMiddleware_SkipsPaths(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	engine := newEngine(GinMiddleware(zap.New(core), "/health"))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorded.All())
}

// ============ Recovery Tests ============

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	engine := newEngine(Recovery(zap.New(core)))
	engine.GET("/boom", func(c *gin.Context) { panic("ledger corrupted") })

	w := serve(engine, "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_INTERNAL","message":"An unexpected error occurred","request_id":"req-7"}}`, w.Body.String())

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "Panic recovered", logs[0].Message)
	assert.Equal(t, "ledger corrupted", logs[0].ContextMap()["error"])
}
