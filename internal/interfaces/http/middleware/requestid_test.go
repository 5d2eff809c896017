package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============ RequestID Tests ============

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, getRequestID(c))
	})

	t.Run("generates an ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", nil)
		id := w.Header().Get(RequestIDKey)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the client ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{RequestIDKey: "req-42"})
		assert.Equal(t, "req-42", w.Header().Get(RequestIDKey))
		assert.Equal(t, "req-42", w.Body.String())
	})

	t.Run("truncates long IDs", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{RequestIDKey: strings.Repeat("a", 500)})
		assert.Len(t, w.Header().Get(RequestIDKey), MaxRequestIDLength)
	})
}

func TestGetRequestID_FromHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, getRequestID(c))
	})

	w := serve(router, http.MethodGet, "/test", map[string]string{RequestIDKey: "from-header"})
	assert.Equal(t, "from-header", w.Body.String())
}

func TestClampRequestID(t *testing.T) {
	assert.Equal(t, "", clampRequestID(""))
	assert.Equal(t, "abc", clampRequestID("abc"))
	assert.Len(t, clampRequestID(strings.Repeat("x", MaxRequestIDLength+1)), MaxRequestIDLength)
}
