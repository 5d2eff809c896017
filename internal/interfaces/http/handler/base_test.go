package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/erp/rental/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name    string
		context string
		header  string
		want    string
	}{
		{"from context", "ctx-request-id", "", "ctx-request-id"},
		{"from header when context empty", "", "header-request-id", "header-request-id"},
		{"empty when not set", "", "", ""},
		{"context takes precedence over header", "ctx-id", "header-id", "ctx-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/", "")
			if tt.context != "" {
				c.Set("request_id", tt.context)
			}
			if tt.header != "" {
				c.Request.Header.Set(middleware.RequestIDKey, tt.header)
			}
			assert.Equal(t, tt.want, getRequestID(c))
		})
	}
}

// ============ Response Tests ============

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestPaginated(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")

	Paginated(c, shared.Paginated[string]{Items: []string{"x"}, Total: 21, Page: 2, PageSize: 10})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/", "")

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.DELETE("/test", func(c *gin.Context) {
		h.NoContent(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/test", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name   string
		answer func(*BaseHandler, *gin.Context)
		status int
		code   string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "Invalid request") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "Tenant not found") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "Server error") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"Error", func(h *BaseHandler, c *gin.Context) {
			h.Error(c, http.StatusConflict, dto.ErrCodeRoomOccupied, "Room 4 is let")
		}, http.StatusConflict, dto.ErrCodeRoomOccupied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/", "")
			tt.answer(&BaseHandler{}, c)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.code, c.GetString("error_code"), "tagged for the metrics middleware")
		})
	}
}

func TestBaseHandlerErrorWithRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")
	c.Set("request_id", "test-request-123")

	h.BadRequest(c, "Invalid request")

	assert.Equal(t, "test-request-123", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandlerErrorWithCode(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.ErrorWithCode(c, dto.ErrCodeTenantBlacklisted, "Tenant is blacklisted")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeTenantBlacklisted, decodeResponse(t, w).Error.Code)
}

func TestBaseHandlerValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")
	c.Set("request_id", "val-req-456")

	h.ValidationError(c, []dto.ValidationDetail{
		{Field: "mobile", Message: "Required"},
		{Field: "rent", Message: "Must be positive"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "val-req-456", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

// ============ Domain Error Tests ============

func TestBaseHandlerHandleDomainError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"duplicate entry", shared.ErrDuplicateEntry, http.StatusConflict, dto.ErrCodeDuplicateEntry},
		{
			name:         "agreement overlap",
			err:          shared.NewDomainError("AGREEMENT_OVERLAP", "Room has an overlapping agreement"),
			expectedCode: http.StatusConflict,
			expectedErr:  dto.ErrCodeAgreementOverlap,
		},
		{
			name:         "invalid prefix",
			err:          shared.NewDomainError("INVALID_DATES", "End date must be after start date"),
			expectedCode: http.StatusBadRequest,
			expectedErr:  "INVALID_DATES",
		},
		{
			name:         "not found suffix",
			err:          shared.NewDomainError("AGREEMENT_NOT_FOUND", "Agreement not found"),
			expectedCode: http.StatusNotFound,
			expectedErr:  "AGREEMENT_NOT_FOUND",
		},
		{
			name:         "cannot prefix",
			err:          shared.NewDomainError("CANNOT_DELETE_ACTIVE", "Active agreements cannot be deleted"),
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "CANNOT_DELETE_ACTIVE",
		},
		{
			name:         "wrapped",
			err:          fmt.Errorf("load tenant: %w", shared.ErrNotFound),
			expectedCode: http.StatusNotFound,
			expectedErr:  dto.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/", "")

			h.HandleDomainError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleDomainError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.HandleDomainError(c, nil)

	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerHandleNonDomainError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.HandleDomainError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	assert.Len(t, c.Errors, 1, "the cause is kept for the request log")
}

// ============ Binding Tests ============

type bindTarget struct {
	Name string `json:"name" form:"name" binding:"required"`
}

func TestBaseHandlerBindJSON(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantOK       bool
		expectedCode int
		expectedErr  string
	}{
		{name: "valid", body: `{"name":"Ravi"}`, wantOK: true},
		{name: "missing field", body: `{}`, expectedCode: http.StatusBadRequest, expectedErr: dto.ErrCodeValidation},
		{name: "malformed", body: `{"name":`, expectedCode: http.StatusBadRequest, expectedErr: dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodPost, "/", tt.body)

			var req bindTarget
			ok := h.bindJSON(c, &req)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "Ravi", req.Name)
				return
			}
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedErr, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestBaseHandlerBindOptionalJSON(t *testing.T) {
	h := &BaseHandler{}

	t.Run("empty body is accepted", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", "")
		var req bindTarget
		assert.True(t, h.bindOptionalJSON(c, &req))
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("present body is validated", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", `{}`)
		var req bindTarget
		assert.False(t, h.bindOptionalJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBaseHandlerBindQuery(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/?name=Asha", "")
	var req bindTarget
	require.True(t, h.bindQuery(c, &req))
	assert.Equal(t, "Asha", req.Name)

	c, w := newTestContext(http.MethodGet, "/", "")
	assert.False(t, h.bindQuery(c, &bindTarget{}))
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "required", resp.Error.Details[0].Tag)
}

// ============ Param Tests ============

func TestBaseHandlerParamUUID(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "6f1c2a7e-3c55-4f0a-9b1e-2f7a1d9c0b11"}}
	id, ok := h.paramUUID(c, "id", "tenant")
	assert.True(t, ok)
	assert.Equal(t, "6f1c2a7e-3c55-4f0a-9b1e-2f7a1d9c0b11", id.String())

	c, w := newTestContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	_, ok = h.paramUUID(c, "id", "tenant")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid tenant ID format", decodeResponse(t, w).Error.Message)
}

func TestBaseHandlerQueryUUID(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/", "")
	id, ok := h.queryUUID(c, "tenant_id")
	assert.True(t, ok)
	assert.Nil(t, id)

	c, _ = newTestContext(http.MethodGet, "/?tenant_id=6f1c2a7e-3c55-4f0a-9b1e-2f7a1d9c0b11", "")
	id, ok = h.queryUUID(c, "tenant_id")
	assert.True(t, ok)
	require.NotNil(t, id)

	c, w := newTestContext(http.MethodGet, "/?tenant_id=bad", "")
	_, ok = h.queryUUID(c, "tenant_id")
	assert.False(t, ok)
	assert.Equal(t, "Invalid tenant_id format", decodeResponse(t, w).Error.Message)
}
