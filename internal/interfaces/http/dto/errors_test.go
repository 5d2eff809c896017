package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============ Error Code Tests ============

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeJobFailed, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDuplicateEntry, http.StatusConflict},
		{ErrCodeAgreementOverlap, http.StatusConflict},
		{ErrCodeRoomOccupied, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeImmutableField, http.StatusUnprocessableEntity},
		{ErrCodeTenantBlacklisted, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"INVALID_AMOUNT", http.StatusBadRequest},
		{"INVALID_DATES", http.StatusBadRequest},
		{"ALREADY_ACTIVE", http.StatusUnprocessableEntity},
		{"CANNOT_CANCEL_POSTED", http.StatusUnprocessableEntity},
		{"EXCEEDS_OUTSTANDING", http.StatusUnprocessableEntity},
		{"HAS_ROOMS", http.StatusUnprocessableEntity},
		{"TENANT_IN_ROOM", http.StatusUnprocessableEntity},
		{"ITEM_NOT_FOUND", http.StatusNotFound},
		{"UPLOAD_NOT_FOUND", http.StatusUnprocessableEntity},
		{"UPLOAD_URL_FAILED", http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := map[string]string{
		"NOT_FOUND":            ErrCodeNotFound,
		"DUPLICATE_ENTRY":      ErrCodeDuplicateEntry,
		"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
		"AGREEMENT_OVERLAP":    ErrCodeAgreementOverlap,
		"IMMUTABLE_FIELD":      ErrCodeImmutableField,
		ErrCodeValidation:      ErrCodeValidation,
		"INVALID_AMOUNT":       "INVALID_AMOUNT",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeErrorCode(in))
		})
	}
}

func TestSharedSentinelsHaveStatus(t *testing.T) {
	for _, e := range []*shared.DomainError{
		shared.ErrNotFound,
		shared.ErrAlreadyExists,
		shared.ErrInvalidInput,
		shared.ErrConcurrencyConflict,
		shared.ErrInvalidState,
		shared.ErrDuplicateEntry,
	} {
		assert.True(t, IsKnownCode(NormalizeErrorCode(e.Code)), e.Code)
	}
	for domain, code := range domainCodes {
		assert.True(t, strings.HasPrefix(code, "ERR_"), domain)
		assert.True(t, IsKnownCode(code), code)
	}
}

// ============ Response Tests ============

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("NOT_FOUND", "tenant not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code) // Should be normalized
	assert.Equal(t, "tenant not found", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "tenant_id", Message: "tenant_id is required", Tag: "required"},
		{Field: "amount", Message: "amount is required", Tag: "required"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "tenant_id", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "agreement not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeNotFound, decoded.Error.Code)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
	assert.NotContains(t, string(data), "details", "empty details are omitted")
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeInternal, "Server error")
	after := time.Now()

	assert.False(t, resp.Error.Timestamp.Before(before), "Timestamp should not be before call")
	assert.False(t, resp.Error.Timestamp.After(after), "Timestamp should not be after call")
}

func TestNewPaginatedResponse_PageCount(t *testing.T) {
	tests := []struct {
		total         int64
		page          int
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{100, 1, 10, 10, 10},
		{101, 1, 10, 11, 10}, // Partial page
		{0, 1, 10, 0, 10},
		{9, 1, 10, 1, 10},
		{11, 1, 10, 2, 10},
		// Zero pageSize defaults to 20
		{100, 1, 0, 5, 20},
		{100, 1, -1, 5, 20},
	}

	for _, tt := range tests {
		resp := NewPaginatedResponse(shared.NewPaginated([]int{}, tt.total, tt.page, tt.pageSize))
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	t.Run("copies meta", func(t *testing.T) {
		p := shared.NewPaginated([]string{"a", "b"}, 12, 2, 5)
		resp := NewPaginatedResponse(p)
		assert.True(t, resp.Success)
		assert.Equal(t, []string{"a", "b"}, resp.Data)
		assert.Equal(t, int64(12), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("nil items become an empty list", func(t *testing.T) {
		resp := NewPaginatedResponse(shared.Paginated[int]{})
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"data":[]`)
	})
}

func TestListRequest_ToFilter(t *testing.T) {
	f := ListRequest{Page: 3, Search: "marina"}.ToFilter()
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Equal(t, "marina", f.Search)
}
