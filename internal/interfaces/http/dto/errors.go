package dto

import (
	"net/http"
	"strings"
)

// Codes clients see in error responses. Domain errors carry shorter codes
// that NormalizeErrorCode translates.
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeDuplicateEntry      = "ERR_DUPLICATE_ENTRY" // reused ledger reference
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeAgreementOverlap  = "ERR_AGREEMENT_OVERLAP"
	ErrCodeRoomOccupied      = "ERR_ROOM_OCCUPIED"
	ErrCodeTenantBlacklisted = "ERR_TENANT_BLACKLISTED"
	ErrCodeImmutableField    = "ERR_IMMUTABLE_FIELD" // amounts of a posted entry
	ErrCodeJobFailed         = "ERR_JOB_FAILED"

	ErrCodeForbidden   = "ERR_FORBIDDEN"
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

var statusByCode = map[string]int{
	ErrCodeInternal:  http.StatusInternalServerError,
	ErrCodeJobFailed: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeDuplicateEntry:      http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeAgreementOverlap:    http.StatusConflict,
	ErrCodeRoomOccupied:        http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeTenantBlacklisted: http.StatusUnprocessableEntity,
	ErrCodeImmutableField:    http.StatusUnprocessableEntity,

	ErrCodeForbidden:   http.StatusForbidden,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// the stored object is missing, not the document row
	"UPLOAD_NOT_FOUND":     http.StatusUnprocessableEntity,
	"UPLOAD_URL_FAILED":    http.StatusBadGateway,
	"STORAGE_CHECK_FAILED": http.StatusBadGateway,
}

// domain codes with a client facing equivalent
var domainCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"DUPLICATE_ENTRY":      ErrCodeDuplicateEntry,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"AGREEMENT_OVERLAP":    ErrCodeAgreementOverlap,
	"ROOM_OCCUPIED":        ErrCodeRoomOccupied,
	"TENANT_BLACKLISTED":   ErrCodeTenantBlacklisted,
	"IMMUTABLE_FIELD":      ErrCodeImmutableField,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// unmapped domain codes are classified by their shape
var codeRules = []struct {
	match  func(code string) bool
	status int
}{
	{func(c string) bool { return strings.HasPrefix(c, "INVALID_") }, http.StatusBadRequest},
	{func(c string) bool { return strings.HasSuffix(c, "NOT_FOUND") }, http.StatusNotFound},
	{func(c string) bool {
		for _, p := range []string{"ALREADY_", "CANNOT_", "EXCEEDS_", "HAS_", "TENANT_"} {
			if strings.HasPrefix(c, p) {
				return true
			}
		}
		return false
	}, http.StatusUnprocessableEntity},
}

// GetHTTPStatus returns the response status for an error code, 500 when
// nothing matches
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	for _, rule := range codeRules {
		if rule.match(code) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode returns the client facing code for a domain code.
// Codes without an equivalent pass through.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainCodes[code]; ok {
		return mapped
	}
	return code
}

// IsKnownCode reports whether code has an explicit status
func IsKnownCode(code string) bool {
	_, ok := statusByCode[code]
	return ok
}
