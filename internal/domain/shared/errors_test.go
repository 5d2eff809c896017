package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	custom := NewDomainError("DUPLICATE_ENTRY", "entry AGR-1/DEPOSIT exists")

	assert.True(t, errors.Is(custom, ErrDuplicateEntry))
	assert.True(t, errors.Is(fmt.Errorf("append: %w", custom), ErrDuplicateEntry))
	assert.False(t, errors.Is(custom, ErrNotFound))
	assert.False(t, errors.Is(errors.New("DUPLICATE_ENTRY"), ErrDuplicateEntry))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ""},
		{"direct", ErrNotFound, "NOT_FOUND"},
		{"wrapped", fmt.Errorf("load: %w", Errorf("ROOM_OCCUPIED", "room %d is let", 4)), "ROOM_OCCUPIED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf("INVALID_AMOUNT", "amount %s must be positive", "-5.00")
	assert.Equal(t, "amount -5.00 must be positive", err.Error())
	assert.Equal(t, "INVALID_AMOUNT", err.Code)
}
