package property

import (
	"strings"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RoomType is a template for room pricing
type RoomType struct {
	shared.BaseAggregateRoot
	Code           string
	Name           string
	DefaultRent    decimal.Decimal
	DefaultDeposit decimal.Decimal
	Description    string
}

// NewRoomType creates a room type. Codes are stored upper-case.
func NewRoomType(code, name string, defaultRent, defaultDeposit decimal.Decimal) (*RoomType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Room type code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Room type name cannot be empty")
	}
	if defaultRent.IsNegative() || defaultDeposit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Default amounts cannot be negative")
	}
	return &RoomType{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		DefaultRent:       defaultRent,
		DefaultDeposit:    defaultDeposit,
	}, nil
}
