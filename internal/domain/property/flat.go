package property

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Flat is a unit inside a property. Flat numbers are unique per property.
type Flat struct {
	shared.BaseAggregateRoot
	PropertyID     uuid.UUID
	FlatNumber     string
	Floor          int
	FlatType       string
	ParkingCharges decimal.Decimal
	ParkingDeposit decimal.Decimal
	Active         bool
}

// NewFlat creates a flat inside a property
func NewFlat(propertyID uuid.UUID, flatNumber string, floor int) (*Flat, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	flatNumber = strings.TrimSpace(flatNumber)
	if flatNumber == "" {
		return nil, shared.NewDomainError("INVALID_FLAT_NUMBER", "Flat number cannot be empty")
	}
	return &Flat{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PropertyID:        propertyID,
		FlatNumber:        flatNumber,
		Floor:             floor,
		ParkingCharges:    decimal.Zero,
		ParkingDeposit:    decimal.Zero,
		Active:            true,
	}, nil
}

// SetParking sets the flat-level parking defaults inherited by its rooms
func (f *Flat) SetParking(charges, deposit decimal.Decimal) error {
	if charges.IsNegative() || deposit.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Parking amounts cannot be negative")
	}
	f.ParkingCharges = charges
	f.ParkingDeposit = deposit
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
	return nil
}
