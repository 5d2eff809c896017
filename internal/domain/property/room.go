package property

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoomStatus represents the occupancy status of a room
type RoomStatus string

const (
	RoomStatusVacant      RoomStatus = "vacant"
	RoomStatusOccupied    RoomStatus = "occupied"
	RoomStatusBooked      RoomStatus = "booked"
	RoomStatusMaintenance RoomStatus = "maintenance"
)

// IsValid checks if the status is known
func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusVacant, RoomStatusOccupied, RoomStatusBooked, RoomStatusMaintenance:
		return true
	}
	return false
}

// Room is the rentable unit. Room numbers are unique per flat.
type Room struct {
	shared.BaseAggregateRoot
	PropertyID         uuid.UUID
	FlatID             uuid.UUID
	RoomTypeID         *uuid.UUID
	RoomNumber         string
	Name               string
	RentAmount         decimal.Decimal
	DepositAmount      decimal.Decimal
	ParkingCharges     decimal.Decimal
	ParkingDeposit     decimal.Decimal
	Status             RoomStatus
	CurrentTenantID    *uuid.UUID
	CurrentAgreementID *uuid.UUID
	Notes              string
}

// RoomPricing carries the amounts for a new room. Zero values fall back to
// the room type, then to the flat for parking.
type RoomPricing struct {
	Rent           decimal.Decimal
	Deposit        decimal.Decimal
	ParkingCharges decimal.Decimal
	ParkingDeposit decimal.Decimal
}

// NewRoom creates a vacant room inside a flat
func NewRoom(prop *Property, flat *Flat, roomType *RoomType, roomNumber string, pricing RoomPricing) (*Room, error) {
	if prop == nil || flat == nil {
		return nil, shared.NewDomainError("INVALID_FLAT", "Room must belong to a flat")
	}
	if flat.PropertyID != prop.ID {
		return nil, shared.NewDomainError("INVALID_FLAT", "Flat does not belong to the property")
	}
	roomNumber = strings.TrimSpace(roomNumber)
	if roomNumber == "" {
		return nil, shared.NewDomainError("INVALID_ROOM_NUMBER", "Room number cannot be empty")
	}

	if roomType != nil {
		if pricing.Rent.IsZero() {
			pricing.Rent = roomType.DefaultRent
		}
		if pricing.Deposit.IsZero() {
			pricing.Deposit = roomType.DefaultDeposit
		}
	}
	if pricing.ParkingCharges.IsZero() {
		pricing.ParkingCharges = flat.ParkingCharges
	}
	if pricing.ParkingDeposit.IsZero() {
		pricing.ParkingDeposit = flat.ParkingDeposit
	}
	if err := validatePricing(pricing); err != nil {
		return nil, err
	}

	r := &Room{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PropertyID:        prop.ID,
		FlatID:            flat.ID,
		RoomNumber:        roomNumber,
		Name:              fmt.Sprintf("%s-%s-%s", prop.Code, flat.FlatNumber, roomNumber),
		RentAmount:        pricing.Rent,
		DepositAmount:     pricing.Deposit,
		ParkingCharges:    pricing.ParkingCharges,
		ParkingDeposit:    pricing.ParkingDeposit,
		Status:            RoomStatusVacant,
	}
	if roomType != nil {
		id := roomType.ID
		r.RoomTypeID = &id
	}
	return r, nil
}

func validatePricing(p RoomPricing) error {
	if !p.Rent.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Rent amount must be positive")
	}
	if p.Deposit.IsNegative() || p.ParkingCharges.IsNegative() || p.ParkingDeposit.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amounts cannot be negative")
	}
	return nil
}

// UpdatePricing changes the room amounts
func (r *Room) UpdatePricing(pricing RoomPricing) error {
	if err := validatePricing(pricing); err != nil {
		return err
	}
	r.RentAmount = pricing.Rent
	r.DepositAmount = pricing.Deposit
	r.ParkingCharges = pricing.ParkingCharges
	r.ParkingDeposit = pricing.ParkingDeposit
	r.touch()
	return nil
}

// Book reserves a vacant room
func (r *Room) Book() error {
	if r.Status != RoomStatusVacant {
		return shared.Errorf("INVALID_STATE", "Cannot book room in %s status", r.Status)
	}
	r.Status = RoomStatusBooked
	r.touch()
	return nil
}

// Occupy marks the room occupied by the tenant under the agreement
func (r *Room) Occupy(tenantID, agreementID uuid.UUID) error {
	if r.Status == RoomStatusMaintenance {
		return shared.NewDomainError("INVALID_STATE", "Cannot occupy a room under maintenance")
	}
	if r.Status == RoomStatusOccupied && r.CurrentAgreementID != nil && *r.CurrentAgreementID != agreementID {
		return shared.Errorf("ROOM_OCCUPIED", "Room %s is already occupied", r.Name)
	}
	r.Status = RoomStatusOccupied
	r.CurrentTenantID = &tenantID
	r.CurrentAgreementID = &agreementID
	r.AddDomainEvent(NewRoomStatusChangedEvent(r))
	r.touch()
	return nil
}

// Vacate frees the room
func (r *Room) Vacate() {
	r.Status = RoomStatusVacant
	r.CurrentTenantID = nil
	r.CurrentAgreementID = nil
	r.AddDomainEvent(NewRoomStatusChangedEvent(r))
	r.touch()
}

// StartMaintenance takes a vacant room out of service
func (r *Room) StartMaintenance() error {
	if r.Status == RoomStatusOccupied {
		return shared.NewDomainError("INVALID_STATE", "Cannot put an occupied room under maintenance")
	}
	r.Status = RoomStatusMaintenance
	r.touch()
	return nil
}

// IsOccupied reports whether a tenant currently lives in the room
func (r *Room) IsOccupied() bool {
	return r.Status == RoomStatusOccupied
}

func (r *Room) touch() {
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}
