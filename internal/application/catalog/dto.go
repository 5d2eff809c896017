package catalog

import (
	"time"

	"github.com/erp/rental/internal/domain/property"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePropertyRequest represents a request to create a property
type CreatePropertyRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=20"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Type        string `json:"property_type" binding:"omitempty,oneof=building villa apartment commercial"`
	Address     string `json:"address" binding:"max=500"`
	City        string `json:"city" binding:"max=100"`
	ManagerName string `json:"manager_name" binding:"max=100"`
	Notes       string `json:"notes" binding:"max=2000"`
}

// UpdatePropertyRequest represents a request to update a property
type UpdatePropertyRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Address     string `json:"address" binding:"max=500"`
	City        string `json:"city" binding:"max=100"`
	ManagerName string `json:"manager_name" binding:"max=100"`
	Notes       string `json:"notes" binding:"max=2000"`
	State       string `json:"state" binding:"omitempty,oneof=active maintenance inactive"`
}

// PropertyResponse represents a property in API responses
type PropertyResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"property_type"`
	State       string    `json:"state"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	ManagerName string    `json:"manager_name"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToPropertyResponse converts a domain property
func ToPropertyResponse(p *property.Property) PropertyResponse {
	return PropertyResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Type:        string(p.Type),
		State:       string(p.State),
		Address:     p.Address,
		City:        p.City,
		ManagerName: p.ManagerName,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreateFlatRequest represents a request to add a flat to a property
type CreateFlatRequest struct {
	FlatNumber     string           `json:"flat_number" binding:"required,min=1,max=20"`
	Floor          int              `json:"floor"`
	FlatType       string           `json:"flat_type" binding:"max=50"`
	ParkingCharges *decimal.Decimal `json:"parking_charges"`
	ParkingDeposit *decimal.Decimal `json:"parking_deposit"`
}

// FlatResponse represents a flat in API responses
type FlatResponse struct {
	ID             uuid.UUID       `json:"id"`
	PropertyID     uuid.UUID       `json:"property_id"`
	FlatNumber     string          `json:"flat_number"`
	Floor          int             `json:"floor"`
	FlatType       string          `json:"flat_type"`
	ParkingCharges decimal.Decimal `json:"parking_charges"`
	ParkingDeposit decimal.Decimal `json:"parking_deposit"`
	Active         bool            `json:"active"`
}

// ToFlatResponse converts a domain flat
func ToFlatResponse(f *property.Flat) FlatResponse {
	return FlatResponse{
		ID:             f.ID,
		PropertyID:     f.PropertyID,
		FlatNumber:     f.FlatNumber,
		Floor:          f.Floor,
		FlatType:       f.FlatType,
		ParkingCharges: f.ParkingCharges,
		ParkingDeposit: f.ParkingDeposit,
		Active:         f.Active,
	}
}

// CreateRoomTypeRequest represents a request to create a room type
type CreateRoomTypeRequest struct {
	Code           string          `json:"code" binding:"required,min=1,max=20"`
	Name           string          `json:"name" binding:"required,min=1,max=100"`
	DefaultRent    decimal.Decimal `json:"default_rent"`
	DefaultDeposit decimal.Decimal `json:"default_deposit"`
	Description    string          `json:"description" binding:"max=500"`
}

// RoomTypeResponse represents a room type in API responses
type RoomTypeResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	DefaultRent    decimal.Decimal `json:"default_rent"`
	DefaultDeposit decimal.Decimal `json:"default_deposit"`
	Description    string          `json:"description"`
}

// ToRoomTypeResponse converts a domain room type
func ToRoomTypeResponse(rt *property.RoomType) RoomTypeResponse {
	return RoomTypeResponse{
		ID:             rt.ID,
		Code:           rt.Code,
		Name:           rt.Name,
		DefaultRent:    rt.DefaultRent,
		DefaultDeposit: rt.DefaultDeposit,
		Description:    rt.Description,
	}
}

// CreateRoomRequest represents a request to create a room. Zero amounts fall
// back to the room type and the flat.
type CreateRoomRequest struct {
	FlatID         uuid.UUID       `json:"flat_id" binding:"required"`
	RoomTypeID     *uuid.UUID      `json:"room_type_id"`
	RoomNumber     string          `json:"room_number" binding:"required,min=1,max=20"`
	RentAmount     decimal.Decimal `json:"rent_amount"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	ParkingCharges decimal.Decimal `json:"parking_charges"`
	ParkingDeposit decimal.Decimal `json:"parking_deposit"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

// UpdateRoomPricingRequest represents a request to change room amounts
type UpdateRoomPricingRequest struct {
	RentAmount     decimal.Decimal `json:"rent_amount"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	ParkingCharges decimal.Decimal `json:"parking_charges"`
	ParkingDeposit decimal.Decimal `json:"parking_deposit"`
}

// RoomAction names a room status transition
type RoomAction string

const (
	RoomActionBook        RoomAction = "book"
	RoomActionVacate      RoomAction = "vacate"
	RoomActionMaintenance RoomAction = "maintenance"
)

// RoomListFilter represents room list query parameters
type RoomListFilter struct {
	Search     string     `form:"search"`
	PropertyID *uuid.UUID `form:"-"`
	FlatID     *uuid.UUID `form:"-"`
	Status     string     `form:"status" binding:"omitempty,oneof=vacant occupied booked maintenance"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RoomResponse represents a room in API responses
type RoomResponse struct {
	ID                 uuid.UUID       `json:"id"`
	PropertyID         uuid.UUID       `json:"property_id"`
	FlatID             uuid.UUID       `json:"flat_id"`
	RoomTypeID         *uuid.UUID      `json:"room_type_id,omitempty"`
	RoomNumber         string          `json:"room_number"`
	Name               string          `json:"name"`
	RentAmount         decimal.Decimal `json:"rent_amount"`
	DepositAmount      decimal.Decimal `json:"deposit_amount"`
	ParkingCharges     decimal.Decimal `json:"parking_charges"`
	ParkingDeposit     decimal.Decimal `json:"parking_deposit"`
	Status             string          `json:"status"`
	CurrentTenantID    *uuid.UUID      `json:"current_tenant_id,omitempty"`
	CurrentAgreementID *uuid.UUID      `json:"current_agreement_id,omitempty"`
	Notes              string          `json:"notes"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToRoomResponse converts a domain room
func ToRoomResponse(r *property.Room) RoomResponse {
	return RoomResponse{
		ID:                 r.ID,
		PropertyID:         r.PropertyID,
		FlatID:             r.FlatID,
		RoomTypeID:         r.RoomTypeID,
		RoomNumber:         r.RoomNumber,
		Name:               r.Name,
		RentAmount:         r.RentAmount,
		DepositAmount:      r.DepositAmount,
		ParkingCharges:     r.ParkingCharges,
		ParkingDeposit:     r.ParkingDeposit,
		Status:             string(r.Status),
		CurrentTenantID:    r.CurrentTenantID,
		CurrentAgreementID: r.CurrentAgreementID,
		Notes:              r.Notes,
		UpdatedAt:          r.UpdatedAt,
	}
}

// CreateOtherChargeRequest represents a request to create a catalog charge
type CreateOtherChargeRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=100"`
	ChargeType  string          `json:"charge_type" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency"`
	IsMandatory bool            `json:"is_mandatory"`
	Description string          `json:"description" binding:"max=500"`
}

// OtherChargeResponse represents a catalog charge in API responses
type OtherChargeResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	ChargeType  string          `json:"charge_type"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency"`
	IsMandatory bool            `json:"is_mandatory"`
	Active      bool            `json:"active"`
	Description string          `json:"description"`
}

// ToOtherChargeResponse converts a domain charge
func ToOtherChargeResponse(c *property.OtherCharge) OtherChargeResponse {
	return OtherChargeResponse{
		ID:          c.ID,
		Name:        c.Name,
		ChargeType:  string(c.ChargeType),
		Amount:      c.Amount,
		Frequency:   string(c.Frequency),
		IsMandatory: c.IsMandatory,
		Active:      c.Active,
		Description: c.Description,
	}
}
