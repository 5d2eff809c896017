package models

import (
	"github.com/erp/rental/internal/domain/property"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyModel is the persistence model for the Property domain entity.
type PropertyModel struct {
	AggregateModel
	Code        string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string                 `gorm:"type:varchar(200);not null"`
	Type        property.PropertyType  `gorm:"type:varchar(20);not null;default:'building'"`
	State       property.PropertyState `gorm:"type:varchar(20);not null;default:'active'"`
	Address     string                 `gorm:"type:text"`
	City        string                 `gorm:"type:varchar(100)"`
	ManagerName string                 `gorm:"type:varchar(200)"`
	Notes       string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the persistence model to a domain Property entity.
func (m *PropertyModel) ToDomain() *property.Property {
	return &property.Property{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Type:              m.Type,
		State:             m.State,
		Address:           m.Address,
		City:              m.City,
		ManagerName:       m.ManagerName,
		Notes:             m.Notes,
	}
}

// PropertyModelFromDomain creates a new persistence model from a domain Property entity.
func PropertyModelFromDomain(p *property.Property) *PropertyModel {
	m := &PropertyModel{
		Code:        p.Code,
		Name:        p.Name,
		Type:        p.Type,
		State:       p.State,
		Address:     p.Address,
		City:        p.City,
		ManagerName: p.ManagerName,
		Notes:       p.Notes,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// FlatModel is the persistence model for the Flat domain entity.
type FlatModel struct {
	AggregateModel
	PropertyID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_flat_property_number,priority:1"`
	FlatNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_flat_property_number,priority:2"`
	Floor          int             `gorm:"not null;default:0"`
	FlatType       string          `gorm:"type:varchar(50)"`
	ParkingCharges decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ParkingDeposit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active         bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FlatModel) TableName() string {
	return "flats"
}

// ToDomain converts the persistence model to a domain Flat entity.
func (m *FlatModel) ToDomain() *property.Flat {
	return &property.Flat{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PropertyID:        m.PropertyID,
		FlatNumber:        m.FlatNumber,
		Floor:             m.Floor,
		FlatType:          m.FlatType,
		ParkingCharges:    m.ParkingCharges,
		ParkingDeposit:    m.ParkingDeposit,
		Active:            m.Active,
	}
}

// FlatModelFromDomain creates a new persistence model from a domain Flat entity.
func FlatModelFromDomain(f *property.Flat) *FlatModel {
	m := &FlatModel{
		PropertyID:     f.PropertyID,
		FlatNumber:     f.FlatNumber,
		Floor:          f.Floor,
		FlatType:       f.FlatType,
		ParkingCharges: f.ParkingCharges,
		ParkingDeposit: f.ParkingDeposit,
		Active:         f.Active,
	}
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	return m
}

// RoomTypeModel is the persistence model for the RoomType domain entity.
type RoomTypeModel struct {
	AggregateModel
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null"`
	DefaultRent    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DefaultDeposit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Description    string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RoomTypeModel) TableName() string {
	return "room_types"
}

// ToDomain converts the persistence model to a domain RoomType entity.
func (m *RoomTypeModel) ToDomain() *property.RoomType {
	return &property.RoomType{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		DefaultRent:       m.DefaultRent,
		DefaultDeposit:    m.DefaultDeposit,
		Description:       m.Description,
	}
}

// RoomTypeModelFromDomain creates a new persistence model from a domain RoomType entity.
func RoomTypeModelFromDomain(rt *property.RoomType) *RoomTypeModel {
	m := &RoomTypeModel{
		Code:           rt.Code,
		Name:           rt.Name,
		DefaultRent:    rt.DefaultRent,
		DefaultDeposit: rt.DefaultDeposit,
		Description:    rt.Description,
	}
	m.FromDomainAggregateRoot(rt.BaseAggregateRoot)
	return m
}

// RoomModel is the persistence model for the Room domain entity.
type RoomModel struct {
	AggregateModel
	PropertyID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	FlatID             uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_room_flat_number,priority:1"`
	RoomTypeID         *uuid.UUID          `gorm:"type:uuid"`
	RoomNumber         string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_room_flat_number,priority:2"`
	Name               string              `gorm:"type:varchar(200);not null"`
	RentAmount         decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	DepositAmount      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ParkingCharges     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ParkingDeposit     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status             property.RoomStatus `gorm:"type:varchar(20);not null;default:'vacant';index"`
	CurrentTenantID    *uuid.UUID          `gorm:"type:uuid;index"`
	CurrentAgreementID *uuid.UUID          `gorm:"type:uuid"`
	Notes              string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RoomModel) TableName() string {
	return "rooms"
}

// ToDomain converts the persistence model to a domain Room entity.
func (m *RoomModel) ToDomain() *property.Room {
	return &property.Room{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		PropertyID:         m.PropertyID,
		FlatID:             m.FlatID,
		RoomTypeID:         m.RoomTypeID,
		RoomNumber:         m.RoomNumber,
		Name:               m.Name,
		RentAmount:         m.RentAmount,
		DepositAmount:      m.DepositAmount,
		ParkingCharges:     m.ParkingCharges,
		ParkingDeposit:     m.ParkingDeposit,
		Status:             m.Status,
		CurrentTenantID:    m.CurrentTenantID,
		CurrentAgreementID: m.CurrentAgreementID,
		Notes:              m.Notes,
	}
}

// RoomModelFromDomain creates a new persistence model from a domain Room entity.
func RoomModelFromDomain(r *property.Room) *RoomModel {
	m := &RoomModel{
		PropertyID:         r.PropertyID,
		FlatID:             r.FlatID,
		RoomTypeID:         r.RoomTypeID,
		RoomNumber:         r.RoomNumber,
		Name:               r.Name,
		RentAmount:         r.RentAmount,
		DepositAmount:      r.DepositAmount,
		ParkingCharges:     r.ParkingCharges,
		ParkingDeposit:     r.ParkingDeposit,
		Status:             r.Status,
		CurrentTenantID:    r.CurrentTenantID,
		CurrentAgreementID: r.CurrentAgreementID,
		Notes:              r.Notes,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// OtherChargeModel is the persistence model for the OtherCharge domain entity.
type OtherChargeModel struct {
	AggregateModel
	Name        string                   `gorm:"type:varchar(200);not null"`
	ChargeType  property.ChargeType      `gorm:"type:varchar(30);not null"`
	Amount      decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Frequency   property.ChargeFrequency `gorm:"type:varchar(20);not null;default:'monthly'"`
	IsMandatory bool                     `gorm:"not null;default:false"`
	Active      bool                     `gorm:"not null;index"`
	Description string                   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OtherChargeModel) TableName() string {
	return "other_charges"
}

// ToDomain converts the persistence model to a domain OtherCharge entity.
func (m *OtherChargeModel) ToDomain() *property.OtherCharge {
	return &property.OtherCharge{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		ChargeType:        m.ChargeType,
		Amount:            m.Amount,
		Frequency:         m.Frequency,
		IsMandatory:       m.IsMandatory,
		Active:            m.Active,
		Description:       m.Description,
	}
}

// OtherChargeModelFromDomain creates a new persistence model from a domain OtherCharge entity.
func OtherChargeModelFromDomain(c *property.OtherCharge) *OtherChargeModel {
	m := &OtherChargeModel{
		Name:        c.Name,
		ChargeType:  c.ChargeType,
		Amount:      c.Amount,
		Frequency:   c.Frequency,
		IsMandatory: c.IsMandatory,
		Active:      c.Active,
		Description: c.Description,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
