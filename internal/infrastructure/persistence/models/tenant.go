package models

import (
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantModel is the persistence model for the Tenant domain entity.
type TenantModel struct {
	AggregateModel
	Name               string        `gorm:"type:varchar(200);not null;index"`
	Mobile             string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	Email              string        `gorm:"type:varchar(200)"`
	IDPassport         *string       `gorm:"type:varchar(100);uniqueIndex"`
	Nationality        string        `gorm:"type:varchar(100)"`
	Status             tenant.Status `gorm:"type:varchar(20);not null;default:'prospect';index"`
	CurrentRoomID      *uuid.UUID    `gorm:"type:uuid"`
	CurrentAgreementID *uuid.UUID    `gorm:"type:uuid"`
	Notes              string        `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *tenant.Tenant {
	return &tenant.Tenant{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Name:               m.Name,
		Mobile:             m.Mobile,
		Email:              m.Email,
		IDPassport:         derefString(m.IDPassport),
		Nationality:        m.Nationality,
		Status:             m.Status,
		CurrentRoomID:      m.CurrentRoomID,
		CurrentAgreementID: m.CurrentAgreementID,
		Notes:              m.Notes,
	}
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	m := &TenantModel{
		Name:               t.Name,
		Mobile:             t.Mobile,
		Email:              t.Email,
		IDPassport:         nullableString(t.IDPassport),
		Nationality:        t.Nationality,
		Status:             t.Status,
		CurrentRoomID:      t.CurrentRoomID,
		CurrentAgreementID: t.CurrentAgreementID,
		Notes:              t.Notes,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// OccupantModel is the persistence model for the Occupant entity.
type OccupantModel struct {
	BaseModel
	AgreementID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	IDPassport  *string   `gorm:"type:varchar(100);uniqueIndex"`
	Relation    string    `gorm:"type:varchar(50)"`
	IsPrimary   bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (OccupantModel) TableName() string {
	return "occupants"
}

// ToDomain converts the persistence model to a domain Occupant entity.
func (m *OccupantModel) ToDomain() *tenant.Occupant {
	return &tenant.Occupant{
		BaseEntity:  m.BaseModel.ToDomain(),
		AgreementID: m.AgreementID,
		Name:        m.Name,
		IDPassport:  derefString(m.IDPassport),
		Relation:    m.Relation,
		IsPrimary:   m.IsPrimary,
	}
}

// OccupantModelFromDomain creates a new persistence model from a domain Occupant entity.
func OccupantModelFromDomain(o *tenant.Occupant) *OccupantModel {
	m := &OccupantModel{
		AgreementID: o.AgreementID,
		Name:        o.Name,
		IDPassport:  nullableString(o.IDPassport),
		Relation:    o.Relation,
		IsPrimary:   o.IsPrimary,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}

// AgentModel is the persistence model for the Agent domain entity.
type AgentModel struct {
	AggregateModel
	Name           string          `gorm:"type:varchar(200);not null"`
	Phone          string          `gorm:"type:varchar(50)"`
	Email          string          `gorm:"type:varchar(200)"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Active         bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AgentModel) TableName() string {
	return "agents"
}

// ToDomain converts the persistence model to a domain Agent entity.
func (m *AgentModel) ToDomain() *tenant.Agent {
	return &tenant.Agent{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Phone:             m.Phone,
		Email:             m.Email,
		CommissionRate:    m.CommissionRate,
		Active:            m.Active,
	}
}

// AgentModelFromDomain creates a new persistence model from a domain Agent entity.
func AgentModelFromDomain(a *tenant.Agent) *AgentModel {
	m := &AgentModel{
		Name:           a.Name,
		Phone:          a.Phone,
		Email:          a.Email,
		CommissionRate: a.CommissionRate,
		Active:         a.Active,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
