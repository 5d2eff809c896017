package models

import (
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/property"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgreementModel is the persistence model for the Agreement aggregate root.
type AgreementModel struct {
	AggregateModel
	Number                 string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	TenantID               uuid.UUID              `gorm:"type:uuid;not null;index"`
	RoomID                 uuid.UUID              `gorm:"type:uuid;not null;index:idx_agreement_room_dates,priority:1"`
	AgentID                *uuid.UUID             `gorm:"type:uuid;index"`
	StartDate              time.Time              `gorm:"type:date;not null;index:idx_agreement_room_dates,priority:2"`
	EndDate                time.Time              `gorm:"type:date;not null;index:idx_agreement_room_dates,priority:3"`
	RentAmount             decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	DepositAmount          decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	ParkingCharges         decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	OpeningBalance         decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	OpeningBalanceRecorded bool                   `gorm:"not null;default:false"`
	PaymentDay             int                    `gorm:"not null;default:1"`
	PaymentTerms           int                    `gorm:"not null;default:30"`
	AutoGenerateInvoices   bool                   `gorm:"not null"`
	AutoPostInvoices       bool                   `gorm:"not null;default:false"`
	InvoiceDay             int                    `gorm:"not null;default:1"`
	AdvanceInvoiceDays     int                    `gorm:"not null;default:5"`
	State                  agreement.State        `gorm:"type:varchar(20);not null;default:'draft';index"`
	ActivatedAt            *time.Time             `gorm:""`
	TerminatedAt           *time.Time             `gorm:""`
	TerminationReason      string                 `gorm:"type:text"`
	Notes                  string                 `gorm:"type:text"`
	Charges                []AgreementChargeModel `gorm:"foreignKey:AgreementID;references:ID"`
}

// TableName returns the table name for GORM
func (AgreementModel) TableName() string {
	return "agreements"
}

// ToDomain converts the persistence model to a domain Agreement entity.
func (m *AgreementModel) ToDomain() *agreement.Agreement {
	a := &agreement.Agreement{
		BaseAggregateRoot:      m.ToDomainAggregateRoot(),
		Number:                 m.Number,
		TenantID:               m.TenantID,
		RoomID:                 m.RoomID,
		AgentID:                m.AgentID,
		StartDate:              m.StartDate.UTC(),
		EndDate:                m.EndDate.UTC(),
		RentAmount:             m.RentAmount,
		DepositAmount:          m.DepositAmount,
		ParkingCharges:         m.ParkingCharges,
		OpeningBalance:         m.OpeningBalance,
		OpeningBalanceRecorded: m.OpeningBalanceRecorded,
		PaymentDay:             m.PaymentDay,
		PaymentTerms:           m.PaymentTerms,
		AutoGenerateInvoices:   m.AutoGenerateInvoices,
		AutoPostInvoices:       m.AutoPostInvoices,
		InvoiceDay:             m.InvoiceDay,
		AdvanceInvoiceDays:     m.AdvanceInvoiceDays,
		State:                  m.State,
		ActivatedAt:            m.ActivatedAt,
		TerminatedAt:           m.TerminatedAt,
		TerminationReason:      m.TerminationReason,
		Notes:                  m.Notes,
		Charges:                make([]agreement.Charge, len(m.Charges)),
	}
	for i := range m.Charges {
		a.Charges[i] = m.Charges[i].ToDomain()
	}
	return a
}

// AgreementModelFromDomain creates a new persistence model from a domain Agreement entity.
func AgreementModelFromDomain(a *agreement.Agreement) *AgreementModel {
	m := &AgreementModel{
		Number:                 a.Number,
		TenantID:               a.TenantID,
		RoomID:                 a.RoomID,
		AgentID:                a.AgentID,
		StartDate:              a.StartDate,
		EndDate:                a.EndDate,
		RentAmount:             a.RentAmount,
		DepositAmount:          a.DepositAmount,
		ParkingCharges:         a.ParkingCharges,
		OpeningBalance:         a.OpeningBalance,
		OpeningBalanceRecorded: a.OpeningBalanceRecorded,
		PaymentDay:             a.PaymentDay,
		PaymentTerms:           a.PaymentTerms,
		AutoGenerateInvoices:   a.AutoGenerateInvoices,
		AutoPostInvoices:       a.AutoPostInvoices,
		InvoiceDay:             a.InvoiceDay,
		AdvanceInvoiceDays:     a.AdvanceInvoiceDays,
		State:                  a.State,
		ActivatedAt:            a.ActivatedAt,
		TerminatedAt:           a.TerminatedAt,
		TerminationReason:      a.TerminationReason,
		Notes:                  a.Notes,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Charges = make([]AgreementChargeModel, len(a.Charges))
	for i, c := range a.Charges {
		m.Charges[i] = AgreementChargeModelFromDomain(a.ID, c)
	}
	return m
}

// AgreementChargeModel is an other-charge line attached to an agreement.
type AgreementChargeModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key"`
	AgreementID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	ChargeID     uuid.UUID           `gorm:"type:uuid;not null"`
	Name         string              `gorm:"type:varchar(200);not null"`
	ChargeType   property.ChargeType `gorm:"type:varchar(30);not null"`
	Amount       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	CustomAmount bool                `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AgreementChargeModel) TableName() string {
	return "agreement_charges"
}

// ToDomain converts the charge line to its domain value.
func (m *AgreementChargeModel) ToDomain() agreement.Charge {
	return agreement.Charge{
		ID:           m.ID,
		ChargeID:     m.ChargeID,
		Name:         m.Name,
		ChargeType:   m.ChargeType,
		Amount:       m.Amount,
		CustomAmount: m.CustomAmount,
	}
}

// AgreementChargeModelFromDomain creates a charge line for an agreement.
func AgreementChargeModelFromDomain(agreementID uuid.UUID, c agreement.Charge) AgreementChargeModel {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return AgreementChargeModel{
		ID:           id,
		AgreementID:  agreementID,
		ChargeID:     c.ChargeID,
		Name:         c.Name,
		ChargeType:   c.ChargeType,
		Amount:       c.Amount,
		CustomAmount: c.CustomAmount,
	}
}
