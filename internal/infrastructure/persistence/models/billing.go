package models

import (
	"time"

	"github.com/erp/rental/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	Number         string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_invoice_tenant_state,priority:1"`
	AgreementID    *uuid.UUID           `gorm:"type:uuid;index"`
	RoomID         *uuid.UUID           `gorm:"type:uuid"`
	MoveType       billing.MoveType     `gorm:"type:varchar(20);not null;default:'out_invoice'"`
	InvoiceType    billing.InvoiceType  `gorm:"type:varchar(30);not null;default:'rent'"`
	InvoiceDate    time.Time            `gorm:"type:date;not null;index"`
	DueDate        time.Time            `gorm:"type:date;not null"`
	PeriodFrom     *time.Time           `gorm:"type:date"`
	PeriodTo       *time.Time           `gorm:"type:date"`
	AmountTotal    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AmountResidual decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	State          billing.InvoiceState `gorm:"type:varchar(20);not null;default:'draft';index:idx_invoice_tenant_state,priority:2"`
	PaymentState   billing.PaymentState `gorm:"type:varchar(20);not null;default:'not_paid'"`
	Description    string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		TenantID:          m.TenantID,
		AgreementID:       m.AgreementID,
		RoomID:            m.RoomID,
		MoveType:          m.MoveType,
		InvoiceType:       m.InvoiceType,
		InvoiceDate:       m.InvoiceDate.UTC(),
		DueDate:           m.DueDate.UTC(),
		PeriodFrom:        utcDate(m.PeriodFrom),
		PeriodTo:          utcDate(m.PeriodTo),
		AmountTotal:       m.AmountTotal,
		AmountResidual:    m.AmountResidual,
		State:             m.State,
		PaymentState:      m.PaymentState,
		Description:       m.Description,
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:         inv.Number,
		TenantID:       inv.TenantID,
		AgreementID:    inv.AgreementID,
		RoomID:         inv.RoomID,
		MoveType:       inv.MoveType,
		InvoiceType:    inv.InvoiceType,
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		PeriodFrom:     inv.PeriodFrom,
		PeriodTo:       inv.PeriodTo,
		AmountTotal:    inv.AmountTotal,
		AmountResidual: inv.AmountResidual,
		State:          inv.State,
		PaymentState:   inv.PaymentState,
		Description:    inv.Description,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	Number       string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	TenantID     uuid.UUID                `gorm:"type:uuid;not null;index"`
	CollectionID *uuid.UUID               `gorm:"type:uuid;uniqueIndex"`
	Journal      billing.Journal          `gorm:"type:varchar(20);not null;default:'cash'"`
	Amount       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Date         time.Time                `gorm:"type:date;not null"`
	Status       billing.PaymentStatus    `gorm:"type:varchar(20);not null;default:'draft'"`
	Reference    string                   `gorm:"type:varchar(200)"`
	Allocations  []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		TenantID:          m.TenantID,
		CollectionID:      m.CollectionID,
		Journal:           m.Journal,
		Amount:            m.Amount,
		Date:              m.Date.UTC(),
		Status:            m.Status,
		Reference:         m.Reference,
		Allocations:       make([]billing.Allocation, len(m.Allocations)),
	}
	for i := range m.Allocations {
		p.Allocations[i] = m.Allocations[i].ToDomain()
	}
	return p
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment entity.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		Number:       p.Number,
		TenantID:     p.TenantID,
		CollectionID: p.CollectionID,
		Journal:      p.Journal,
		Amount:       p.Amount,
		Date:         p.Date,
		Status:       p.Status,
		Reference:    p.Reference,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Allocations = make([]PaymentAllocationModel, len(p.Allocations))
	for i, a := range p.Allocations {
		m.Allocations[i] = PaymentAllocationModelFromDomain(p.ID, a)
	}
	return m
}

// PaymentAllocationModel links part of a payment to an invoice.
type PaymentAllocationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNumber string          `gorm:"type:varchar(50)"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the allocation row to its domain value.
func (m *PaymentAllocationModel) ToDomain() billing.Allocation {
	return billing.Allocation{
		ID:            m.ID,
		InvoiceID:     m.InvoiceID,
		InvoiceNumber: m.InvoiceNumber,
		Amount:        m.Amount,
	}
}

// PaymentAllocationModelFromDomain creates an allocation row for a payment.
func PaymentAllocationModelFromDomain(paymentID uuid.UUID, a billing.Allocation) PaymentAllocationModel {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return PaymentAllocationModel{
		ID:            id,
		PaymentID:     paymentID,
		InvoiceID:     a.InvoiceID,
		InvoiceNumber: a.InvoiceNumber,
		Amount:        a.Amount,
	}
}
