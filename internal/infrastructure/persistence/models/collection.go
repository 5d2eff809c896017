package models

import (
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionModel is the persistence model for the Collection domain entity.
type CollectionModel struct {
	AggregateModel
	Name             string                   `gorm:"type:varchar(300);not null"`
	ReceiptNumber    string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	TenantID         uuid.UUID                `gorm:"type:uuid;not null;index:idx_collection_tenant_status,priority:1"`
	RoomID           *uuid.UUID               `gorm:"type:uuid"`
	AgreementID      *uuid.UUID               `gorm:"type:uuid;index"`
	RoomNumber       string                   `gorm:"type:varchar(100)"`
	Date             time.Time                `gorm:"type:date;not null;index"`
	Amount           decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Type             collection.Type          `gorm:"type:varchar(30);not null"`
	PaymentMethod    collection.PaymentMethod `gorm:"type:varchar(30);not null;default:'cash'"`
	Status           collection.Status        `gorm:"type:varchar(20);not null;default:'collected';index:idx_collection_tenant_status,priority:2"`
	PeriodFrom       *time.Time               `gorm:"type:date"`
	PeriodTo         *time.Time               `gorm:"type:date"`
	DueDate          *time.Time               `gorm:"type:date"`
	DaysLate         int                      `gorm:"not null;default:0"`
	StatementEntryID *uuid.UUID               `gorm:"type:uuid"`
	PaymentID        *uuid.UUID               `gorm:"type:uuid"`
	Reference        string                   `gorm:"type:varchar(200)"`
	CollectedBy      string                   `gorm:"type:varchar(200)"`
	Notes            string                   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CollectionModel) TableName() string {
	return "collections"
}

// ToDomain converts the persistence model to a domain Collection entity.
func (m *CollectionModel) ToDomain() *collection.Collection {
	return &collection.Collection{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		ReceiptNumber:     m.ReceiptNumber,
		TenantID:          m.TenantID,
		RoomID:            m.RoomID,
		AgreementID:       m.AgreementID,
		RoomNumber:        m.RoomNumber,
		Date:              m.Date.UTC(),
		Amount:            m.Amount,
		Type:              m.Type,
		PaymentMethod:     m.PaymentMethod,
		Status:            m.Status,
		PeriodFrom:        utcDate(m.PeriodFrom),
		PeriodTo:          utcDate(m.PeriodTo),
		DueDate:           utcDate(m.DueDate),
		DaysLate:          m.DaysLate,
		StatementEntryID:  m.StatementEntryID,
		PaymentID:         m.PaymentID,
		Reference:         m.Reference,
		CollectedBy:       m.CollectedBy,
		Notes:             m.Notes,
	}
}

// CollectionModelFromDomain creates a new persistence model from a domain Collection entity.
func CollectionModelFromDomain(c *collection.Collection) *CollectionModel {
	m := &CollectionModel{
		Name:             c.Name,
		ReceiptNumber:    c.ReceiptNumber,
		TenantID:         c.TenantID,
		RoomID:           c.RoomID,
		AgreementID:      c.AgreementID,
		RoomNumber:       c.RoomNumber,
		Date:             c.Date,
		Amount:           c.Amount,
		Type:             c.Type,
		PaymentMethod:    c.PaymentMethod,
		Status:           c.Status,
		PeriodFrom:       c.PeriodFrom,
		PeriodTo:         c.PeriodTo,
		DueDate:          c.DueDate,
		DaysLate:         c.DaysLate,
		StatementEntryID: c.StatementEntryID,
		PaymentID:        c.PaymentID,
		Reference:        c.Reference,
		CollectedBy:      c.CollectedBy,
		Notes:            c.Notes,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
