package models

import (
	"time"

	"github.com/erp/rental/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementEntryModel is the persistence model for a tenant statement entry.
// Entries are ordered by (transaction_date, sequence, id).
type StatementEntryModel struct {
	BaseModel
	Sequence        int64                  `gorm:"not null;index"`
	TenantID        uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_statement_tenant_reference,priority:1;index:idx_statement_tenant_date,priority:1"`
	TransactionDate time.Time              `gorm:"type:date;not null;index:idx_statement_tenant_date,priority:2"`
	Reference       string                 `gorm:"type:varchar(200);not null;uniqueIndex:idx_statement_tenant_reference,priority:2"`
	Description     string                 `gorm:"type:text"`
	Type            ledger.TransactionType `gorm:"type:varchar(30);not null;index"`
	Debit           decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Credit          decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	RunningBalance  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	RoomID          *uuid.UUID             `gorm:"type:uuid"`
	AgreementID     *uuid.UUID             `gorm:"type:uuid;index"`
	CollectionID    *uuid.UUID             `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (StatementEntryModel) TableName() string {
	return "tenant_statements"
}

// ToDomain converts the persistence model to a domain StatementEntry.
func (m *StatementEntryModel) ToDomain() *ledger.StatementEntry {
	return &ledger.StatementEntry{
		BaseEntity:      m.BaseModel.ToDomain(),
		Sequence:        m.Sequence,
		TenantID:        m.TenantID,
		TransactionDate: m.TransactionDate.UTC(),
		Reference:       m.Reference,
		Description:     m.Description,
		Type:            m.Type,
		Debit:           m.Debit,
		Credit:          m.Credit,
		RunningBalance:  m.RunningBalance,
		RoomID:          m.RoomID,
		AgreementID:     m.AgreementID,
		CollectionID:    m.CollectionID,
	}
}

// StatementEntryModelFromDomain creates a new persistence model from a domain StatementEntry.
func StatementEntryModelFromDomain(e *ledger.StatementEntry) *StatementEntryModel {
	m := &StatementEntryModel{
		Sequence:        e.Sequence,
		TenantID:        e.TenantID,
		TransactionDate: e.TransactionDate,
		Reference:       e.Reference,
		Description:     e.Description,
		Type:            e.Type,
		Debit:           e.Debit,
		Credit:          e.Credit,
		RunningBalance:  e.RunningBalance,
		RoomID:          e.RoomID,
		AgreementID:     e.AgreementID,
		CollectionID:    e.CollectionID,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
