package models

import (
	"time"

	"github.com/erp/rental/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for the Expense domain entity.
type ExpenseModel struct {
	AggregateModel
	Date        time.Time               `gorm:"type:date;not null;index"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Category    finance.ExpenseCategory `gorm:"type:varchar(30);not null;default:'other'"`
	PropertyID  *uuid.UUID              `gorm:"type:uuid;index"`
	Description string                  `gorm:"type:text"`
	Status      finance.ExpenseStatus   `gorm:"type:varchar(20);not null;default:'recorded'"`
	CancelledAt *time.Time              `gorm:""`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense entity.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Date:              m.Date.UTC(),
		Amount:            m.Amount,
		Category:          m.Category,
		PropertyID:        m.PropertyID,
		Description:       m.Description,
		Status:            m.Status,
		CancelledAt:       m.CancelledAt,
	}
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense entity.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		PropertyID:  e.PropertyID,
		Description: e.Description,
		Status:      e.Status,
		CancelledAt: e.CancelledAt,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}
