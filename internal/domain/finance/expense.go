// Package finance records operating expenses of the properties. Dashboards
// net them against collections to report profit.
package finance

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory is what the money was spent on
type ExpenseCategory string

const (
	ExpenseCategoryMaintenance ExpenseCategory = "maintenance"
	ExpenseCategoryUtilities   ExpenseCategory = "utilities"
	ExpenseCategorySalary      ExpenseCategory = "salary"
	ExpenseCategoryCleaning    ExpenseCategory = "cleaning"
	ExpenseCategoryInsurance   ExpenseCategory = "insurance"
	ExpenseCategoryTax         ExpenseCategory = "tax"
	ExpenseCategoryCommission  ExpenseCategory = "commission"
	ExpenseCategoryOther       ExpenseCategory = "other"
)

// IsValid checks if the category is known
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryMaintenance, ExpenseCategoryUtilities, ExpenseCategorySalary,
		ExpenseCategoryCleaning, ExpenseCategoryInsurance, ExpenseCategoryTax,
		ExpenseCategoryCommission, ExpenseCategoryOther:
		return true
	}
	return false
}

// ExpenseStatus is the state of an expense
type ExpenseStatus string

const (
	ExpenseStatusRecorded  ExpenseStatus = "recorded"
	ExpenseStatusCancelled ExpenseStatus = "cancelled"
)

// Expense is money spent on running a property
type Expense struct {
	shared.BaseAggregateRoot
	Date        time.Time
	Amount      decimal.Decimal
	Category    ExpenseCategory
	PropertyID  *uuid.UUID
	Description string
	Status      ExpenseStatus
	CancelledAt *time.Time
}

// NewExpense records an expense
func NewExpense(date time.Time, amount decimal.Decimal, category ExpenseCategory, propertyID *uuid.UUID, description string) (*Expense, error) {
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Expense date is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if category == "" {
		category = ExpenseCategoryOther
	}
	if !category.IsValid() {
		return nil, shared.Errorf("INVALID_CATEGORY", "Unknown expense category %s", category)
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}

	e := &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Date:              calendar.DateOf(date),
		Amount:            amount,
		Category:          category,
		PropertyID:        propertyID,
		Description:       strings.TrimSpace(description),
		Status:            ExpenseStatusRecorded,
	}
	e.AddDomainEvent(NewExpenseRecordedEvent(e))
	return e, nil
}

// Cancel voids the expense so it no longer counts
func (e *Expense) Cancel() error {
	if e.Status == ExpenseStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Expense is already cancelled")
	}
	now := time.Now()
	e.Status = ExpenseStatusCancelled
	e.CancelledAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	return nil
}
