package finance

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseFilter narrows expense listings
type ExpenseFilter struct {
	shared.Filter
	PropertyID *uuid.UUID
	Category   *ExpenseCategory
	From       *time.Time
	To         *time.Time
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindAll(ctx context.Context, filter ExpenseFilter) ([]Expense, int64, error)
	// SumBetween totals recorded expenses dated within [from, to]
	SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	Save(ctx context.Context, e *Expense) error
}
