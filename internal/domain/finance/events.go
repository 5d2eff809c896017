package finance

import (
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseRecordedEvent is raised when a new expense is recorded
type ExpenseRecordedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID       `json:"expense_id"`
	Category  ExpenseCategory `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
}

// NewExpenseRecordedEvent creates a new ExpenseRecordedEvent
func NewExpenseRecordedEvent(e *Expense) *ExpenseRecordedEvent {
	return &ExpenseRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ExpenseRecorded", "Expense", e.ID),
		ExpenseID:       e.ID,
		Category:        e.Category,
		Amount:          e.Amount,
		Date:            e.Date,
	}
}
