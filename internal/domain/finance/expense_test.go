package finance

import (
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpense(t *testing.T) {
	t.Run("valid expense", func(t *testing.T) {
		e, err := NewExpense(calendar.Date(2025, 3, 4), decimal.NewFromInt(250), ExpenseCategoryMaintenance, nil, "  fix lift ")
		require.NoError(t, err)
		assert.Equal(t, ExpenseStatusRecorded, e.Status)
		assert.Equal(t, "fix lift", e.Description)
		assert.Len(t, e.PendingEvents(), 1)
	})

	t.Run("defaults category", func(t *testing.T) {
		e, err := NewExpense(calendar.Date(2025, 3, 4), decimal.NewFromInt(1), "", nil, "")
		require.NoError(t, err)
		assert.Equal(t, ExpenseCategoryOther, e.Category)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := NewExpense(calendar.Date(2025, 3, 4), decimal.Zero, ExpenseCategoryTax, nil, "")
		assert.Error(t, err)
		_, err = NewExpense(calendar.Date(2025, 3, 4), decimal.NewFromInt(1), "BOGUS", nil, "")
		assert.Error(t, err)
		_, err = NewExpense(time.Time{}, decimal.NewFromInt(1), "", nil, "")
		assert.Error(t, err)
	})
}

func TestExpense_Cancel(t *testing.T) {
	e, err := NewExpense(calendar.Date(2025, 3, 4), decimal.NewFromInt(10), ExpenseCategoryTax, nil, "")
	require.NoError(t, err)
	require.NoError(t, e.Cancel())
	assert.Equal(t, ExpenseStatusCancelled, e.Status)
	assert.NotNil(t, e.CancelledAt)
	assert.Error(t, e.Cancel())
}
