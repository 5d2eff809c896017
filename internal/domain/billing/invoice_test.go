package billing

import (
	"testing"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPostedInvoice(t *testing.T, tenantID uuid.UUID, amount int64) *Invoice {
	t.Helper()
	inv, err := NewInvoice("INV-20250101-00001", InvoiceParams{
		TenantID:     tenantID,
		InvoiceType:  InvoiceTypeRent,
		InvoiceDate:  calendar.Date(2025, 1, 1),
		PaymentTerms: 30,
		Amount:       decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	require.NoError(t, inv.Post())
	return inv
}

// ============ Invoice Tests ============

func TestNewInvoice(t *testing.T) {
	t.Run("defaults due date from payment terms", func(t *testing.T) {
		inv := createPostedInvoice(t, uuid.New(), 1000)
		assert.Equal(t, calendar.Date(2025, 1, 31), inv.DueDate)
		assert.Equal(t, MoveTypeOutInvoice, inv.MoveType)
		assert.True(t, inv.AmountResidual.Equal(inv.AmountTotal))
		assert.Equal(t, PaymentStateNotPaid, inv.PaymentState)
		assert.Len(t, inv.PendingEvents(), 1)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name   string
			number string
			params InvoiceParams
		}{
			{"empty number", "", InvoiceParams{TenantID: uuid.New(), Amount: decimal.NewFromInt(1), InvoiceDate: calendar.Date(2025, 1, 1)}},
			{"no tenant", "INV-1", InvoiceParams{Amount: decimal.NewFromInt(1), InvoiceDate: calendar.Date(2025, 1, 1)}},
			{"zero amount", "INV-1", InvoiceParams{TenantID: uuid.New(), InvoiceDate: calendar.Date(2025, 1, 1)}},
			{"bad type", "INV-1", InvoiceParams{TenantID: uuid.New(), InvoiceType: "bogus", Amount: decimal.NewFromInt(1), InvoiceDate: calendar.Date(2025, 1, 1)}},
			{"no date", "INV-1", InvoiceParams{TenantID: uuid.New(), Amount: decimal.NewFromInt(1)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewInvoice(tt.number, tt.params)
				assert.Error(t, err)
			})
		}
	})
}

func TestInvoice_PaymentLifecycle(t *testing.T) {
	inv := createPostedInvoice(t, uuid.New(), 1000)

	require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(400)))
	assert.Equal(t, PaymentStatePartial, inv.PaymentState)
	assert.True(t, inv.PaidAmount().Equal(decimal.NewFromInt(400)))

	err := inv.ApplyPayment(decimal.NewFromInt(700))
	assert.Error(t, err)

	require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(600)))
	assert.Equal(t, PaymentStatePaid, inv.PaymentState)
	assert.False(t, inv.IsOpen())

	require.NoError(t, inv.ReversePayment(decimal.NewFromInt(600)))
	assert.Equal(t, PaymentStatePartial, inv.PaymentState)
	require.NoError(t, inv.ReversePayment(decimal.NewFromInt(400)))
	assert.Equal(t, PaymentStateNotPaid, inv.PaymentState)

	assert.Error(t, inv.ReversePayment(decimal.NewFromInt(1)))
}

func TestInvoice_Cancel(t *testing.T) {
	inv := createPostedInvoice(t, uuid.New(), 500)
	require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(100)))
	assert.Error(t, inv.Cancel(), "paid invoices cannot be cancelled")

	require.NoError(t, inv.ReversePayment(decimal.NewFromInt(100)))
	require.NoError(t, inv.Cancel())
	assert.Equal(t, InvoiceStateCancelled, inv.State)
	assert.Error(t, inv.ApplyPayment(decimal.NewFromInt(1)))
}

func TestInvoice_IsOverdue(t *testing.T) {
	inv := createPostedInvoice(t, uuid.New(), 500)
	assert.False(t, inv.IsOverdue(calendar.Date(2025, 1, 31)))
	assert.True(t, inv.IsOverdue(calendar.Date(2025, 2, 1)))
}

// ============ Payment Tests ============

func TestJournalFor(t *testing.T) {
	assert.Equal(t, JournalCash, JournalFor(collection.MethodCash))
	assert.Equal(t, JournalBank, JournalFor(collection.MethodBankTransfer))
	assert.Equal(t, JournalBank, JournalFor(collection.MethodCheque))
	assert.Equal(t, JournalBank, JournalFor(collection.MethodOnline))
	assert.Equal(t, JournalBank, JournalFor(collection.MethodCard))
}

func TestPayment_AllocateAndCancel(t *testing.T) {
	tenantID := uuid.New()
	inv := createPostedInvoice(t, tenantID, 1000)

	p, err := NewPayment("PAY-20250105-00001", tenantID, decimal.NewFromInt(600), calendar.Date(2025, 1, 5), JournalBank)
	require.NoError(t, err)

	assert.Error(t, p.Allocate(inv, decimal.NewFromInt(100)), "draft payments cannot be allocated")
	require.NoError(t, p.Post())
	require.NoError(t, p.Allocate(inv, decimal.NewFromInt(600)))
	assert.True(t, p.Unallocated().IsZero())
	assert.True(t, inv.AmountResidual.Equal(decimal.NewFromInt(400)))
	assert.Error(t, p.Allocate(inv, decimal.NewFromInt(1)))

	reversed, err := p.Cancel()
	require.NoError(t, err)
	require.Len(t, reversed, 1)
	assert.Equal(t, inv.ID, reversed[0].InvoiceID)
	assert.Equal(t, PaymentStatusCancelled, p.Status)
	assert.Empty(t, p.Allocations)

	_, err = p.Cancel()
	assert.Error(t, err)
}

func TestPayment_AllocateRejectsOtherTenant(t *testing.T) {
	inv := createPostedInvoice(t, uuid.New(), 1000)
	p, err := NewPayment("PAY-1", uuid.New(), decimal.NewFromInt(100), calendar.Date(2025, 1, 5), "")
	require.NoError(t, err)
	assert.Equal(t, JournalCash, p.Journal)
	require.NoError(t, p.Post())
	assert.Error(t, p.Allocate(inv, decimal.NewFromInt(100)))
}
