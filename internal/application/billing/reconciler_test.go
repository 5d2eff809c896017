package billing

import (
	"context"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) paidCollection(t *testing.T, typ collection.Type, date time.Time, amount int64) *collection.Collection {
	t.Helper()
	c, err := collection.NewCollection("RCPT-"+date.Format("20060102")+"-00001", collection.Params{
		TenantID:      env.agreement.TenantID,
		TenantName:    "Omar Khalid",
		Date:          date,
		Amount:        decimal.NewFromInt(amount),
		Type:          typ,
		PaymentMethod: collection.MethodBankTransfer,
	}, collection.Placement{Agreement: env.agreement, RoomNumber: "A"})
	require.NoError(t, err)
	return c
}

func (env *testEnv) invoice(t *testing.T, resp *InvoiceResponse) *billing.Invoice {
	t.Helper()
	inv, err := env.invoices.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	return inv
}

// ============ Reconciler Tests ============

func TestReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("period match pays the invoice of that month", func(t *testing.T) {
		env := newTestEnv(t)
		jan := env.rentInvoice(t, time.January, 1000)
		feb := env.rentInvoice(t, time.February, 1000)

		c := env.paidCollection(t, collection.TypeRent, calendar.Date(2025, time.February, 3), 1000)
		payment := env.reconciler.Reconcile(ctx, c)
		require.NotNil(t, payment)

		assert.Equal(t, billing.PaymentStatusPosted, payment.Status)
		assert.Equal(t, billing.JournalBank, payment.Journal)
		require.NotNil(t, c.PaymentID)
		assert.Equal(t, payment.ID, *c.PaymentID)
		assert.Equal(t, []string{billing.MatcherTypeAgreementPeriod}, env.metrics.matched)

		assert.Equal(t, billing.PaymentStatePaid, env.invoice(t, feb).PaymentState)
		assert.Equal(t, billing.PaymentStateNotPaid, env.invoice(t, jan).PaymentState)
	})

	t.Run("falls back to any open invoice oldest first", func(t *testing.T) {
		env := newTestEnv(t)
		jan := env.rentInvoice(t, time.January, 1000)
		feb := env.rentInvoice(t, time.February, 1000)

		c := env.paidCollection(t, collection.TypeDeposit, calendar.Date(2025, time.February, 3), 1500)
		payment := env.reconciler.Reconcile(ctx, c)
		require.NotNil(t, payment)
		assert.Equal(t, []string{billing.MatcherTenantAny}, env.metrics.matched)

		require.Len(t, payment.Allocations, 2)
		assert.Equal(t, jan.ID, payment.Allocations[0].InvoiceID)
		assert.True(t, payment.Allocations[0].Amount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, payment.Allocations[1].Amount.Equal(decimal.NewFromInt(500)))

		assert.Equal(t, billing.PaymentStatePaid, env.invoice(t, jan).PaymentState)
		febInv := env.invoice(t, feb)
		assert.Equal(t, billing.PaymentStatePartial, febInv.PaymentState)
		assert.True(t, febInv.AmountResidual.Equal(decimal.NewFromInt(500)))
	})

	t.Run("no open invoice is not an error", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.paidCollection(t, collection.TypeRent, testToday, 1000)

		assert.Nil(t, env.reconciler.Reconcile(ctx, c))
		assert.Nil(t, c.PaymentID)
		assert.Equal(t, 1, env.metrics.unmatched)
	})

	t.Run("one payment per collection", func(t *testing.T) {
		env := newTestEnv(t)
		env.rentInvoice(t, time.January, 1000)
		env.rentInvoice(t, time.February, 1000)
		c := env.paidCollection(t, collection.TypeRent, calendar.Date(2025, time.January, 3), 400)

		first := env.reconciler.Reconcile(ctx, c)
		require.NotNil(t, first)
		assert.Nil(t, env.reconciler.Reconcile(ctx, c))

		payments, err := env.payments.FindByTenant(ctx, env.agreement.TenantID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	})

	t.Run("draft collections are left alone", func(t *testing.T) {
		env := newTestEnv(t)
		env.rentInvoice(t, time.January, 1000)
		c := env.paidCollection(t, collection.TypeRent, calendar.Date(2025, time.January, 3), 400)
		c.Status = collection.StatusDraft

		assert.Nil(t, env.reconciler.Reconcile(ctx, c))
		assert.Empty(t, env.metrics.matched)
	})
}

func TestReconciler_Reverse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	jan := env.rentInvoice(t, time.January, 1000)
	c := env.paidCollection(t, collection.TypeRent, calendar.Date(2025, time.January, 5), 1000)
	payment := env.reconciler.Reconcile(ctx, c)
	require.NotNil(t, payment)
	require.Equal(t, billing.PaymentStatePaid, env.invoice(t, jan).PaymentState)

	require.NoError(t, env.reconciler.Reverse(ctx, c))
	assert.Nil(t, c.PaymentID)

	inv := env.invoice(t, jan)
	assert.Equal(t, billing.PaymentStateNotPaid, inv.PaymentState)
	assert.True(t, inv.AmountResidual.Equal(decimal.NewFromInt(1000)))

	stored, err := env.payments.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCancelled, stored.Status)
	assert.Empty(t, stored.Allocations)

	t.Run("reversing twice is a no-op", func(t *testing.T) {
		assert.NoError(t, env.reconciler.Reverse(ctx, c))
	})

	t.Run("collection without payment", func(t *testing.T) {
		other := env.paidCollection(t, collection.TypeRent, testToday, 10)
		assert.NoError(t, env.reconciler.Reverse(ctx, other))
	})
}
