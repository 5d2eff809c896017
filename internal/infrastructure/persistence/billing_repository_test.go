package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostedInvoice(t *testing.T, number string, tenantID uuid.UUID, agreementID *uuid.UUID, date time.Time, amount int64) *billing.Invoice {
	t.Helper()
	from := calendar.MonthStart(date)
	to := calendar.MonthEnd(date)
	inv, err := billing.NewInvoice(number, billing.InvoiceParams{
		TenantID:    tenantID,
		AgreementID: agreementID,
		InvoiceType: billing.InvoiceTypeRent,
		InvoiceDate: date,
		PeriodFrom:  &from,
		PeriodTo:    &to,
		Amount:      decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	require.NoError(t, inv.Post())
	return inv
}

// ============ Invoice Tests ============

func TestGormInvoiceRepository_FindOpen(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))
	tenantID := uuid.New()
	agreementID := uuid.New()

	march := newPostedInvoice(t, "INV-1", tenantID, &agreementID, calendar.Date(2025, time.March, 1), 1000)
	april := newPostedInvoice(t, "INV-2", tenantID, &agreementID, calendar.Date(2025, time.April, 1), 1000)
	paid := newPostedInvoice(t, "INV-3", tenantID, &agreementID, calendar.Date(2025, time.February, 1), 1000)
	require.NoError(t, paid.ApplyPayment(decimal.NewFromInt(1000)))
	draft, err := billing.NewInvoice("INV-4", billing.InvoiceParams{
		TenantID: tenantID, InvoiceDate: calendar.Date(2025, time.January, 1), Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	for _, inv := range []*billing.Invoice{april, march, paid, draft} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	rent := billing.InvoiceTypeRent
	periodFrom := calendar.Date(2025, time.April, 1)
	periodTo := calendar.Date(2025, time.April, 30)

	tests := []struct {
		name  string
		query billing.InvoiceQuery
		want  []string
	}{
		{"tenant only is oldest first", billing.InvoiceQuery{TenantID: tenantID}, []string{"INV-1", "INV-2"}},
		{"period narrows to april", billing.InvoiceQuery{TenantID: tenantID, InvoiceType: &rent, AgreementID: &agreementID, PeriodFrom: &periodFrom, PeriodTo: &periodTo}, []string{"INV-2"}},
		{"limit applies", billing.InvoiceQuery{TenantID: tenantID, Limit: 1}, []string{"INV-1"}},
		{"other tenant has none", billing.InvoiceQuery{TenantID: uuid.New()}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindOpen(ctx, tt.query)
			require.NoError(t, err)
			numbers := make([]string, len(found))
			for i, inv := range found {
				numbers[i] = inv.Number
			}
			assert.Equal(t, tt.want, numbers)
		})
	}

	exists, err := repo.ExistsForAgreementBetween(ctx, agreementID, billing.InvoiceTypeRent,
		calendar.Date(2025, time.March, 1), calendar.Date(2025, time.March, 31))
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := repo.DeleteByAgreement(ctx, agreementID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

// ============ Payment Tests ============

func TestGormPaymentRepository_Allocations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	invoices := NewGormInvoiceRepository(db)
	payments := NewGormPaymentRepository(db)
	tenantID := uuid.New()
	collectionID := uuid.New()

	first := newPostedInvoice(t, "INV-1", tenantID, nil, calendar.Date(2025, time.March, 1), 600)
	second := newPostedInvoice(t, "INV-2", tenantID, nil, calendar.Date(2025, time.April, 1), 600)

	p, err := billing.NewPayment("PAY-1", tenantID, decimal.NewFromInt(900), calendar.Date(2025, time.April, 5), billing.JournalCash)
	require.NoError(t, err)
	p.CollectionID = &collectionID
	require.NoError(t, p.Post())
	require.NoError(t, p.Allocate(first, decimal.NewFromInt(600)))
	require.NoError(t, p.Allocate(second, decimal.NewFromInt(300)))

	require.NoError(t, invoices.Save(ctx, first))
	require.NoError(t, invoices.Save(ctx, second))
	require.NoError(t, payments.Save(ctx, p))

	found, err := payments.FindByCollection(ctx, collectionID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusPosted, found.Status)
	require.Len(t, found.Allocations, 2)
	assert.True(t, found.Allocated().Equal(decimal.NewFromInt(900)))

	reloaded, err := invoices.FindByIDs(ctx, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	assert.Equal(t, billing.PaymentStatePaid, reloaded[0].PaymentState)
	assert.Equal(t, billing.PaymentStatePartial, reloaded[1].PaymentState)
	assert.True(t, reloaded[1].AmountResidual.Equal(decimal.NewFromInt(300)))

	_, err = found.Cancel()
	require.NoError(t, err)
	require.NoError(t, payments.Save(ctx, found))

	cancelled, err := payments.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.Allocations)

	byTenant, err := payments.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, byTenant, 1)

	deleted, err := payments.DeleteByCollections(ctx, []uuid.UUID{collectionID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = payments.FindByCollection(ctx, collectionID)
	assert.Equal(t, shared.ErrNotFound, err)
}
