package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = calendar.Date(2025, time.March, 10)

type recordingMetrics struct {
	matched   []string
	unmatched int
	jobs      []string
}

func (m *recordingMetrics) ReconciliationMatched(_ context.Context, matcher string) {
	m.matched = append(m.matched, matcher)
}

func (m *recordingMetrics) ReconciliationUnmatched(context.Context) { m.unmatched++ }

func (m *recordingMetrics) JobCompleted(_ context.Context, r *shared.BatchResult, _ time.Duration) {
	m.jobs = append(m.jobs, r.Job)
}

type testEnv struct {
	svc        *InvoiceService
	reconciler *Reconciler
	invoices   *persistence.GormInvoiceRepository
	payments   *persistence.GormPaymentRepository
	agreements *persistence.GormAgreementRepository
	metrics    *recordingMetrics
	agreement  *agreement.Agreement
	seq        int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := persistence.NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		invoices:   persistence.NewGormInvoiceRepository(db.DB),
		payments:   persistence.NewGormPaymentRepository(db.DB),
		agreements: persistence.NewGormAgreementRepository(db.DB),
		metrics:    &recordingMetrics{},
	}
	tx := persistence.NewGormTransactor(db.DB)
	numbers := persistence.NewGormNumberGenerator(db.DB)
	env.reconciler = NewReconciler(env.invoices, env.payments, numbers, tx, WithReconcilerMetrics(env.metrics))
	env.svc = NewInvoiceService(InvoiceServiceConfig{
		InvoiceRepo:     env.invoices,
		PaymentRepo:     env.payments,
		NumberGenerator: numbers,
		AgreementRepo:   env.agreements,
		Reconciler:      env.reconciler,
		Transactor:      tx,
		Clock:           func() time.Time { return testToday },
		Metrics:         env.metrics,
	})
	env.agreement = env.saveAgreement(t, uuid.New(), true)
	return env
}

func (env *testEnv) saveAgreement(t *testing.T, tenantID uuid.UUID, autoPost bool) *agreement.Agreement {
	t.Helper()
	env.seq++
	a, err := agreement.NewAgreement(fmt.Sprintf("AGR-20250101-%05d", env.seq), agreement.Terms{
		TenantID:         tenantID,
		RoomID:           uuid.New(),
		StartDate:        calendar.Date(2025, time.January, 1),
		EndDate:          calendar.Date(2025, time.December, 31),
		RentAmount:       decimal.NewFromInt(1000),
		DepositAmount:    decimal.NewFromInt(500),
		PaymentTerms:     10,
		AutoPostInvoices: &autoPost,
	})
	require.NoError(t, err)
	require.NoError(t, a.Activate(calendar.Date(2025, time.January, 1)))
	require.NoError(t, env.agreements.Save(context.Background(), a))
	return a
}

func (env *testEnv) rentInvoice(t *testing.T, month time.Month, amount int64) *InvoiceResponse {
	t.Helper()
	from := calendar.Date(2025, month, 1)
	to := calendar.MonthEnd(from)
	agreementID := env.agreement.ID
	resp, err := env.svc.Create(context.Background(), CreateInvoiceRequest{
		TenantID:    env.agreement.TenantID,
		AgreementID: &agreementID,
		InvoiceType: "rent",
		InvoiceDate: from,
		PeriodFrom:  &from,
		PeriodTo:    &to,
		Amount:      decimal.NewFromInt(amount),
		Post:        true,
	})
	require.NoError(t, err)
	return resp
}

// ============ Invoice Tests ============

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("draft inherits agreement terms", func(t *testing.T) {
		agreementID := env.agreement.ID
		resp, err := env.svc.Create(ctx, CreateInvoiceRequest{
			TenantID:    env.agreement.TenantID,
			AgreementID: &agreementID,
			InvoiceType: "deposit",
			InvoiceDate: calendar.Date(2025, time.January, 1),
			Amount:      decimal.NewFromInt(500),
		})
		require.NoError(t, err)
		assert.Equal(t, "INV-20250101-00001", resp.Number)
		assert.Equal(t, "draft", resp.State)
		assert.Equal(t, "out_invoice", resp.MoveType)
		assert.Equal(t, calendar.Date(2025, time.January, 11), resp.DueDate)
		require.NotNil(t, resp.RoomID)
		assert.Equal(t, env.agreement.RoomID, *resp.RoomID)

		posted, err := env.svc.Post(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "posted", posted.State)

		_, err = env.svc.Post(ctx, resp.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("agreement of another tenant", func(t *testing.T) {
		agreementID := env.agreement.ID
		_, err := env.svc.Create(ctx, CreateInvoiceRequest{
			TenantID:    uuid.New(),
			AgreementID: &agreementID,
			InvoiceDate: testToday,
			Amount:      decimal.NewFromInt(10),
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "TENANT_MISMATCH", de.Code)
	})
}

func TestInvoiceService_RegisterPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	inv := env.rentInvoice(t, time.January, 1000)

	payment, err := env.svc.RegisterPayment(ctx, inv.ID, RegisterPaymentRequest{Amount: decimal.NewFromInt(400), Journal: "bank"})
	require.NoError(t, err)
	assert.Equal(t, "posted", payment.Status)
	assert.Equal(t, "bank", payment.Journal)
	assert.Equal(t, testToday, payment.Date)
	require.Len(t, payment.Allocations, 1)

	got, err := env.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "partial", got.PaymentState)
	assert.True(t, got.AmountResidual.Equal(decimal.NewFromInt(600)))

	t.Run("cannot exceed residual", func(t *testing.T) {
		_, err := env.svc.RegisterPayment(ctx, inv.ID, RegisterPaymentRequest{Amount: decimal.NewFromInt(700)})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "EXCEEDS_OUTSTANDING", de.Code)
	})

	t.Run("paid invoice cannot be cancelled", func(t *testing.T) {
		_, err := env.svc.Cancel(ctx, inv.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("cancel payment restores residual", func(t *testing.T) {
		cancelled, err := env.svc.CancelPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.Empty(t, cancelled.Allocations)

		got, err := env.svc.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "not_paid", got.PaymentState)
		assert.True(t, got.AmountResidual.Equal(decimal.NewFromInt(1000)))

		cancelledInv, err := env.svc.Cancel(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelledInv.State)
	})

	t.Run("list by tenant", func(t *testing.T) {
		payments, err := env.svc.ListPayments(ctx, env.agreement.TenantID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	})
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.rentInvoice(t, time.January, 1000)
	env.rentInvoice(t, time.February, 1000)

	tenantID := env.agreement.TenantID
	page, err := env.svc.List(ctx, InvoiceListFilter{TenantID: &tenantID, PaymentState: "not_paid"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
}

// ============ Monthly Invoice Job Tests ============

func TestInvoiceService_GenerateMonthlyInvoices(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draftOnly := env.saveAgreement(t, uuid.New(), false)

	result, err := env.svc.GenerateMonthlyInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{JobGenerateMonthlyInvoices}, env.metrics.jobs)

	posted := billing.InvoiceStatePosted
	agreementID := env.agreement.ID
	invoices, _, err := env.invoices.FindAll(ctx, billing.InvoiceFilter{
		Filter:      shared.Filter{Page: 1, PageSize: 10},
		AgreementID: &agreementID,
		State:       &posted,
	})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, calendar.Date(2025, time.March, 1), *invoices[0].PeriodFrom)
	assert.Equal(t, calendar.Date(2025, time.March, 20), invoices[0].DueDate)

	draftID := draftOnly.ID
	drafts, _, err := env.invoices.FindAll(ctx, billing.InvoiceFilter{
		Filter:      shared.Filter{Page: 1, PageSize: 10},
		AgreementID: &draftID,
	})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, billing.InvoiceStateDraft, drafts[0].State)

	t.Run("second run skips invoiced agreements", func(t *testing.T) {
		again, err := env.svc.GenerateMonthlyInvoices(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Processed)
		assert.Equal(t, 0, again.Created)
		assert.Equal(t, 2, again.Skipped)
	})
}
