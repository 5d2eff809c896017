package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInvoiceFinder struct {
	mock.Mock
}

func (m *mockInvoiceFinder) FindOpen(ctx context.Context, q InvoiceQuery) ([]Invoice, error) {
	args := m.Called(ctx, q)
	if v := args.Get(0); v != nil {
		return v.([]Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func rentCollection(tenantID uuid.UUID, withPeriod bool) *collection.Collection {
	agreementID := uuid.New()
	c := &collection.Collection{
		TenantID:    tenantID,
		AgreementID: &agreementID,
		Type:        collection.TypeRent,
		Amount:      decimal.NewFromInt(1000),
		Date:        calendar.Date(2025, 3, 5),
		Status:      collection.StatusCollected,
	}
	if withPeriod {
		from, to := calendar.Date(2025, 3, 1), calendar.Date(2025, 3, 31)
		c.PeriodFrom, c.PeriodTo = &from, &to
	}
	return c
}

// ============ Matcher Tests ============

func TestInvoiceTypeForCollection(t *testing.T) {
	tests := []struct {
		in   collection.Type
		want InvoiceType
	}{
		{collection.TypeRent, InvoiceTypeRent},
		{collection.TypeDeposit, InvoiceTypeDeposit},
		{collection.TypeToken, InvoiceTypeDeposit},
		{collection.TypeParkingCharges, InvoiceTypeParking},
		{collection.TypeParkingDeposit, InvoiceTypeParking},
		{collection.TypeMaintenance, InvoiceTypeMaintenance},
		{collection.TypeUtility, InvoiceTypeUtility},
		{collection.TypePenalty, InvoiceTypePenalty},
		{collection.TypeOtherCharges, InvoiceTypeOther},
		{collection.TypeExtra, InvoiceTypeOther},
		{collection.TypeOutstanding, InvoiceTypeOther},
		{collection.TypeOther, InvoiceTypeOther},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, InvoiceTypeForCollection(tt.in))
		})
	}
}

func TestDefaultMatchers(t *testing.T) {
	tenantID := uuid.New()
	matchers := DefaultMatchers()
	require.Len(t, matchers, 3)
	assert.Equal(t, MatcherTypeAgreementPeriod, matchers[0].Name)
	assert.Equal(t, MatcherTypeAgreement, matchers[1].Name)
	assert.Equal(t, MatcherTenantAny, matchers[2].Name)

	t.Run("period matcher needs a periodic collection with a period", func(t *testing.T) {
		_, ok := matchers[0].Build(rentCollection(tenantID, false))
		assert.False(t, ok)

		deposit := rentCollection(tenantID, true)
		deposit.Type = collection.TypeDeposit
		_, ok = matchers[0].Build(deposit)
		assert.False(t, ok)

		c := rentCollection(tenantID, true)
		q, ok := matchers[0].Build(c)
		require.True(t, ok)
		assert.Equal(t, InvoiceTypeRent, *q.InvoiceType)
		assert.Equal(t, c.AgreementID, q.AgreementID)
		assert.Equal(t, c.PeriodFrom, q.PeriodFrom)
		assert.Equal(t, MatchLimit, q.Limit)
	})

	t.Run("type matcher has no period", func(t *testing.T) {
		q, ok := matchers[1].Build(rentCollection(tenantID, true))
		require.True(t, ok)
		assert.Nil(t, q.PeriodFrom)
		assert.NotNil(t, q.InvoiceType)
	})

	t.Run("tenant matcher has no type", func(t *testing.T) {
		q, ok := matchers[2].Build(rentCollection(tenantID, true))
		require.True(t, ok)
		assert.Nil(t, q.InvoiceType)
		assert.Nil(t, q.AgreementID)
		assert.Equal(t, tenantID, q.TenantID)
	})
}

func TestMatchInvoices(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	inv := createPostedInvoice(t, tenantID, 1000)

	t.Run("stops at first non-empty matcher", func(t *testing.T) {
		finder := new(mockInvoiceFinder)
		finder.On("FindOpen", ctx, mock.MatchedBy(func(q InvoiceQuery) bool { return q.PeriodFrom != nil })).
			Return([]Invoice{}, nil).Once()
		finder.On("FindOpen", ctx, mock.MatchedBy(func(q InvoiceQuery) bool { return q.PeriodFrom == nil && q.InvoiceType != nil })).
			Return([]Invoice{*inv}, nil).Once()

		res, err := MatchInvoices(ctx, finder, rentCollection(tenantID, true), DefaultMatchers())
		require.NoError(t, err)
		assert.True(t, res.Matched())
		assert.Equal(t, MatcherTypeAgreement, res.Matcher)
		finder.AssertNumberOfCalls(t, "FindOpen", 2)
	})

	t.Run("no match", func(t *testing.T) {
		finder := new(mockInvoiceFinder)
		finder.On("FindOpen", ctx, mock.Anything).Return([]Invoice{}, nil)

		res, err := MatchInvoices(ctx, finder, rentCollection(tenantID, false), DefaultMatchers())
		require.NoError(t, err)
		assert.False(t, res.Matched())
		finder.AssertNumberOfCalls(t, "FindOpen", 2)
	})

	t.Run("finder error", func(t *testing.T) {
		finder := new(mockInvoiceFinder)
		finder.On("FindOpen", ctx, mock.Anything).Return(nil, errors.New("db down"))

		_, err := MatchInvoices(ctx, finder, rentCollection(tenantID, false), DefaultMatchers())
		assert.Error(t, err)
	})
}

// ============ FIFO Allocation Tests ============

func TestFIFOAllocator(t *testing.T) {
	allocator := NewFIFOAllocator()
	now := time.Now()
	older := AllocationTarget{ID: uuid.New(), Number: "INV-1", OutstandingAmount: decimal.NewFromInt(300), InvoiceDate: calendar.Date(2025, 1, 1), CreatedAt: now}
	newer := AllocationTarget{ID: uuid.New(), Number: "INV-2", OutstandingAmount: decimal.NewFromInt(500), InvoiceDate: calendar.Date(2025, 2, 1), CreatedAt: now}
	sameDayLater := AllocationTarget{ID: uuid.New(), Number: "INV-3", OutstandingAmount: decimal.NewFromInt(200), InvoiceDate: calendar.Date(2025, 2, 1), CreatedAt: now.Add(time.Minute)}

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := allocator.Allocate(decimal.Zero, []AllocationTarget{older})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("no targets leaves everything unallocated", func(t *testing.T) {
		res, err := allocator.Allocate(decimal.NewFromInt(100), nil)
		require.NoError(t, err)
		assert.Empty(t, res.Allocations)
		assert.True(t, res.RemainingAmount.Equal(decimal.NewFromInt(100)))
		assert.False(t, res.FullyReconciled)
	})

	t.Run("oldest first and partial last", func(t *testing.T) {
		res, err := allocator.Allocate(decimal.NewFromInt(600), []AllocationTarget{sameDayLater, newer, older})
		require.NoError(t, err)
		require.Len(t, res.Allocations, 2)
		assert.Equal(t, older.ID, res.Allocations[0].TargetID)
		assert.True(t, res.Allocations[0].Amount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, newer.ID, res.Allocations[1].TargetID)
		assert.True(t, res.Allocations[1].Amount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, []uuid.UUID{older.ID}, res.TargetsFullyPaid)
		assert.Equal(t, []uuid.UUID{newer.ID}, res.TargetsPartiallyPaid)
		assert.True(t, res.FullyReconciled)
	})

	t.Run("overpayment leaves a remainder", func(t *testing.T) {
		res, err := allocator.Allocate(decimal.NewFromInt(1500), []AllocationTarget{older, newer, sameDayLater})
		require.NoError(t, err)
		assert.Len(t, res.Allocations, 3)
		assert.Equal(t, sameDayLater.ID, res.Allocations[2].TargetID)
		assert.True(t, res.TotalAllocated.Equal(decimal.NewFromInt(1000)))
		assert.True(t, res.RemainingAmount.Equal(decimal.NewFromInt(500)))
		assert.False(t, res.FullyReconciled)
	})
}

func TestTargetsFromInvoices(t *testing.T) {
	tenantID := uuid.New()
	open := createPostedInvoice(t, tenantID, 100)
	draft, err := NewInvoice("INV-2", InvoiceParams{TenantID: tenantID, Amount: decimal.NewFromInt(50), InvoiceDate: calendar.Date(2025, 1, 1)})
	require.NoError(t, err)

	targets := TargetsFromInvoices([]Invoice{*open, *draft})
	require.Len(t, targets, 1)
	assert.Equal(t, open.ID, targets[0].ID)
	assert.True(t, targets[0].OutstandingAmount.Equal(decimal.NewFromInt(100)))
}
