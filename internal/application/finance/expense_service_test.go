package finance

import (
	"context"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*ExpenseService, *property.Property) {
	t.Helper()
	db, err := persistence.NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	props := persistence.NewGormPropertyRepository(db.DB)
	p, err := property.NewProperty("TWR", "Tower", property.PropertyTypeBuilding)
	require.NoError(t, err)
	require.NoError(t, props.Save(context.Background(), p))

	return NewExpenseService(persistence.NewGormExpenseRepository(db.DB), props, nil), p
}

// ============ ExpenseService Tests ============

func TestExpenseService_Create(t *testing.T) {
	ctx := context.Background()
	svc, p := newTestService(t)

	tests := []struct {
		name     string
		req      CreateExpenseRequest
		wantCode string
	}{
		{
			name: "against a property",
			req: CreateExpenseRequest{
				Date: calendar.Date(2025, time.March, 3), Amount: decimal.NewFromInt(250),
				Category: "maintenance", PropertyID: &p.ID, Description: "AC repair",
			},
		},
		{
			name: "category defaults to other",
			req:  CreateExpenseRequest{Date: calendar.Date(2025, time.March, 3), Amount: decimal.NewFromInt(10)},
		},
		{
			name:     "unknown property",
			req:      CreateExpenseRequest{Date: calendar.Date(2025, time.March, 3), Amount: decimal.NewFromInt(10), PropertyID: ptr(uuid.New())},
			wantCode: "INVALID_PROPERTY",
		},
		{
			name:     "zero amount",
			req:      CreateExpenseRequest{Date: calendar.Date(2025, time.March, 3)},
			wantCode: "INVALID_AMOUNT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Create(ctx, tt.req)
			if tt.wantCode != "" {
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.wantCode, de.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "recorded", resp.Status)
			assert.NotEmpty(t, resp.Category)

			got, err := svc.GetByID(ctx, resp.ID)
			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(tt.req.Amount))
		})
	}
}

func TestExpenseService_MonthTotalAndCancel(t *testing.T) {
	ctx := context.Background()
	svc, p := newTestService(t)

	record := func(day time.Time, amount int64, category string) *ExpenseResponse {
		resp, err := svc.Create(ctx, CreateExpenseRequest{Date: day, Amount: decimal.NewFromInt(amount), Category: category, PropertyID: &p.ID})
		require.NoError(t, err)
		return resp
	}
	record(calendar.Date(2025, time.March, 1), 100, "utilities")
	cleaning := record(calendar.Date(2025, time.March, 31), 50, "cleaning")
	record(calendar.Date(2025, time.February, 28), 999, "tax")

	total, err := svc.MonthTotal(ctx, calendar.Date(2025, time.March, 15))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(150)), "got %s", total)

	_, err = svc.Cancel(ctx, cleaning.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cleaning.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	total, err = svc.MonthTotal(ctx, calendar.Date(2025, time.March, 15))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(100)), "cancelled expenses do not count")

	t.Run("list filters by category", func(t *testing.T) {
		page, err := svc.List(ctx, ExpenseListFilter{Category: "tax"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, "tax", page.Items[0].Category)

		page, err = svc.List(ctx, ExpenseListFilter{PropertyID: &p.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.True(t, page.Items[0].Date.Equal(calendar.Date(2025, time.March, 31)), "newest first")
	})
}

func ptr[T any](v T) *T { return &v }
