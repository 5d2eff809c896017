package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/ledger"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollection(t *testing.T, receipt string, tenantID uuid.UUID, date time.Time, amount int64) *collection.Collection {
	t.Helper()
	c, err := collection.NewCollection(receipt, collection.Params{
		TenantID:   tenantID,
		TenantName: "Jane Tenant",
		Date:       date,
		Amount:     decimal.NewFromInt(amount),
		Type:       collection.TypeRent,
	}, collection.Placement{RoomNumber: "101"})
	require.NoError(t, err)
	return c
}

// ============ Save and Find Tests ============

func TestGormCollectionRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCollectionRepository(newTestDB(t))
	tenantID := uuid.New()

	c := newCollection(t, "RCPT-20250310-00001", tenantID, calendar.Date(2025, time.March, 10), 1200)
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ReceiptNumber, found.ReceiptNumber)
	assert.Equal(t, collection.StatusCollected, found.Status)
	require.NotNil(t, found.PeriodFrom)
	assert.True(t, found.PeriodFrom.Equal(calendar.Date(2025, time.March, 1)))
	require.NotNil(t, found.DueDate)
	assert.True(t, found.DueDate.Equal(calendar.Date(2025, time.February, 28)))
	assert.Equal(t, c.DaysLate, found.DaysLate)

	list, total, err := repo.FindAll(ctx, collection.Filter{
		Filter: shared.Filter{Page: 1, PageSize: 10, Search: "rcpt-20250310"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.FindByID(ctx, c.ID)
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestGormCollectionRepository_PaidQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormCollectionRepository(db)
	ledgerRepo := NewGormLedgerRepository(db)
	tenantID := uuid.New()

	posted := newCollection(t, "RCPT-1", tenantID, calendar.Date(2025, time.March, 1), 500)
	pending := newCollection(t, "RCPT-2", tenantID, calendar.Date(2025, time.March, 2), 300)
	cancelled := newCollection(t, "RCPT-3", tenantID, calendar.Date(2025, time.March, 3), 200)
	require.NoError(t, cancelled.Cancel())
	for _, c := range []*collection.Collection{posted, pending, cancelled} {
		require.NoError(t, repo.Save(ctx, c))
	}

	entry, err := ledger.FromCollection(posted)
	require.NoError(t, err)
	require.NoError(t, ledgerRepo.Create(ctx, entry))

	t.Run("paid without statement skips posted and cancelled", func(t *testing.T) {
		missing, err := repo.FindPaidWithoutStatement(ctx)
		require.NoError(t, err)
		require.Len(t, missing, 1)
		assert.Equal(t, pending.ID, missing[0].ID)
	})

	t.Run("paid by tenant excludes cancelled", func(t *testing.T) {
		paid, err := repo.FindPaidByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Len(t, paid, 2)

		none, err := repo.FindPaidByTenants(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("sum ignores cancelled", func(t *testing.T) {
		sum, err := repo.SumBetween(ctx, calendar.Date(2025, time.March, 1), calendar.Date(2025, time.March, 31))
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(800)), "got %s", sum)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		recent, err := repo.FindRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, cancelled.ID, recent[0].ID)
	})
}
