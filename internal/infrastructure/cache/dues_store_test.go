package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() (*dues.Snapshot, uuid.UUID) {
	tenantID := uuid.New()
	asOf := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	snap := dues.NewSnapshot([]dues.Due{
		{
			TenantID:         tenantID,
			TenantName:       "Omar Khalid",
			RentOutstanding:  decimal.NewFromInt(1000),
			TotalOutstanding: decimal.NewFromInt(1000),
			DaysOverdue:      33,
			Status:           dues.StatusOverdue60,
		},
		{
			TenantID:         uuid.New(),
			TenantName:       "Sara Nasser",
			TotalOutstanding: decimal.NewFromInt(200),
			DaysOverdue:      5,
			Status:           dues.StatusOverdue30,
		},
	}, asOf, asOf.Add(2*time.Hour))
	return snap, tenantID
}

// ============ InMemoryDuesStore Tests ============

func TestInMemoryDuesStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryDuesStore()
	defer store.Close()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	snap, _ := sampleSnapshot()
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, loaded)
}

// ============ RedisDuesStore Tests ============

func TestRedisDuesStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisDuesStoreWithClient(client, "test:dues:", time.Hour)
	defer store.Close()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	snap, tenantID := sampleSnapshot()
	require.NoError(t, store.Save(ctx, snap))
	assert.True(t, mr.Exists("test:dues:snapshot"))
	assert.Equal(t, time.Hour, mr.TTL("test:dues:snapshot"))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	due, ok := loaded.ForTenant(tenantID)
	require.True(t, ok)
	assert.Equal(t, dues.StatusOverdue60, due.Status)

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound, "expired snapshots are not served")
}

func TestDuesStoreFactory_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr.Port())}

	store, err := NewDuesStoreFactory(cfg).CreateStore()
	require.NoError(t, err)
	defer store.Close()

	redisStore, ok := store.(*RedisDuesStore)
	require.True(t, ok)
	assert.NotNil(t, redisStore.Client())
}

func mustPort(t *testing.T, port string) int {
	t.Helper()
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return n
}

// ============ Snapshot Encoding Tests ============

func TestSnapshotEncoding_RebuildsIndex(t *testing.T) {
	snap, tenantID := sampleSnapshot()

	data, err := encodeSnapshot(snap)
	require.NoError(t, err)
	decoded, err := decodeSnapshot(data)
	require.NoError(t, err)

	assert.True(t, snap.AsOf.Equal(decoded.AsOf))
	assert.True(t, snap.GeneratedAt.Equal(decoded.GeneratedAt))
	require.Len(t, decoded.Dues, 2)
	assert.Equal(t, "Omar Khalid", decoded.Dues[0].TenantName, "order is kept")

	due, ok := decoded.ForTenant(tenantID)
	require.True(t, ok)
	assert.True(t, due.RentOutstanding.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, snap.Totals().OverdueCount, decoded.Totals().OverdueCount)

	_, err = decodeSnapshot([]byte("{not json"))
	assert.Error(t, err)
}

// ============ DuesStoreFactory Tests ============

func TestDuesStoreFactory_CreateStore(t *testing.T) {
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	tests := []struct {
		name      string
		cfg       config.RedisConfig
		opts      []DuesStoreFactoryOption
		wantErr   bool
		wantInMem bool
	}{
		{name: "redis disabled", cfg: config.RedisConfig{}, wantInMem: true},
		{name: "falls back when unreachable", cfg: unreachable, wantInMem: true},
		{name: "fails without fallback", cfg: unreachable, opts: []DuesStoreFactoryOption{WithInMemoryFallback(false)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewDuesStoreFactory(tt.cfg, tt.opts...).CreateStore()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, isMem := store.(*InMemoryDuesStore)
			assert.Equal(t, tt.wantInMem, isMem)
		})
	}
}
