package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportSessions(t *testing.T) (*RedisImportSessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisImportSessions(client, "", time.Hour), mr
}

// ============ RedisImportSessions Tests ============

func TestRedisImportSessions(t *testing.T) {
	ctx := context.Background()
	store, mr := newImportSessions(t)
	clock := time.Now()
	store.now = func() time.Time { return clock }

	older := csvimport.NewImportSession(csvimport.EntityProperties, csvimport.ConflictModeSkip, "properties.csv", 120)
	older.CreatedAt = clock.Add(-50 * time.Minute)
	newer := csvimport.NewImportSession(csvimport.EntityTenants, csvimport.ConflictModeFail, "tenants.csv", 80)
	newer.CreatedAt = clock.Add(-time.Minute)
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, newer.ID)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)
		assert.Equal(t, csvimport.ConflictModeFail, got.ConflictMode)

		_, err = store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, csvimport.ErrSessionNotFound)
	})

	t.Run("keys expire with the session", func(t *testing.T) {
		assert.InDelta(t, (10 * time.Minute).Seconds(), mr.TTL("rental:import:session:"+older.ID.String()).Seconds(), 1)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		recent, err := store.Recent(ctx, 0)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, newer.ID, recent[0].ID)

		recent, err = store.Recent(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, recent, 1)
	})

	t.Run("expired sessions leave the index", func(t *testing.T) {
		mr.FastForward(15 * time.Minute)
		_, err := store.Get(ctx, older.ID)
		assert.ErrorIs(t, err, csvimport.ErrSessionNotFound)

		recent, err := store.Recent(ctx, 0)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, newer.ID, recent[0].ID)

		members, err := mr.ZMembers("rental:import:index")
		require.NoError(t, err)
		assert.Equal(t, []string{newer.ID.String()}, members)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, newer.ID))
		_, err := store.Get(ctx, newer.ID)
		assert.ErrorIs(t, err, csvimport.ErrSessionNotFound)
		require.NoError(t, store.Delete(ctx, newer.ID))

		recent, err := store.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("a session past its ttl is not stored", func(t *testing.T) {
		stale := csvimport.NewImportSession(csvimport.EntityRooms, csvimport.ConflictModeSkip, "rooms.csv", 1)
		stale.CreatedAt = clock.Add(-2 * time.Hour)
		assert.ErrorIs(t, store.Save(ctx, stale), csvimport.ErrSessionNotFound)
	})
}

func TestRedisImportSessions_Unreachable(t *testing.T) {
	store, mr := newImportSessions(t)
	mr.Close()

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, csvimport.ErrSessionNotFound)
}
