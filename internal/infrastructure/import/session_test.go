package csvimport

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictMode_IsValid(t *testing.T) {
	for _, m := range []ConflictMode{ConflictModeSkip, ConflictModeUpdate, ConflictModeFail} {
		assert.True(t, m.IsValid(), m)
	}
	assert.False(t, ConflictMode("merge").IsValid())
	assert.False(t, ConflictMode("").IsValid())
}

func TestIsValidEntityType(t *testing.T) {
	for _, e := range ValidEntityTypes() {
		assert.True(t, IsValidEntityType(string(e)))
	}
	assert.False(t, IsValidEntityType("invoices"))
}

func TestImportSession_UpdateState(t *testing.T) {
	s := NewImportSession(EntityTenants, ConflictModeSkip, "tenants.csv", 10)
	assert.Equal(t, StateCreated, s.State)

	s.UpdateState(StateImporting)
	assert.Nil(t, s.CompletedAt)

	s.UpdateState(StateCompleted)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, s.UpdatedAt, *s.CompletedAt)
}

// ============ InMemorySessionStore Tests ============

func TestInMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySessionStore(time.Hour)
	t.Cleanup(store.Stop)
	clock := time.Now()
	store.now = func() time.Time { return clock }

	older := NewImportSession(EntityProperties, ConflictModeSkip, "a.csv", 1)
	older.CreatedAt = clock.Add(-30 * time.Minute)
	newer := NewImportSession(EntityTenants, ConflictModeSkip, "b.csv", 1)
	newer.CreatedAt = clock.Add(-time.Minute)
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, older.ID)
		require.NoError(t, err)
		assert.Same(t, older, got)

		_, err = store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrSessionNotFound)
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

	t.Run("expired sessions disappear", func(t *testing.T) {
		clock = clock.Add(45 * time.Minute)
		_, err := store.Get(ctx, older.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)

		store.Cleanup()
		store.mu.RLock()
		_, kept := store.sessions[older.ID]
		store.mu.RUnlock()
		assert.False(t, kept)

		_, err = store.Get(ctx, newer.ID)
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, newer.ID))
		_, err := store.Get(ctx, newer.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		store.Stop()
	})
}

func TestEncodeSession(t *testing.T) {
	s := NewImportSession(EntityTenants, ConflictModeUpdate, "tenants.csv", 42)
	s.rows = []*Row{{LineNumber: 2, Data: map[string]string{"name": "Ravi Kumar", "mobile": "0501234567"}}}
	s.TotalRows, s.ValidRows = 1, 1
	s.UpdateState(StateValidated)

	data, err := EncodeSession(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rows"`)

	got, err := DecodeSession(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, StateValidated, got.State)
	assert.Equal(t, ConflictModeUpdate, got.ConflictMode)
	require.Len(t, got.Rows(), 1)
	assert.Equal(t, "Ravi Kumar", got.Rows()[0].Get("name"))
	assert.Equal(t, 2, got.Rows()[0].LineNumber)

	_, err = DecodeSession([]byte("{"))
	assert.Error(t, err)
}

func TestImportSession_JSONHidesRows(t *testing.T) {
	s := NewImportSession(EntityTenants, ConflictModeSkip, "tenants.csv", 1)
	s.rows = []*Row{{LineNumber: 2, Data: map[string]string{"name": "A"}}}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"rows"`)
}
