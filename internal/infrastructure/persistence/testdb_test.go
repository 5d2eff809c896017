package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory sqlite database closed with the test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}
