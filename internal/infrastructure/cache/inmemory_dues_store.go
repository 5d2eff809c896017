package cache

import (
	"context"
	"sync"

	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/shared"
)

// InMemoryDuesStore keeps the snapshot in process memory.
// WARNING: it is not shared across instances, so a fresh instance starts
// empty until its first rebuild.
type InMemoryDuesStore struct {
	mu   sync.RWMutex
	snap *dues.Snapshot
}

// NewInMemoryDuesStore creates an empty in-memory store
func NewInMemoryDuesStore() *InMemoryDuesStore {
	return &InMemoryDuesStore{}
}

// Save replaces the stored snapshot
func (s *InMemoryDuesStore) Save(_ context.Context, snap *dues.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

// Load returns the stored snapshot, or shared.ErrNotFound
func (s *InMemoryDuesStore) Load(context.Context) (*dues.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, shared.ErrNotFound
	}
	return s.snap, nil
}

// Close is a no-op
func (s *InMemoryDuesStore) Close() error {
	return nil
}
