package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	documentapp "github.com/erp/rental/internal/application/document"
)

var _ documentapp.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage stands in for S3 when storage is disabled. It hands out
// URLs under BaseURL that nothing serves, and tracks keys in memory.
//
// By default every key counts as uploaded so the confirm flow works in
// development. A strict stub only knows the keys given to Put.
type StubObjectStorage struct {
	BaseURL string

	strict  bool
	mu      sync.RWMutex
	objects map[string]bool
	deleted map[string]bool
}

// NewStubObjectStorage creates a stub that reports every key as uploaded
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/storage"
	}
	return &StubObjectStorage{
		BaseURL: baseURL,
		objects: make(map[string]bool),
		deleted: make(map[string]bool),
	}
}

// NewStrictStubObjectStorage creates a stub where only Put keys exist
func NewStrictStubObjectStorage() *StubObjectStorage {
	s := NewStubObjectStorage("")
	s.strict = true
	return s
}

// Put marks storageKey as uploaded
func (s *StubObjectStorage) Put(storageKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = true
	delete(s.deleted, storageKey)
}

// GenerateUploadURL returns a placeholder upload URL
func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.url("upload", storageKey, expiresAt), expiresAt, nil
}

// GenerateDownloadURL returns a placeholder download URL
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.url("download", storageKey, expiresAt), expiresAt, nil
}

func (s *StubObjectStorage) url(action, storageKey string, expiresAt time.Time) string {
	return s.BaseURL + "/" + action + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
}

// DeleteObject forgets storageKey
func (s *StubObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	s.deleted[storageKey] = true
	return nil
}

// ObjectExists reports whether storageKey counts as uploaded
func (s *StubObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.objects[storageKey] {
		return true, nil
	}
	return !s.strict && !s.deleted[storageKey], nil
}
