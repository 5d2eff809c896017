package csvimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntityType names what a file imports
type EntityType string

const (
	EntityProperties EntityType = "properties"
	EntityFlats      EntityType = "flats"
	EntityRooms      EntityType = "rooms"
	EntityTenants    EntityType = "tenants"
	EntityAgreements EntityType = "agreements"
)

// ValidEntityTypes lists the importable entities in the order they depend
// on each other
func ValidEntityTypes() []EntityType {
	return []EntityType{EntityProperties, EntityFlats, EntityRooms, EntityTenants, EntityAgreements}
}

func IsValidEntityType(t string) bool {
	return slices.Contains(ValidEntityTypes(), EntityType(t))
}

// ConflictMode decides what happens to a row matching a stored record
type ConflictMode string

const (
	ConflictModeSkip   ConflictMode = "skip"   // keep the stored record
	ConflictModeUpdate ConflictMode = "update" // overwrite it
	ConflictModeFail   ConflictMode = "fail"   // reject the row at validation
)

func (c ConflictMode) IsValid() bool {
	return c == ConflictModeSkip || c == ConflictModeUpdate || c == ConflictModeFail
}

// ImportState is where a session is in its lifecycle
type ImportState string

const (
	StateCreated    ImportState = "created"
	StateValidating ImportState = "validating"
	StateValidated  ImportState = "validated"
	StateImporting  ImportState = "importing"
	StateCompleted  ImportState = "completed"
	StateFailed     ImportState = "failed"
	StateCancelled  ImportState = "cancelled"
)

func (s ImportState) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("import session not found or expired")

// ImportSession follows one uploaded file from validation to import. The
// rows that passed validation stay on the session until it is imported.
type ImportSession struct {
	ID           uuid.UUID        `json:"id"`
	EntityType   EntityType       `json:"entity_type"`
	ConflictMode ConflictMode     `json:"conflict_mode"`
	FileName     string           `json:"file_name"`
	FileSize     int64            `json:"file_size"`
	State        ImportState      `json:"state"`
	TotalRows    int              `json:"total_rows"`
	ValidRows    int              `json:"valid_rows"`
	ErrorRows    int              `json:"error_rows"`
	Errors       []RowError       `json:"errors"`
	TotalErrors  int              `json:"total_errors,omitempty"`
	IsTruncated  bool             `json:"is_truncated,omitempty"`
	Preview      []map[string]any `json:"preview"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`

	rows []*Row
}

func NewImportSession(entityType EntityType, mode ConflictMode, fileName string, fileSize int64) *ImportSession {
	now := time.Now()
	return &ImportSession{
		ID:           uuid.New(),
		EntityType:   entityType,
		ConflictMode: mode,
		FileName:     fileName,
		FileSize:     fileSize,
		State:        StateCreated,
		Errors:       make([]RowError, 0),
		Preview:      make([]map[string]any, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateState moves the session on, stamping CompletedAt on terminal states
func (s *ImportSession) UpdateState(state ImportState) {
	s.State = state
	s.UpdatedAt = time.Now()
	if state.terminal() {
		at := s.UpdatedAt
		s.CompletedAt = &at
	}
}

func (s *ImportSession) report(p *Problems) {
	s.Errors = p.List()
	s.TotalErrors = p.Total()
	s.IsTruncated = p.Truncated()
}

// Rows returns the rows that passed validation
func (s *ImportSession) Rows() []*Row { return s.rows }

// IsValid reports whether validation found nothing wrong
func (s *ImportSession) IsValid() bool {
	return s.ErrorRows == 0 && len(s.Errors) == 0
}

// storedSession is the encoded form of a session, rows included
type storedSession struct {
	*ImportSession
	Rows []*Row `json:"rows,omitempty"`
}

// EncodeSession serializes a session with its validated rows, for stores
// that keep sessions out of process
func EncodeSession(s *ImportSession) ([]byte, error) {
	data, err := json.Marshal(storedSession{ImportSession: s, Rows: s.rows})
	if err != nil {
		return nil, fmt.Errorf("encode import session: %w", err)
	}
	return data, nil
}

// DecodeSession reverses EncodeSession
func DecodeSession(data []byte) (*ImportSession, error) {
	stored := storedSession{ImportSession: &ImportSession{}}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode import session: %w", err)
	}
	stored.ImportSession.rows = stored.Rows
	return stored.ImportSession, nil
}

// SessionStore keeps sessions between validation and import. Sessions
// expire a fixed time after they were created.
type SessionStore interface {
	Save(ctx context.Context, session *ImportSession) error
	Get(ctx context.Context, id uuid.UUID) (*ImportSession, error)
	Recent(ctx context.Context, limit int) ([]*ImportSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ SessionStore = (*InMemorySessionStore)(nil)

// InMemorySessionStore forgets sessions ttl after they were created. A
// background sweep drops expired ones until Stop.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*ImportSession
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopped  sync.Once
}

// sweepInterval is how often expired sessions are dropped
const sweepInterval = 5 * time.Minute

func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	s := &InMemorySessionStore{
		sessions: make(map[uuid.UUID]*ImportSession),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *InMemorySessionStore) sweep() {
	tick := time.NewTicker(sweepInterval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			s.Cleanup()
		case <-s.stop:
			return
		}
	}
}

// Stop ends the sweep. It is safe to call more than once.
func (s *InMemorySessionStore) Stop() {
	s.stopped.Do(func() { close(s.stop) })
}

func (s *InMemorySessionStore) Save(_ context.Context, session *ImportSession) error {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return nil
}

func (s *InMemorySessionStore) Get(_ context.Context, id uuid.UUID) (*ImportSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok && s.live(session) {
		return session, nil
	}
	return nil, ErrSessionNotFound
}

// Recent returns up to limit live sessions, newest first; limit <= 0
// returns them all
func (s *InMemorySessionStore) Recent(_ context.Context, limit int) ([]*ImportSession, error) {
	s.mu.RLock()
	out := make([]*ImportSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		if s.live(session) {
			out = append(out, session)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Cleanup drops expired sessions now
func (s *InMemorySessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if !s.live(session) {
			delete(s.sessions, id)
		}
	}
}

func (s *InMemorySessionStore) live(session *ImportSession) bool {
	return s.now().Sub(session.CreatedAt) <= s.ttl
}
