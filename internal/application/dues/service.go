package dues

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobRebuildOutstandingDues is the batch job name
const JobRebuildOutstandingDues = "rebuild_outstanding_dues"

// SnapshotStore shares the latest snapshot between instances
type SnapshotStore interface {
	Save(ctx context.Context, s *dues.Snapshot) error
	// Load returns shared.ErrNotFound when nothing is stored
	Load(ctx context.Context) (*dues.Snapshot, error)
}

// Metrics receives job results
type Metrics interface {
	JobCompleted(ctx context.Context, result *shared.BatchResult, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) JobCompleted(context.Context, *shared.BatchResult, time.Duration) {}

// Service keeps the outstanding dues snapshot. Readers always get a
// complete snapshot: a rebuild computes a new one and swaps it in.
type Service struct {
	agreementRepo   agreement.Repository
	collectionRepo  collection.Repository
	tenantRepo      tenant.Repository
	roomRepo        property.RoomRepository
	store           SnapshotStore
	clock           calendar.Clock
	logger          *zap.Logger
	metrics         Metrics
	reminderMinDays int

	current   atomic.Pointer[dues.Snapshot]
	rebuildMu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithStore sets the shared snapshot store
func WithStore(store SnapshotStore) Option {
	return func(s *Service) { s.store = store }
}

// WithClock pins the clock used for "today"
func WithClock(clock calendar.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithReminderMinDays sets the fewest days overdue that earns a reminder
func WithReminderMinDays(days int) Option {
	return func(s *Service) { s.reminderMinDays = days }
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a dues Service holding an empty snapshot
func NewService(
	agreementRepo agreement.Repository,
	collectionRepo collection.Repository,
	tenantRepo tenant.Repository,
	roomRepo property.RoomRepository,
	opts ...Option,
) *Service {
	s := &Service{
		agreementRepo:  agreementRepo,
		collectionRepo: collectionRepo,
		tenantRepo:     tenantRepo,
		roomRepo:       roomRepo,
		clock:          calendar.SystemClock,
		logger:         zap.NewNop(),
		metrics:        noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(dues.EmptySnapshot())
	return s
}

// Warm loads the shared snapshot, if any, so a fresh instance can serve
// reads before its first rebuild
func (s *Service) Warm(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if s.current.Load().GeneratedAt.Before(snap.GeneratedAt) {
		s.current.Store(snap)
		s.logger.Info("dues snapshot loaded from cache",
			zap.Time("as_of", snap.AsOf),
			zap.Int("tenants", len(snap.Dues)),
		)
	}
	return nil
}

// Rebuild recomputes every tenant's dues and swaps the snapshot in. Each
// active agreement is one processed item; tenants owing money count as
// created.
func (s *Service) Rebuild(ctx context.Context) (*shared.BatchResult, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	today := calendar.DateOf(s.clock())
	result := shared.NewBatchResult(JobRebuildOutstandingDues)

	inputs, err := s.inputs(ctx, result)
	if err != nil {
		s.logger.Error("dues rebuild failed", zap.Error(err))
		return nil, err
	}
	snap := dues.Compute(inputs, today)
	s.current.Store(snap)

	result.Created = len(snap.Dues)
	result.Skipped = len(inputs) - len(snap.Dues)

	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			s.logger.Warn("failed to publish dues snapshot", zap.Error(err))
		}
	}

	s.metrics.JobCompleted(ctx, result, time.Since(start))
	s.logger.Info("dues rebuild finished",
		zap.Int("agreements", result.Processed),
		zap.Int("owing", result.Created),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// inputs gathers one Input per active agreement. A tenant with several
// active agreements is represented by the latest one.
func (s *Service) inputs(ctx context.Context, result *shared.BatchResult) ([]dues.Input, error) {
	active, err := s.agreementRepo.FindByState(ctx, agreement.StateActive)
	if err != nil {
		return nil, err
	}
	byTenant := make(map[uuid.UUID]*agreement.Agreement, len(active))
	for i := range active {
		a := &active[i]
		if prev, ok := byTenant[a.TenantID]; ok && !a.StartDate.After(prev.StartDate) {
			continue
		}
		byTenant[a.TenantID] = a
	}
	if len(byTenant) == 0 {
		return []dues.Input{}, nil
	}

	tenantIDs := make([]uuid.UUID, 0, len(byTenant))
	for id := range byTenant {
		tenantIDs = append(tenantIDs, id)
	}
	tenants, err := s.tenantRepo.FindByIDs(ctx, tenantIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(tenants))
	for _, t := range tenants {
		names[t.ID] = t.Name
	}
	paid, err := s.collectionRepo.FindPaidByTenants(ctx, tenantIDs)
	if err != nil {
		return nil, err
	}
	collectionsByTenant := make(map[uuid.UUID][]collection.Collection, len(tenantIDs))
	for _, c := range paid {
		collectionsByTenant[c.TenantID] = append(collectionsByTenant[c.TenantID], c)
	}

	inputs := make([]dues.Input, 0, len(byTenant))
	for tenantID, a := range byTenant {
		roomName := ""
		room, err := s.roomRepo.FindByID(ctx, a.RoomID)
		switch {
		case err == nil:
			roomName = room.Name
		case errors.Is(err, shared.ErrNotFound):
			s.logger.Warn("agreement room missing", zap.String("agreement", a.Number))
		default:
			result.Record(a.Number, err)
			continue
		}
		result.Record(a.Number, nil)
		inputs = append(inputs, dues.Input{
			TenantID:    tenantID,
			TenantName:  names[tenantID],
			RoomName:    roomName,
			Agreement:   a,
			Collections: collectionsByTenant[tenantID],
		})
	}
	return inputs, nil
}

// Snapshot returns the current snapshot
func (s *Service) Snapshot() *dues.Snapshot {
	return s.current.Load()
}

// ForTenant returns the due of one tenant
func (s *Service) ForTenant(tenantID uuid.UUID) (dues.Due, bool) {
	return s.current.Load().ForTenant(tenantID)
}

// List returns dues sorted by total descending, optionally in one status
func (s *Service) List(status *dues.Status) []dues.Due {
	return s.current.Load().List(status)
}

// Totals sums the current snapshot
func (s *Service) Totals() dues.Totals {
	return s.current.Load().Totals()
}
