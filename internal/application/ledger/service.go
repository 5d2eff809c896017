package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/ledger"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// generatedTypes are the entry types RecalculateTenant rebuilds. Payment
// entries always come from collections and are never regenerated.
var generatedTypes = []ledger.TransactionType{
	ledger.TypeInvoice, ledger.TypeRent, ledger.TypeDeposit, ledger.TypeParking,
	ledger.TypeOther, ledger.TypeOtherCharges, ledger.TypeOutstanding,
}

// Metrics receives ledger counters
type Metrics interface {
	StatementEntriesCreated(ctx context.Context, entryType string, n int)
	JobCompleted(ctx context.Context, result *shared.BatchResult, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) StatementEntriesCreated(context.Context, string, int)             {}
func (noopMetrics) JobCompleted(context.Context, *shared.BatchResult, time.Duration) {}

// Service maintains tenant statements: appending entries, keeping running
// balances consistent and rebuilding generated entries
type Service struct {
	entries     ledger.Repository
	collections collection.Repository
	agreements  agreement.Repository
	tx          shared.Transactor
	clock       calendar.Clock
	logger      *zap.Logger
	metrics     Metrics
}

// Option configures a Service
type Option func(*Service)

// WithClock pins the clock used for "today"
func WithClock(clock calendar.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new ledger Service
func NewService(
	entries ledger.Repository,
	collections collection.Repository,
	agreements agreement.Repository,
	tx shared.Transactor,
	opts ...Option,
) *Service {
	s := &Service{
		entries:     entries,
		collections: collections,
		agreements:  agreements,
		tx:          tx,
		clock:       calendar.SystemClock,
		logger:      zap.NewNop(),
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return calendar.DateOf(s.clock())
}

// Append inserts one entry and recomputes the tenant's balances. An entry
// whose (tenant, reference) already exists is skipped and
// shared.ErrDuplicateEntry is returned.
func (s *Service) Append(ctx context.Context, e *ledger.StatementEntry) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.create(ctx, e); err != nil {
			return err
		}
		return s.RecomputeTenant(ctx, e.TenantID)
	})
}

// create inserts without recomputing. Batch callers recompute at the end.
func (s *Service) create(ctx context.Context, e *ledger.StatementEntry) error {
	if err := s.entries.Create(ctx, e); err != nil {
		return err
	}
	s.metrics.StatementEntriesCreated(ctx, string(e.Type), 1)
	return nil
}

// createAll inserts entries, counting duplicates as skipped
func (s *Service) createAll(ctx context.Context, entries []*ledger.StatementEntry) (created, skipped int, err error) {
	for _, e := range entries {
		if err := s.create(ctx, e); err != nil {
			if errors.Is(err, shared.ErrDuplicateEntry) {
				skipped++
				continue
			}
			return created, skipped, err
		}
		created++
	}
	return created, skipped, nil
}

// CreateFromCollection posts the credit entry of a paid collection. A
// collection that already has its entry returns shared.ErrDuplicateEntry.
func (s *Service) CreateFromCollection(ctx context.Context, c *collection.Collection) (*ledger.StatementEntry, error) {
	var entry *ledger.StatementEntry
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.entries.ExistsByCollection(ctx, c.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrDuplicateEntry
		}
		e, err := ledger.FromCollection(c)
		if err != nil {
			return err
		}
		if err := s.create(ctx, e); err != nil {
			return err
		}
		entry = e
		return s.RecomputeTenant(ctx, c.TenantID)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateFromAgreement posts the deposit and every started rent month of an
// agreement, then recomputes the tenant's balances
func (s *Service) CreateFromAgreement(ctx context.Context, a *agreement.Agreement) (*shared.BatchResult, error) {
	result := shared.NewBatchResult("create_from_agreement")
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entries, err := ledger.FromAgreement(a, s.today())
		if err != nil {
			return err
		}
		created, skipped, err := s.createAll(ctx, entries)
		if err != nil {
			return err
		}
		result.Processed = len(entries)
		result.Created, result.Skipped = created, skipped
		return s.RecomputeTenant(ctx, a.TenantID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PostActivation writes the entries of a newly activated agreement: the
// opening balance once, the deposit and rent schedule, parking and attached
// charges. It reports whether an opening balance entry was written so the
// caller can flag the agreement.
func (s *Service) PostActivation(ctx context.Context, a *agreement.Agreement, on time.Time) (openingRecorded bool, err error) {
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entries := make([]*ledger.StatementEntry, 0)

		opening, err := ledger.OpeningBalanceEntry(a, on)
		if err != nil {
			return err
		}
		if opening != nil {
			entries = append(entries, opening)
		}
		scheduled, err := ledger.FromAgreement(a, s.today())
		if err != nil {
			return err
		}
		entries = append(entries, scheduled...)
		charges, err := ledger.ActivationEntries(a, on)
		if err != nil {
			return err
		}
		entries = append(entries, charges...)

		if _, _, err := s.createAll(ctx, entries); err != nil {
			return err
		}
		openingRecorded = opening != nil
		return s.RecomputeTenant(ctx, a.TenantID)
	})
	return openingRecorded, err
}

// RecomputeTenant rewrites the running balances of a tenant's statement
func (s *Service) RecomputeTenant(ctx context.Context, tenantID uuid.UUID) error {
	entries, err := s.entries.FindByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	changed := ledger.RecomputeRunningBalances(entries)
	return s.entries.UpdateRunningBalances(ctx, changed)
}

// RemoveCollectionEntry deletes the entry of a collection and recomputes
func (s *Service) RemoveCollectionEntry(ctx context.Context, c *collection.Collection) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.entries.DeleteByCollection(ctx, c.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		return s.RecomputeTenant(ctx, c.TenantID)
	})
}

// RemoveAgreementEntries deletes every entry linked to an agreement and
// recomputes
func (s *Service) RemoveAgreementEntries(ctx context.Context, a *agreement.Agreement) (int64, error) {
	var removed int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.entries.DeleteByAgreement(ctx, a.ID)
		if err != nil {
			return err
		}
		removed = n
		return s.RecomputeTenant(ctx, a.TenantID)
	})
	return removed, err
}

// RecalculateTenant rebuilds a tenant's statement. Generated entries are
// deleted and regenerated from the active agreement (or the latest one),
// missing collection entries are recreated, then balances are recomputed.
func (s *Service) RecalculateTenant(ctx context.Context, tenantID uuid.UUID) (*shared.BatchResult, error) {
	result := shared.NewBatchResult("recalculate_tenant")
	err := telemetry.Trace(ctx, "ledger", "recalculate_tenant", func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.recalculateTenant(ctx, tenantID, result)
		})
	}, telemetry.TenantAttr(tenantID.String()))
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant statement recalculated",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Service) recalculateTenant(ctx context.Context, tenantID uuid.UUID, result *shared.BatchResult) error {
	if _, err := s.entries.DeleteGenerated(ctx, &tenantID, generatedTypes); err != nil {
		return err
	}

	a, err := s.agreementForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if a != nil {
		entries, err := ledger.RegeneratedEntries(a, s.today())
		if err != nil {
			return err
		}
		created, skipped, err := s.createAll(ctx, entries)
		if err != nil {
			return err
		}
		result.Processed += len(entries)
		result.Created += created
		result.Skipped += skipped
	}

	paid, err := s.collections.FindPaidByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	for i := range paid {
		result.Merge(s.ensureCollectionEntry(ctx, &paid[i]))
	}
	return s.RecomputeTenant(ctx, tenantID)
}

// agreementForTenant returns the active agreement, else the latest one,
// else nil
func (s *Service) agreementForTenant(ctx context.Context, tenantID uuid.UUID) (*agreement.Agreement, error) {
	a, err := s.agreements.FindActiveForTenant(ctx, tenantID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	a, err = s.agreements.FindLatestForTenant(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// ensureCollectionEntry creates the entry of a paid collection when it is
// missing, without recomputing
func (s *Service) ensureCollectionEntry(ctx context.Context, c *collection.Collection) *shared.BatchResult {
	r := shared.NewBatchResult("")
	exists, err := s.entries.ExistsByCollection(ctx, c.ID)
	if err != nil {
		r.Record(c.ReceiptNumber, err)
		return r
	}
	if exists {
		return r
	}
	e, err := ledger.FromCollection(c)
	if err == nil {
		err = s.create(ctx, e)
	}
	r.Record(c.ReceiptNumber, err)
	if err == nil {
		r.Created++
	}
	return r
}

// History returns a tenant's statement in ledger order
func (s *Service) History(ctx context.Context, tenantID uuid.UUID) ([]*ledger.StatementEntry, error) {
	return s.entries.FindByTenant(ctx, tenantID)
}

// Balance returns a tenant's current balance
func (s *Service) Balance(ctx context.Context, tenantID uuid.UUID) (*BalanceResponse, error) {
	entries, err := s.entries.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := &BalanceResponse{TenantID: tenantID, Balance: ledger.Balance(entries), Entries: len(entries)}
	if n := len(entries); n > 0 {
		last := entries[n-1].TransactionDate
		resp.LastEntryDate = &last
	}
	return resp, nil
}

// StatementReport builds a tenant statement for a date range. The opening
// balance is the running balance of the last entry before the range.
func (s *Service) StatementReport(ctx context.Context, req ledger.ReportRequest) (*ledger.Report, error) {
	req.From = calendar.DateOf(req.From)
	req.To = calendar.DateOf(req.To)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	opening := decimal.Zero
	last, err := s.entries.LastBefore(ctx, req.TenantID, req.From)
	if err != nil {
		return nil, fmt.Errorf("failed to load opening balance: %w", err)
	}
	if last != nil {
		opening = last.RunningBalance
	}

	entries, err := s.entries.FindByTenantBetween(ctx, req.TenantID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return ledger.BuildReport(req, opening, entries), nil
}
