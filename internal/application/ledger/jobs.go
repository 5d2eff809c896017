package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/ledger"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Batch job names
const (
	JobCreateMissingCollectionStatements = "create_missing_collection_statements"
	JobRecalculateRunningBalances        = "recalculate_running_balances"
	JobGenerateMissingStatementEntries   = "generate_missing_statement_entries"
	JobCleanupAndRegenerate              = "cleanup_and_regenerate"
)

// runJob runs fn in one outer transaction and logs the result. Items inside
// fn use eachItem so that a failing item only rolls back its savepoint.
func (s *Service) runJob(ctx context.Context, name string, fn func(ctx context.Context, result *shared.BatchResult) error) (*shared.BatchResult, error) {
	start := time.Now()
	result := shared.NewBatchResult(name)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx, result)
	})
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("ledger job failed", zap.String("job", name), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("job", name),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", elapsed),
	}
	if result.HasFailures() {
		s.logger.Warn("ledger job finished with failures", fields...)
	} else {
		s.logger.Info("ledger job finished", fields...)
	}
	s.metrics.JobCompleted(ctx, result, elapsed)
	return result, nil
}

// eachItem runs fn in a savepoint and counts the outcome on result
func (s *Service) eachItem(ctx context.Context, result *shared.BatchResult, item string, fn func(ctx context.Context) error) bool {
	err := s.tx.WithinTransaction(ctx, fn)
	result.Record(item, err)
	if err != nil && !errors.Is(err, shared.ErrDuplicateEntry) {
		s.logger.Warn("ledger job item failed", zap.String("job", result.Job), zap.String("item", item), zap.Error(err))
	}
	return err == nil
}

// recomputeAll recomputes every tenant in tenantIDs, each in its own
// savepoint. Failures are counted on result without touching Processed.
func (s *Service) recomputeAll(ctx context.Context, result *shared.BatchResult, tenantIDs map[uuid.UUID]struct{}) {
	for id := range tenantIDs {
		tenantID := id
		if err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.RecomputeTenant(ctx, tenantID)
		}); err != nil {
			result.Fail("recompute "+tenantID.String(), err)
			s.logger.Warn("balance recompute failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		}
	}
}

// CreateMissingCollectionStatements posts the entry of every paid collection
// that has none and links it back to the collection
func (s *Service) CreateMissingCollectionStatements(ctx context.Context) (*shared.BatchResult, error) {
	return s.runJob(ctx, JobCreateMissingCollectionStatements, func(ctx context.Context, result *shared.BatchResult) error {
		missing, err := s.collections.FindPaidWithoutStatement(ctx)
		if err != nil {
			return err
		}
		touched := make(map[uuid.UUID]struct{})
		for i := range missing {
			c := &missing[i]
			ok := s.eachItem(ctx, result, c.ReceiptNumber, func(ctx context.Context) error {
				e, err := ledger.FromCollection(c)
				if err != nil {
					return err
				}
				if err := s.create(ctx, e); err != nil {
					return err
				}
				id := e.ID
				c.LinkStatementEntry(&id)
				return s.collections.Save(ctx, c)
			})
			if ok {
				result.Created++
				touched[c.TenantID] = struct{}{}
			}
		}
		s.recomputeAll(ctx, result, touched)
		return nil
	})
}

// RecalculateAllRunningBalances recomputes the statement of every tenant
func (s *Service) RecalculateAllRunningBalances(ctx context.Context) (*shared.BatchResult, error) {
	return s.runJob(ctx, JobRecalculateRunningBalances, func(ctx context.Context, result *shared.BatchResult) error {
		tenantIDs, err := s.entries.TenantIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range tenantIDs {
			tenantID := id
			s.eachItem(ctx, result, tenantID.String(), func(ctx context.Context) error {
				return s.RecomputeTenant(ctx, tenantID)
			})
		}
		return nil
	})
}

// GenerateMissingStatementEntries regenerates entries for active agreements
// that have none
func (s *Service) GenerateMissingStatementEntries(ctx context.Context) (*shared.BatchResult, error) {
	return s.runJob(ctx, JobGenerateMissingStatementEntries, func(ctx context.Context, result *shared.BatchResult) error {
		active, err := s.agreements.FindByState(ctx, agreement.StateActive)
		if err != nil {
			return err
		}
		touched := make(map[uuid.UUID]struct{})
		for i := range active {
			a := &active[i]
			count, err := s.entries.CountByAgreement(ctx, a.ID)
			if err != nil {
				result.Record(a.Number, err)
				continue
			}
			if count > 0 {
				continue
			}
			var created, skipped int
			ok := s.eachItem(ctx, result, a.Number, func(ctx context.Context) error {
				entries, err := ledger.RegeneratedEntries(a, s.today())
				if err != nil {
					return err
				}
				created, skipped, err = s.createAll(ctx, entries)
				return err
			})
			if ok {
				result.Created += created
				result.Skipped += skipped
				touched[a.TenantID] = struct{}{}
			}
		}
		s.recomputeAll(ctx, result, touched)
		return nil
	})
}

// CleanupAndRegenerate deletes every rent and deposit entry, orphans
// included, and regenerates them for active agreements
func (s *Service) CleanupAndRegenerate(ctx context.Context) (*shared.BatchResult, error) {
	return s.runJob(ctx, JobCleanupAndRegenerate, func(ctx context.Context, result *shared.BatchResult) error {
		deleted, err := s.entries.DeleteGenerated(ctx, nil, []ledger.TransactionType{ledger.TypeRent, ledger.TypeDeposit})
		if err != nil {
			return err
		}
		s.logger.Info("rent and deposit entries deleted", zap.Int64("deleted", deleted))

		active, err := s.agreements.FindByState(ctx, agreement.StateActive)
		if err != nil {
			return err
		}
		for i := range active {
			a := &active[i]
			var created, skipped int
			if s.eachItem(ctx, result, a.Number, func(ctx context.Context) error {
				entries, err := ledger.FromAgreement(a, s.today())
				if err != nil {
					return err
				}
				created, skipped, err = s.createAll(ctx, entries)
				return err
			}) {
				result.Created += created
				result.Skipped += skipped
			}
		}

		tenantIDs, err := s.entries.TenantIDs(ctx)
		if err != nil {
			return err
		}
		touched := make(map[uuid.UUID]struct{}, len(tenantIDs))
		for _, id := range tenantIDs {
			touched[id] = struct{}{}
		}
		s.recomputeAll(ctx, result, touched)
		return nil
	})
}
