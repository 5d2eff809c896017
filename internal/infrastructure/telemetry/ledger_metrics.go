package telemetry

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rental-ledger"

// LedgerMetrics records the business metrics of the ledger: collections,
// statement entries, reconciliation outcomes and batch job runs. One value
// serves the Metrics interfaces of every application service.
type LedgerMetrics struct {
	collections    *Counter
	entries        *Counter
	reconciliation *Counter
	jobItems       *Counter
	jobDuration    *Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	collections, err := NewCounter(meter, "rental.collections.recorded", "Collections recorded", "{collection}")
	if err != nil {
		return nil, err
	}
	entries, err := NewCounter(meter, "rental.statement_entries.created", "Statement entries posted to the ledger", "{entry}")
	if err != nil {
		return nil, err
	}
	reconciliation, err := NewCounter(meter, "rental.reconciliation.collections", "Collections processed by invoice reconciliation", "{collection}")
	if err != nil {
		return nil, err
	}
	jobItems, err := NewCounter(meter, "rental.jobs.items", "Items processed by batch jobs", "{item}")
	if err != nil {
		return nil, err
	}
	jobDuration, err := NewHistogram(meter, "rental.jobs.duration", "Batch job duration", "s", JobDurationBuckets)
	if err != nil {
		return nil, err
	}

	return &LedgerMetrics{
		collections:    collections,
		entries:        entries,
		reconciliation: reconciliation,
		jobItems:       jobItems,
		jobDuration:    jobDuration,
	}, nil
}

// NewLedgerMetricsFromProvider creates the ledger instruments on the
// providers' rental meter
func NewLedgerMetricsFromProvider(p *Providers) (*LedgerMetrics, error) {
	return NewLedgerMetrics(p.Meter(meterName))
}

// CollectionRecorded counts one recorded collection
func (m *LedgerMetrics) CollectionRecorded(ctx context.Context, collectionType string) {
	m.collections.Inc(ctx, KeyCollectionType.String(collectionType))
}

// StatementEntriesCreated counts posted statement entries
func (m *LedgerMetrics) StatementEntriesCreated(ctx context.Context, entryType string, n int) {
	if n <= 0 {
		return
	}
	m.entries.Add(ctx, int64(n), KeyEntryType.String(entryType))
}

// ReconciliationMatched counts a collection matched to invoices
func (m *LedgerMetrics) ReconciliationMatched(ctx context.Context, matcher string) {
	m.reconciliation.Inc(ctx, KeyOutcome.String("matched"), KeyMatcher.String(matcher))
}

// ReconciliationUnmatched counts a collection that matched no invoice
func (m *LedgerMetrics) ReconciliationUnmatched(ctx context.Context) {
	m.reconciliation.Inc(ctx, KeyOutcome.String("unmatched"))
}

// JobCompleted records the counts and duration of a batch job run
func (m *LedgerMetrics) JobCompleted(ctx context.Context, result *shared.BatchResult, elapsed time.Duration) {
	if result == nil {
		return
	}
	job := KeyJob.String(result.Job)
	m.jobDuration.RecordDuration(ctx, elapsed, job)

	outcomes := []struct {
		name  string
		count int
	}{
		{"created", result.Created},
		{"skipped", result.Skipped},
		{"failed", result.Failed},
	}
	for _, o := range outcomes {
		if o.count > 0 {
			m.jobItems.Add(ctx, int64(o.count), job, KeyOutcome.String(o.name))
		}
	}
}

// MetricsError reports a failure to set up instruments
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when no meter is given
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}
