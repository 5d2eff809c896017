package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Metrics receives billing counters
type Metrics interface {
	ReconciliationMatched(ctx context.Context, matcher string)
	ReconciliationUnmatched(ctx context.Context)
	JobCompleted(ctx context.Context, result *shared.BatchResult, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ReconciliationMatched(context.Context, string)                    {}
func (noopMetrics) ReconciliationUnmatched(context.Context)                          {}
func (noopMetrics) JobCompleted(context.Context, *shared.BatchResult, time.Duration) {}

// Reconciler turns paid collections into posted payments allocated against
// the tenant's open invoices
type Reconciler struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	numbers     billing.NumberGenerator
	tx          shared.Transactor
	matchers    []billing.Matcher
	allocator   billing.Allocator
	logger      *zap.Logger
	metrics     Metrics
}

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

// WithMatchers replaces the default matcher chain
func WithMatchers(matchers []billing.Matcher) ReconcilerOption {
	return func(r *Reconciler) { r.matchers = matchers }
}

// WithAllocator replaces the FIFO allocator
func WithAllocator(a billing.Allocator) ReconcilerOption {
	return func(r *Reconciler) { r.allocator = a }
}

// WithReconcilerLogger sets the logger
func WithReconcilerLogger(logger *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = logger }
}

// WithReconcilerMetrics sets the metrics sink
func WithReconcilerMetrics(m Metrics) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	numbers billing.NumberGenerator,
	tx shared.Transactor,
	opts ...ReconcilerOption,
) *Reconciler {
	r := &Reconciler{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		numbers:     numbers,
		tx:          tx,
		matchers:    billing.DefaultMatchers(),
		allocator:   billing.NewFIFOAllocator(),
		logger:      zap.NewNop(),
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tx == nil {
		r.tx = shared.NoopTransactor{}
	}
	return r
}

// Reconcile matches a paid collection to open invoices and registers one
// payment for it. It never fails the caller: errors are logged and nil is
// returned. The collection is linked to the payment but not saved.
func (r *Reconciler) Reconcile(ctx context.Context, c *collection.Collection) *billing.Payment {
	log := r.logger.With(
		zap.String("collection_id", c.ID.String()),
		zap.String("receipt", c.ReceiptNumber),
		zap.String("tenant_id", c.TenantID.String()),
	)
	var payment *billing.Payment
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := r.reconcile(ctx, c, log)
		payment = p
		return err
	})
	if err != nil {
		log.Warn("collection reconciliation failed", zap.Error(err))
		return nil
	}
	if payment != nil {
		id := payment.ID
		c.LinkPayment(&id)
	}
	return payment
}

func (r *Reconciler) reconcile(ctx context.Context, c *collection.Collection, log *zap.Logger) (*billing.Payment, error) {
	if !c.Status.IsPaid() {
		return nil, nil
	}
	if c.PaymentID != nil {
		return nil, nil
	}
	existing, err := r.paymentRepo.FindByCollection(ctx, c.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status != billing.PaymentStatusCancelled {
		c.LinkPayment(&existing.ID)
		return nil, nil
	}

	match, err := billing.MatchInvoices(ctx, r.invoiceRepo, c, r.matchers)
	if err != nil {
		return nil, fmt.Errorf("match invoices: %w", err)
	}
	if !match.Matched() {
		log.Info("no open invoice matches collection")
		r.metrics.ReconciliationUnmatched(ctx)
		return nil, nil
	}

	number, err := r.numbers.NextPaymentNumber(ctx, c.Date)
	if err != nil {
		return nil, err
	}
	payment, err := billing.NewCollectionPayment(number, c)
	if err != nil {
		return nil, err
	}
	if err := payment.Post(); err != nil {
		return nil, err
	}

	plan, err := r.allocator.Allocate(payment.Amount, billing.TargetsFromInvoices(match.Invoices))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*billing.Invoice, len(match.Invoices))
	for i := range match.Invoices {
		byID[match.Invoices[i].ID] = &match.Invoices[i]
	}
	for _, alloc := range plan.Allocations {
		inv, ok := byID[alloc.TargetID]
		if !ok {
			continue
		}
		if err := payment.Allocate(inv, alloc.Amount); err != nil {
			return nil, fmt.Errorf("allocate to %s: %w", inv.Number, err)
		}
		if err := r.invoiceRepo.Save(ctx, inv); err != nil {
			return nil, err
		}
	}
	if err := r.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}

	log.Info("collection reconciled",
		zap.String("matcher", match.Matcher),
		zap.String("payment", payment.Number),
		zap.Int("invoices", len(plan.Allocations)),
		zap.String("unallocated", plan.RemainingAmount.StringFixed(2)),
	)
	r.metrics.ReconciliationMatched(ctx, match.Matcher)
	return payment, nil
}

// Reverse cancels the payment registered for a collection and restores the
// residual of every invoice it paid. A collection without a payment is a
// no-op.
func (r *Reconciler) Reverse(ctx context.Context, c *collection.Collection) error {
	return r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := r.paymentRepo.FindByCollection(ctx, c.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				c.LinkPayment(nil)
				return nil
			}
			return err
		}
		if p.Status == billing.PaymentStatusCancelled {
			c.LinkPayment(nil)
			return nil
		}
		if err := r.cancelPayment(ctx, p); err != nil {
			return err
		}
		c.LinkPayment(nil)
		r.logger.Info("collection payment reversed",
			zap.String("collection_id", c.ID.String()),
			zap.String("payment", p.Number),
		)
		return nil
	})
}

func (r *Reconciler) cancelPayment(ctx context.Context, p *billing.Payment) error {
	allocations, err := p.Cancel()
	if err != nil {
		return err
	}
	if len(allocations) > 0 {
		ids := make([]uuid.UUID, len(allocations))
		for i, a := range allocations {
			ids[i] = a.InvoiceID
		}
		invoices, err := r.invoiceRepo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*billing.Invoice, len(invoices))
		for i := range invoices {
			byID[invoices[i].ID] = &invoices[i]
		}
		for _, a := range allocations {
			inv, ok := byID[a.InvoiceID]
			if !ok {
				continue
			}
			if err := inv.ReversePayment(a.Amount); err != nil {
				return fmt.Errorf("reverse on %s: %w", inv.Number, err)
			}
			if err := r.invoiceRepo.Save(ctx, inv); err != nil {
				return err
			}
		}
	}
	return r.paymentRepo.Save(ctx, p)
}
