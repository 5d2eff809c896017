package billing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/billing"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"go.uber.org/zap"
)

// JobGenerateMonthlyInvoices is the batch job name
const JobGenerateMonthlyInvoices = "generate_monthly_invoices"

// GenerateMonthlyInvoices issues this month's rent invoice for every active
// agreement with auto generation on. Agreements already invoiced for the
// month are skipped. Each agreement runs in its own savepoint.
func (s *InvoiceService) GenerateMonthlyInvoices(ctx context.Context) (*shared.BatchResult, error) {
	start := time.Now()
	today := s.today()
	monthStart := calendar.MonthStart(today)
	result := shared.NewBatchResult(JobGenerateMonthlyInvoices)
	posted := make([]shared.EventSource, 0)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.agreementRepo.FindByState(ctx, agreement.StateActive)
		if err != nil {
			return err
		}
		for i := range active {
			a := &active[i]
			if !billing.MonthlyInvoiceDue(a, today) {
				continue
			}
			var inv *billing.Invoice
			err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				exists, err := s.invoiceRepo.ExistsForAgreementBetween(ctx, a.ID, billing.InvoiceTypeRent, monthStart, today)
				if err != nil {
					return err
				}
				if exists {
					return shared.ErrDuplicateEntry
				}
				number, err := s.numbers.NextInvoiceNumber(ctx, today)
				if err != nil {
					return err
				}
				if inv, err = billing.MonthlyRentInvoice(number, a, today); err != nil {
					return err
				}
				if a.AutoPostInvoices {
					if err := inv.Post(); err != nil {
						return err
					}
				}
				return s.invoiceRepo.Save(ctx, inv)
			})
			result.Record(a.Number, err)
			if err != nil {
				if errors.Is(err, shared.ErrDuplicateEntry) {
					s.logger.Debug("agreement already invoiced this month", zap.String("agreement", a.Number))
					continue
				}
				s.logger.Warn("failed to generate monthly invoice", zap.String("agreement", a.Number), zap.Error(err))
				continue
			}
			result.Created++
			posted = append(posted, inv)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("monthly invoice job failed", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, posted...)
	s.metrics.JobCompleted(ctx, result, time.Since(start))
	s.logger.Info("monthly invoice job finished",
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
