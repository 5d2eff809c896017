package agreement

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"go.uber.org/zap"
)

// Batch job names
const (
	JobExpireAgreements        = "expire_agreements"
	JobCheckExpiringAgreements = "check_expiring_agreements"
)

// ExpireAgreements moves every active agreement whose end date has passed to
// expired and vacates its room. Each agreement runs in its own savepoint.
func (s *AgreementService) ExpireAgreements(ctx context.Context) (*shared.BatchResult, error) {
	start := time.Now()
	today := s.today()
	result := shared.NewBatchResult(JobExpireAgreements)
	expired := make([]shared.EventSource, 0)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.agreementRepo.FindByState(ctx, agreement.StateActive)
		if err != nil {
			return err
		}
		for i := range active {
			a := &active[i]
			if !a.EndDate.Before(today) {
				continue
			}
			var room *property.Room
			err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := a.Expire(today); err != nil {
					return err
				}
				var err error
				if room, err = s.release(ctx, a); err != nil {
					return err
				}
				return s.agreementRepo.Save(ctx, a)
			})
			result.Record(a.Number, err)
			if err != nil {
				s.logger.Warn("failed to expire agreement", zap.String("agreement", a.Number), zap.Error(err))
				continue
			}
			result.Created++
			expired = append(expired, a)
			if room != nil {
				expired = append(expired, room)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("agreement expiry job failed", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, expired...)
	s.logger.Info("agreement expiry job finished",
		zap.Int("processed", result.Processed),
		zap.Int("expired", result.Created),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// CheckExpiringAgreements lists active agreements ending within the notice
// window and logs a notice for each
func (s *AgreementService) CheckExpiringAgreements(ctx context.Context) ([]ExpiringAgreement, *shared.BatchResult, error) {
	today := s.today()
	result := shared.NewBatchResult(JobCheckExpiringAgreements)

	agreements, err := s.agreementRepo.FindExpiring(ctx, calendar.AddDays(today, s.expiringWindow))
	if err != nil {
		return nil, nil, err
	}

	notices := make([]ExpiringAgreement, 0, len(agreements))
	for _, a := range agreements {
		result.Record(a.Number, nil)
		days := calendar.DaysBetween(today, a.EndDate)
		notices = append(notices, ExpiringAgreement{
			AgreementID:   a.ID,
			Number:        a.Number,
			TenantID:      a.TenantID,
			RoomID:        a.RoomID,
			EndDate:       a.EndDate,
			DaysRemaining: days,
		})
		s.logger.Info("agreement expiring soon",
			zap.String("agreement", a.Number),
			zap.String("tenant_id", a.TenantID.String()),
			zap.Time("end_date", a.EndDate),
			zap.Int("days_remaining", days),
		)
	}
	return notices, result, nil
}
