package dues

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// JobCollectionReminders is the batch job name
const JobCollectionReminders = "collection_reminders"

// Reminder is one overdue tenant to chase
type Reminder struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	TenantName       string          `json:"tenant_name"`
	RoomName         string          `json:"room_name"`
	AgreementNumber  string          `json:"agreement_number"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	DaysOverdue      int             `json:"days_overdue"`
	Status           dues.Status     `json:"status"`
	NextDueDate      time.Time       `json:"next_due_date"`
}

// CollectionReminders lists tenants whose dues are overdue, longest overdue
// first, and logs a reminder for each. Tenants overdue for fewer than the
// reminder threshold are skipped. The snapshot is rebuilt first when it
// is not from today.
func (s *Service) CollectionReminders(ctx context.Context) ([]Reminder, *shared.BatchResult, error) {
	start := time.Now()
	today := calendar.DateOf(s.clock())
	if !s.current.Load().AsOf.Equal(today) {
		if _, err := s.Rebuild(ctx); err != nil {
			return nil, nil, err
		}
	}

	result := shared.NewBatchResult(JobCollectionReminders)
	overdue := s.current.Load().Overdue()
	reminders := make([]Reminder, 0, len(overdue))
	for _, d := range overdue {
		if d.DaysOverdue < s.reminderMinDays {
			result.Record(d.TenantName, nil)
			result.Skipped++
			continue
		}
		reminders = append(reminders, Reminder{
			TenantID:         d.TenantID,
			TenantName:       d.TenantName,
			RoomName:         d.RoomName,
			AgreementNumber:  d.AgreementNumber,
			TotalOutstanding: d.TotalOutstanding,
			DaysOverdue:      d.DaysOverdue,
			Status:           d.Status,
			NextDueDate:      d.NextDueDate,
		})
		result.Record(d.TenantName, nil)
		result.Created++
		s.logger.Info("collection reminder",
			zap.String("tenant", d.TenantName),
			zap.String("room", d.RoomName),
			zap.String("outstanding", d.TotalOutstanding.StringFixed(2)),
			zap.Int("days_overdue", d.DaysOverdue),
			zap.String("status", string(d.Status)),
		)
	}

	s.metrics.JobCompleted(ctx, result, time.Since(start))
	return reminders, result, nil
}
