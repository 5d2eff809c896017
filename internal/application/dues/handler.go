package dues

import (
	"context"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared"
	"go.uber.org/zap"
)

// RefreshHandler rebuilds the snapshot when money or agreements change
type RefreshHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewRefreshHandler creates a RefreshHandler
func NewRefreshHandler(service *Service, logger *zap.Logger) *RefreshHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshHandler{service: service, logger: logger}
}

// EventTypes returns the events that change dues
func (h *RefreshHandler) EventTypes() []string {
	return []string{
		collection.EventTypeCollectionRecorded,
		collection.EventTypeCollectionCancelled,
		agreement.EventTypeAgreementActivated,
		agreement.EventTypeAgreementTerminated,
		agreement.EventTypeAgreementExpired,
	}
}

// Handle rebuilds the snapshot
func (h *RefreshHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Debug("refreshing dues",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	_, err := h.service.Rebuild(ctx)
	return err
}

var _ shared.EventHandler = (*RefreshHandler)(nil)
