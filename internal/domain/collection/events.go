package collection

import (
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names published by collections
const (
	AggregateTypeCollection = "Collection"

	EventTypeCollectionRecorded  = "CollectionRecorded"
	EventTypeCollectionCancelled = "CollectionCancelled"
)

// CollectionEvent carries the collection facts subscribers need
type CollectionEvent struct {
	shared.BaseDomainEvent
	CollectionID uuid.UUID       `json:"collection_id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         Type            `json:"collection_type"`
	Status       Status          `json:"status"`
}

// NewCollectionRecordedEvent is raised when money is received
func NewCollectionRecordedEvent(c *Collection) *CollectionEvent {
	return newCollectionEvent(c, EventTypeCollectionRecorded)
}

// NewCollectionCancelledEvent is raised when a collection is voided
func NewCollectionCancelledEvent(c *Collection) *CollectionEvent {
	return newCollectionEvent(c, EventTypeCollectionCancelled)
}

func newCollectionEvent(c *Collection, eventType string) *CollectionEvent {
	return &CollectionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCollection, c.ID),
		CollectionID:    c.ID,
		TenantID:        c.TenantID,
		Amount:          c.Amount,
		Type:            c.Type,
		Status:          c.Status,
	}
}
