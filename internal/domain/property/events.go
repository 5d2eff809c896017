package property

import (
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeProperty and AggregateTypeRoom name the aggregates in events
const (
	AggregateTypeProperty = "Property"
	AggregateTypeRoom     = "Room"

	EventTypePropertyCreated   = "PropertyCreated"
	EventTypeRoomStatusChanged = "RoomStatusChanged"
)

// PropertyCreatedEvent is raised when a property is registered
type PropertyCreatedEvent struct {
	shared.BaseDomainEvent
	PropertyID uuid.UUID `json:"property_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewPropertyCreatedEvent creates a new PropertyCreatedEvent
func NewPropertyCreatedEvent(p *Property) *PropertyCreatedEvent {
	return &PropertyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertyCreated, AggregateTypeProperty, p.ID),
		PropertyID:      p.ID,
		Code:            p.Code,
		Name:            p.Name,
	}
}

// RoomStatusChangedEvent is raised when a room is occupied or vacated
type RoomStatusChangedEvent struct {
	shared.BaseDomainEvent
	RoomID   uuid.UUID  `json:"room_id"`
	Status   RoomStatus `json:"status"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// NewRoomStatusChangedEvent creates a new RoomStatusChangedEvent
func NewRoomStatusChangedEvent(r *Room) *RoomStatusChangedEvent {
	return &RoomStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomStatusChanged, AggregateTypeRoom, r.ID),
		RoomID:          r.ID,
		Status:          r.Status,
		TenantID:        r.CurrentTenantID,
	}
}
