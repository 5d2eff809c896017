package agreement

import (
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names published by agreements
const (
	AggregateTypeAgreement = "Agreement"

	EventTypeAgreementCreated    = "AgreementCreated"
	EventTypeAgreementActivated  = "AgreementActivated"
	EventTypeAgreementTerminated = "AgreementTerminated"
	EventTypeAgreementExpired    = "AgreementExpired"
)

// AgreementCreatedEvent is raised when a draft agreement is registered
type AgreementCreatedEvent struct {
	shared.BaseDomainEvent
	AgreementID uuid.UUID       `json:"agreement_id"`
	Number      string          `json:"number"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	RoomID      uuid.UUID       `json:"room_id"`
	RentAmount  decimal.Decimal `json:"rent_amount"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
}

// NewAgreementCreatedEvent creates a new AgreementCreatedEvent
func NewAgreementCreatedEvent(a *Agreement) *AgreementCreatedEvent {
	return &AgreementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgreementCreated, AggregateTypeAgreement, a.ID),
		AgreementID:     a.ID,
		Number:          a.Number,
		TenantID:        a.TenantID,
		RoomID:          a.RoomID,
		RentAmount:      a.RentAmount,
		StartDate:       a.StartDate,
		EndDate:         a.EndDate,
	}
}

// AgreementStateChangedEvent is raised on activation, termination and expiry
type AgreementStateChangedEvent struct {
	shared.BaseDomainEvent
	AgreementID uuid.UUID `json:"agreement_id"`
	Number      string    `json:"number"`
	TenantID    uuid.UUID `json:"tenant_id"`
	RoomID      uuid.UUID `json:"room_id"`
	State       State     `json:"state"`
}

// NewAgreementStateChangedEvent creates a state change event of the given type
func NewAgreementStateChangedEvent(a *Agreement, eventType string) *AgreementStateChangedEvent {
	return &AgreementStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeAgreement, a.ID),
		AgreementID:     a.ID,
		Number:          a.Number,
		TenantID:        a.TenantID,
		RoomID:          a.RoomID,
		State:           a.State,
	}
}
