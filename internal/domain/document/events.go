package document

import (
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentConfirmedEvent is raised when an uploaded file is confirmed
type DocumentConfirmedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID `json:"document_id"`
	OwnerType  OwnerType `json:"owner_type"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Kind       Kind      `json:"kind"`
	FileName   string    `json:"file_name"`
}

// NewDocumentConfirmedEvent creates a new DocumentConfirmedEvent
func NewDocumentConfirmedEvent(d *Document) *DocumentConfirmedEvent {
	return &DocumentConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentConfirmed", "Document", d.ID),
		DocumentID:      d.ID,
		OwnerType:       d.OwnerType,
		OwnerID:         d.OwnerID,
		Kind:            d.Kind,
		FileName:        d.FileName,
	}
}
