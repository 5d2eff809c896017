package document

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists documents
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindByOwner lists the owner's documents, oldest first. Deleted ones
	// are left out.
	FindByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) ([]Document, error)
	CountActiveByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) (int64, error)
	// FindPendingBefore lists uploads still pending that were started before t
	FindPendingBefore(ctx context.Context, t time.Time, limit int) ([]Document, error)
	Save(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}
