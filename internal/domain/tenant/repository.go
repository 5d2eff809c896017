package tenant

import (
	"context"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows tenant queries
type Filter struct {
	shared.Filter
	Status *Status
}

// Repository persists tenants
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByMobile(ctx context.Context, mobile string) (*Tenant, error)
	FindByIDPassport(ctx context.Context, idPassport string) (*Tenant, error)
	FindAll(ctx context.Context, filter Filter) ([]Tenant, int64, error)
	FindIDs(ctx context.Context) ([]uuid.UUID, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Tenant, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
	Save(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OccupantRepository persists occupants
type OccupantRepository interface {
	FindByAgreement(ctx context.Context, agreementID uuid.UUID) ([]Occupant, error)
	FindByIDPassport(ctx context.Context, idPassport string) (*Occupant, error)
	Save(ctx context.Context, o *Occupant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AgentRepository persists agents
type AgentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindAll(ctx context.Context) ([]Agent, error)
	Save(ctx context.Context, a *Agent) error
}
