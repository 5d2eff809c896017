package agreement

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows agreement queries
type Filter struct {
	shared.Filter
	TenantID *uuid.UUID
	RoomID   *uuid.UUID
	States   []State
}

// AgentStat is the per-agent aggregate used by the dashboard
type AgentStat struct {
	AgentID     uuid.UUID
	TenantCount int64
	TotalRent   decimal.Decimal
}

// Repository persists agreements together with their charges
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Agreement, error)
	FindAll(ctx context.Context, filter Filter) ([]Agreement, int64, error)
	FindByState(ctx context.Context, states ...State) ([]Agreement, error)
	// FindOverlapping returns draft or active agreements on the room whose
	// range intersects [start, end), excluding excludeID
	FindOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]Agreement, error)
	FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*Agreement, error)
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) (*Agreement, error)
	FindExpiring(ctx context.Context, until time.Time) ([]Agreement, error)
	AgentStats(ctx context.Context, limit int) ([]AgentStat, error)
	Save(ctx context.Context, a *Agreement) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NumberGenerator issues agreement numbers
type NumberGenerator interface {
	NextAgreementNumber(ctx context.Context, at time.Time) (string, error)
}
