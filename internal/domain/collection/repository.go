package collection

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows collection queries
type Filter struct {
	shared.Filter
	TenantID    *uuid.UUID
	AgreementID *uuid.UUID
	Status      *Status
	Type        *Type
	FromDate    *time.Time
	ToDate      *time.Time
}

// Repository persists collections
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Collection, error)
	FindAll(ctx context.Context, filter Filter) ([]Collection, int64, error)
	// FindPaidByTenants returns paid collections of the given tenants
	FindPaidByTenants(ctx context.Context, tenantIDs []uuid.UUID) ([]Collection, error)
	FindPaidByTenant(ctx context.Context, tenantID uuid.UUID) ([]Collection, error)
	// FindPaidWithoutStatement returns paid collections that have no ledger entry
	FindPaidWithoutStatement(ctx context.Context) ([]Collection, error)
	FindByAgreement(ctx context.Context, agreementID uuid.UUID) ([]Collection, error)
	FindRecent(ctx context.Context, limit int) ([]Collection, error)
	// SumBetween totals non-cancelled collections dated in [from, to]
	SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	Save(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReceiptNumberGenerator issues receipt numbers
type ReceiptNumberGenerator interface {
	NextReceiptNumber(ctx context.Context, at time.Time) (string, error)
}
