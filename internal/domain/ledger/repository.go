package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantBalance is the latest running balance of a tenant
type TenantBalance struct {
	TenantID uuid.UUID
	Balance  decimal.Decimal
}

// Totals sums debits and credits
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Repository persists statement entries. Every method honours a transaction
// carried in ctx.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StatementEntry, error)
	ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error)
	ExistsByCollection(ctx context.Context, collectionID uuid.UUID) (bool, error)
	// Create inserts the entry and assigns its sequence
	Create(ctx context.Context, e *StatementEntry) error
	// FindByTenant returns all entries of a tenant in ledger order
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]*StatementEntry, error)
	FindByTenantBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*StatementEntry, error)
	// LastBefore returns the last entry dated before date, or nil
	LastBefore(ctx context.Context, tenantID uuid.UUID, date time.Time) (*StatementEntry, error)
	FindByCollection(ctx context.Context, collectionID uuid.UUID) (*StatementEntry, error)
	CountByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error)
	DeleteByCollection(ctx context.Context, collectionID uuid.UUID) (int64, error)
	DeleteByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error)
	// DeleteGenerated removes entries of the given types that are not linked
	// to a collection. A nil tenantID targets every tenant.
	DeleteGenerated(ctx context.Context, tenantID *uuid.UUID, types []TransactionType) (int64, error)
	UpdateRunningBalances(ctx context.Context, entries []*StatementEntry) error
	TenantIDs(ctx context.Context) ([]uuid.UUID, error)
	LatestBalances(ctx context.Context) ([]TenantBalance, error)
	SumBetween(ctx context.Context, from, to time.Time) (Totals, error)
}
