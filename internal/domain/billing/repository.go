package billing

import (
	"context"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	TenantID     *uuid.UUID
	AgreementID  *uuid.UUID
	State        *InvoiceState
	PaymentState *PaymentState
	From         *time.Time
	To           *time.Time
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	InvoiceFinder
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)
	// ExistsForAgreementBetween reports whether a non-cancelled invoice of the
	// given type is dated within [from, to]
	ExistsForAgreementBetween(ctx context.Context, agreementID uuid.UUID, invoiceType InvoiceType, from, to time.Time) (bool, error)
	Save(ctx context.Context, inv *Invoice) error
	DeleteByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error)
}

// PaymentRepository persists payments and their allocations
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByCollection(ctx context.Context, collectionID uuid.UUID) (*Payment, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Payment, error)
	Save(ctx context.Context, p *Payment) error
	DeleteByCollections(ctx context.Context, collectionIDs []uuid.UUID) (int64, error)
}

// NumberGenerator issues invoice and payment numbers
type NumberGenerator interface {
	NextInvoiceNumber(ctx context.Context, at time.Time) (string, error)
	NextPaymentNumber(ctx context.Context, at time.Time) (string, error)
}
