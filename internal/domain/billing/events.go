package billing

import (
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInvoice = "Invoice"

	EventTypeInvoicePosted = "InvoicePosted"
)

// InvoicePostedEvent is raised when an invoice becomes payable
type InvoicePostedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Number      string          `json:"number"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	InvoiceType InvoiceType     `json:"invoice_type"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewInvoicePostedEvent creates an InvoicePostedEvent
func NewInvoicePostedEvent(i *Invoice) *InvoicePostedEvent {
	return &InvoicePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePosted, AggregateTypeInvoice, i.ID),
		InvoiceID:       i.ID,
		Number:          i.Number,
		TenantID:        i.TenantID,
		InvoiceType:     i.InvoiceType,
		Amount:          i.AmountTotal,
	}
}
