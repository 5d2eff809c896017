package billing

import (
	"time"

	"github.com/erp/rental/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest represents a request to issue an invoice
type CreateInvoiceRequest struct {
	TenantID     uuid.UUID       `json:"tenant_id" binding:"required"`
	AgreementID  *uuid.UUID      `json:"agreement_id"`
	RoomID       *uuid.UUID      `json:"room_id"`
	InvoiceType  string          `json:"invoice_type" binding:"omitempty,oneof=rent deposit parking maintenance utility penalty other"`
	InvoiceDate  time.Time       `json:"invoice_date" binding:"required"`
	DueDate      *time.Time      `json:"due_date"`
	PaymentTerms int             `json:"payment_terms" binding:"omitempty,min=0"`
	PeriodFrom   *time.Time      `json:"period_from"`
	PeriodTo     *time.Time      `json:"period_to"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Description  string          `json:"description" binding:"max=500"`
	Post         bool            `json:"post"`
}

// RegisterPaymentRequest represents a manual payment against one invoice
type RegisterPaymentRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Date    *time.Time      `json:"date"`
	Journal string          `json:"journal" binding:"omitempty,oneof=cash bank"`
}

// InvoiceListFilter represents invoice list query parameters
type InvoiceListFilter struct {
	TenantID     *uuid.UUID `form:"-"`
	AgreementID  *uuid.UUID `form:"-"`
	State        string     `form:"state" binding:"omitempty,oneof=draft posted cancelled"`
	PaymentState string     `form:"payment_state" binding:"omitempty,oneof=not_paid partial paid"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Page         int        `form:"page" binding:"min=0"`
	PageSize     int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice
type InvoiceResponse struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	AgreementID    *uuid.UUID      `json:"agreement_id,omitempty"`
	RoomID         *uuid.UUID      `json:"room_id,omitempty"`
	MoveType       string          `json:"move_type"`
	InvoiceType    string          `json:"invoice_type"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	DueDate        time.Time       `json:"due_date"`
	PeriodFrom     *time.Time      `json:"period_from,omitempty"`
	PeriodTo       *time.Time      `json:"period_to,omitempty"`
	AmountTotal    decimal.Decimal `json:"amount_total"`
	AmountResidual decimal.Decimal `json:"amount_residual"`
	State          string          `json:"state"`
	PaymentState   string          `json:"payment_state"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AllocationResponse is one invoice share of a payment
type AllocationResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment
type PaymentResponse struct {
	ID           uuid.UUID            `json:"id"`
	Number       string               `json:"number"`
	TenantID     uuid.UUID            `json:"tenant_id"`
	CollectionID *uuid.UUID           `json:"collection_id,omitempty"`
	Journal      string               `json:"journal"`
	Amount       decimal.Decimal      `json:"amount"`
	Date         time.Time            `json:"date"`
	Status       string               `json:"status"`
	Reference    string               `json:"reference,omitempty"`
	Allocations  []AllocationResponse `json:"allocations"`
}

// ToInvoiceResponse converts a domain invoice
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		TenantID:       inv.TenantID,
		AgreementID:    inv.AgreementID,
		RoomID:         inv.RoomID,
		MoveType:       string(inv.MoveType),
		InvoiceType:    string(inv.InvoiceType),
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		PeriodFrom:     inv.PeriodFrom,
		PeriodTo:       inv.PeriodTo,
		AmountTotal:    inv.AmountTotal,
		AmountResidual: inv.AmountResidual,
		State:          string(inv.State),
		PaymentState:   string(inv.PaymentState),
		Description:    inv.Description,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = AllocationResponse{
			InvoiceID:     a.InvoiceID,
			InvoiceNumber: a.InvoiceNumber,
			Amount:        a.Amount,
		}
	}
	return PaymentResponse{
		ID:           p.ID,
		Number:       p.Number,
		TenantID:     p.TenantID,
		CollectionID: p.CollectionID,
		Journal:      string(p.Journal),
		Amount:       p.Amount,
		Date:         p.Date,
		Status:       string(p.Status),
		Reference:    p.Reference,
		Allocations:  allocations,
	}
}
