package agreement

import (
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest attaches a catalog charge. A positive amount overrides the
// catalog amount.
type ChargeRequest struct {
	ChargeID uuid.UUID       `json:"charge_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// CreateAgreementRequest represents a request to draft an agreement. Zero
// rent, deposit and parking fall back to the room's amounts.
type CreateAgreementRequest struct {
	TenantID             uuid.UUID       `json:"tenant_id" binding:"required"`
	RoomID               uuid.UUID       `json:"room_id" binding:"required"`
	AgentID              *uuid.UUID      `json:"agent_id"`
	StartDate            time.Time       `json:"start_date" binding:"required"`
	EndDate              time.Time       `json:"end_date" binding:"required"`
	RentAmount           decimal.Decimal `json:"rent_amount"`
	DepositAmount        decimal.Decimal `json:"deposit_amount"`
	ParkingCharges       decimal.Decimal `json:"parking_charges"`
	OpeningBalance       decimal.Decimal `json:"opening_balance"`
	PaymentDay           int             `json:"payment_day" binding:"omitempty,min=1,max=31"`
	PaymentTerms         int             `json:"payment_terms" binding:"omitempty,min=0"`
	AutoGenerateInvoices *bool           `json:"auto_generate_invoices"`
	AutoPostInvoices     *bool           `json:"auto_post_invoices"`
	InvoiceDay           int             `json:"invoice_day" binding:"omitempty,min=1,max=28"`
	AdvanceInvoiceDays   int             `json:"advance_invoice_days" binding:"omitempty,min=0"`
	Notes                string          `json:"notes" binding:"max=2000"`
	Charges              []ChargeRequest `json:"charges" binding:"omitempty,dive"`
}

// UpdateAgreementRequest represents a request to amend an agreement. Nil
// fields keep their current value.
type UpdateAgreementRequest struct {
	AgentID              *uuid.UUID       `json:"agent_id"`
	StartDate            *time.Time       `json:"start_date"`
	EndDate              *time.Time       `json:"end_date"`
	RentAmount           *decimal.Decimal `json:"rent_amount"`
	DepositAmount        *decimal.Decimal `json:"deposit_amount"`
	ParkingCharges       *decimal.Decimal `json:"parking_charges"`
	OpeningBalance       *decimal.Decimal `json:"opening_balance"`
	PaymentDay           *int             `json:"payment_day" binding:"omitempty,min=1,max=31"`
	PaymentTerms         *int             `json:"payment_terms" binding:"omitempty,min=0"`
	AutoGenerateInvoices *bool            `json:"auto_generate_invoices"`
	AutoPostInvoices     *bool            `json:"auto_post_invoices"`
	InvoiceDay           *int             `json:"invoice_day" binding:"omitempty,min=1,max=28"`
	Notes                *string          `json:"notes" binding:"omitempty,max=2000"`
	Charges              []ChargeRequest  `json:"charges" binding:"omitempty,dive"`
}

// TerminateRequest carries the termination reason
type TerminateRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AgreementListFilter represents agreement list query parameters
type AgreementListFilter struct {
	Search   string     `form:"search"`
	TenantID *uuid.UUID `form:"-"`
	RoomID   *uuid.UUID `form:"-"`
	State    string     `form:"state" binding:"omitempty,oneof=draft active expired terminated cancelled"`
	Page     int        `form:"page" binding:"min=0"`
	PageSize int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ChargeResponse represents an attached charge
type ChargeResponse struct {
	ID           uuid.UUID       `json:"id"`
	ChargeID     uuid.UUID       `json:"charge_id"`
	Name         string          `json:"name"`
	ChargeType   string          `json:"charge_type"`
	Amount       decimal.Decimal `json:"amount"`
	CustomAmount bool            `json:"custom_amount"`
}

// AgreementResponse represents an agreement in API responses
type AgreementResponse struct {
	ID                     uuid.UUID        `json:"id"`
	Number                 string           `json:"number"`
	TenantID               uuid.UUID        `json:"tenant_id"`
	RoomID                 uuid.UUID        `json:"room_id"`
	AgentID                *uuid.UUID       `json:"agent_id,omitempty"`
	StartDate              time.Time        `json:"start_date"`
	EndDate                time.Time        `json:"end_date"`
	RentAmount             decimal.Decimal  `json:"rent_amount"`
	DepositAmount          decimal.Decimal  `json:"deposit_amount"`
	ParkingCharges         decimal.Decimal  `json:"parking_charges"`
	OpeningBalance         decimal.Decimal  `json:"opening_balance"`
	OpeningBalanceRecorded bool             `json:"opening_balance_recorded"`
	PaymentDay             int              `json:"payment_day"`
	PaymentTerms           int              `json:"payment_terms"`
	AutoGenerateInvoices   bool             `json:"auto_generate_invoices"`
	AutoPostInvoices       bool             `json:"auto_post_invoices"`
	InvoiceDay             int              `json:"invoice_day"`
	State                  string           `json:"state"`
	ActivatedAt            *time.Time       `json:"activated_at,omitempty"`
	TerminatedAt           *time.Time       `json:"terminated_at,omitempty"`
	TerminationReason      string           `json:"termination_reason,omitempty"`
	Notes                  string           `json:"notes"`
	Charges                []ChargeResponse `json:"charges"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
	Version                int              `json:"version"`
}

// ToAgreementResponse converts a domain agreement
func ToAgreementResponse(a *agreement.Agreement) AgreementResponse {
	charges := make([]ChargeResponse, len(a.Charges))
	for i, c := range a.Charges {
		charges[i] = ChargeResponse{
			ID:           c.ID,
			ChargeID:     c.ChargeID,
			Name:         c.Name,
			ChargeType:   string(c.ChargeType),
			Amount:       c.Amount,
			CustomAmount: c.CustomAmount,
		}
	}
	return AgreementResponse{
		ID:                     a.ID,
		Number:                 a.Number,
		TenantID:               a.TenantID,
		RoomID:                 a.RoomID,
		AgentID:                a.AgentID,
		StartDate:              a.StartDate,
		EndDate:                a.EndDate,
		RentAmount:             a.RentAmount,
		DepositAmount:          a.DepositAmount,
		ParkingCharges:         a.ParkingCharges,
		OpeningBalance:         a.OpeningBalance,
		OpeningBalanceRecorded: a.OpeningBalanceRecorded,
		PaymentDay:             a.PaymentDay,
		PaymentTerms:           a.PaymentTerms,
		AutoGenerateInvoices:   a.AutoGenerateInvoices,
		AutoPostInvoices:       a.AutoPostInvoices,
		InvoiceDay:             a.InvoiceDay,
		State:                  string(a.State),
		ActivatedAt:            a.ActivatedAt,
		TerminatedAt:           a.TerminatedAt,
		TerminationReason:      a.TerminationReason,
		Notes:                  a.Notes,
		Charges:                charges,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
		Version:                a.Version,
	}
}

// ExpiringAgreement is one entry of the expiring-agreements notice list
type ExpiringAgreement struct {
	AgreementID   uuid.UUID `json:"agreement_id"`
	Number        string    `json:"number"`
	TenantID      uuid.UUID `json:"tenant_id"`
	RoomID        uuid.UUID `json:"room_id"`
	EndDate       time.Time `json:"end_date"`
	DaysRemaining int       `json:"days_remaining"`
}
