package collection

import (
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCollectionRequest represents money received from a tenant. A zero
// amount is filled from the agreement for rent, deposit and parking types.
type CreateCollectionRequest struct {
	TenantID       uuid.UUID       `json:"tenant_id" binding:"required"`
	AgreementID    *uuid.UUID      `json:"agreement_id"`
	RoomID         *uuid.UUID      `json:"room_id"`
	Date           time.Time       `json:"date" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	CollectionType string          `json:"collection_type" binding:"omitempty,oneof=rent deposit token parking_charges parking_deposit other_charges extra penalty maintenance utility outstanding other"`
	PaymentMethod  string          `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer cheque online card"`
	Status         string          `json:"status" binding:"omitempty,oneof=draft collected verified deposited"`
	PeriodFrom     *time.Time      `json:"period_from"`
	PeriodTo       *time.Time      `json:"period_to"`
	DueDate        *time.Time      `json:"due_date"`
	Reference      string          `json:"reference" binding:"max=100"`
	CollectedBy    string          `json:"collected_by" binding:"max=100"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

// UpdateCollectionRequest edits the free-text fields and the due date
type UpdateCollectionRequest struct {
	DueDate     *time.Time `json:"due_date"`
	Reference   *string    `json:"reference" binding:"omitempty,max=100"`
	CollectedBy *string    `json:"collected_by" binding:"omitempty,max=100"`
	Notes       *string    `json:"notes" binding:"omitempty,max=2000"`
}

// Status actions
const (
	ActionCollect = "collect"
	ActionVerify  = "verify"
	ActionDeposit = "deposit"
	ActionCancel  = "cancel"
)

// StatusAction moves a collection through its workflow
type StatusAction struct {
	Action string `json:"action" binding:"required,oneof=collect verify deposit cancel"`
}

// CollectionListFilter represents collection list query parameters
type CollectionListFilter struct {
	Search         string     `form:"search"`
	TenantID       *uuid.UUID `form:"-"`
	AgreementID    *uuid.UUID `form:"-"`
	Status         string     `form:"status" binding:"omitempty,oneof=draft collected verified deposited cancelled"`
	CollectionType string     `form:"collection_type"`
	FromDate       *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate         *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page           int        `form:"page" binding:"min=0"`
	PageSize       int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CollectionResponse represents a collection
type CollectionResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	ReceiptNumber    string          `json:"receipt_number"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	RoomID           *uuid.UUID      `json:"room_id,omitempty"`
	AgreementID      *uuid.UUID      `json:"agreement_id,omitempty"`
	RoomNumber       string          `json:"room_number,omitempty"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount_collected"`
	CollectionType   string          `json:"collection_type"`
	PaymentMethod    string          `json:"payment_method"`
	Status           string          `json:"status"`
	PeriodFrom       *time.Time      `json:"period_from,omitempty"`
	PeriodTo         *time.Time      `json:"period_to,omitempty"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	DaysLate         int             `json:"days_late"`
	StatementEntryID *uuid.UUID      `json:"statement_entry_id,omitempty"`
	PaymentID        *uuid.UUID      `json:"payment_id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	CollectedBy      string          `json:"collected_by,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToCollectionResponse converts a domain collection
func ToCollectionResponse(c *collection.Collection) CollectionResponse {
	return CollectionResponse{
		ID:               c.ID,
		Name:             c.Name,
		ReceiptNumber:    c.ReceiptNumber,
		TenantID:         c.TenantID,
		RoomID:           c.RoomID,
		AgreementID:      c.AgreementID,
		RoomNumber:       c.RoomNumber,
		Date:             c.Date,
		Amount:           c.Amount,
		CollectionType:   string(c.Type),
		PaymentMethod:    string(c.PaymentMethod),
		Status:           string(c.Status),
		PeriodFrom:       c.PeriodFrom,
		PeriodTo:         c.PeriodTo,
		DueDate:          c.DueDate,
		DaysLate:         c.DaysLate,
		StatementEntryID: c.StatementEntryID,
		PaymentID:        c.PaymentID,
		Reference:        c.Reference,
		CollectedBy:      c.CollectedBy,
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
