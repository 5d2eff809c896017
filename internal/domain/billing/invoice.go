// Package billing holds customer invoices, the payments registered against
// them and the rules that reconcile collections with open invoices.
package billing

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoveType distinguishes customer invoices from other accounting moves
type MoveType string

const (
	MoveTypeOutInvoice MoveType = "out_invoice"
)

// InvoiceType is what the invoice bills for
type InvoiceType string

const (
	InvoiceTypeRent        InvoiceType = "rent"
	InvoiceTypeDeposit     InvoiceType = "deposit"
	InvoiceTypeParking     InvoiceType = "parking"
	InvoiceTypeMaintenance InvoiceType = "maintenance"
	InvoiceTypeUtility     InvoiceType = "utility"
	InvoiceTypePenalty     InvoiceType = "penalty"
	InvoiceTypeOther       InvoiceType = "other"
)

// IsValid checks if the invoice type is known
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeRent, InvoiceTypeDeposit, InvoiceTypeParking, InvoiceTypeMaintenance,
		InvoiceTypeUtility, InvoiceTypePenalty, InvoiceTypeOther:
		return true
	}
	return false
}

// InvoiceState is the posting state of an invoice
type InvoiceState string

const (
	InvoiceStateDraft     InvoiceState = "draft"
	InvoiceStatePosted    InvoiceState = "posted"
	InvoiceStateCancelled InvoiceState = "cancelled"
)

// PaymentState tracks how much of a posted invoice has been paid
type PaymentState string

const (
	PaymentStateNotPaid PaymentState = "not_paid"
	PaymentStatePartial PaymentState = "partial"
	PaymentStatePaid    PaymentState = "paid"
)

// OpenPaymentStates are the payment states that can still take money
func OpenPaymentStates() []PaymentState {
	return []PaymentState{PaymentStateNotPaid, PaymentStatePartial}
}

// Invoice is a customer invoice issued to a tenant
type Invoice struct {
	shared.BaseAggregateRoot
	Number         string
	TenantID       uuid.UUID
	AgreementID    *uuid.UUID
	RoomID         *uuid.UUID
	MoveType       MoveType
	InvoiceType    InvoiceType
	InvoiceDate    time.Time
	DueDate        time.Time
	PeriodFrom     *time.Time
	PeriodTo       *time.Time
	AmountTotal    decimal.Decimal
	AmountResidual decimal.Decimal
	State          InvoiceState
	PaymentState   PaymentState
	Description    string
}

// InvoiceParams carries the data for a new invoice
type InvoiceParams struct {
	TenantID     uuid.UUID
	AgreementID  *uuid.UUID
	RoomID       *uuid.UUID
	InvoiceType  InvoiceType
	InvoiceDate  time.Time
	DueDate      time.Time
	PaymentTerms int
	PeriodFrom   *time.Time
	PeriodTo     *time.Time
	Amount       decimal.Decimal
	Description  string
}

// NewInvoice creates a draft invoice. When no due date is given it falls
// PaymentTerms days after the invoice date.
func NewInvoice(number string, p InvoiceParams) (*Invoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if p.TenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant is required")
	}
	if p.InvoiceType == "" {
		p.InvoiceType = InvoiceTypeRent
	}
	if !p.InvoiceType.IsValid() {
		return nil, shared.Errorf("INVALID_INVOICE_TYPE", "Unknown invoice type %s", p.InvoiceType)
	}
	if !p.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	if p.InvoiceDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Invoice date is required")
	}
	if p.PeriodFrom != nil && p.PeriodTo != nil && p.PeriodTo.Before(*p.PeriodFrom) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot be before period start")
	}

	invoiceDate := calendar.DateOf(p.InvoiceDate)
	due := p.DueDate
	if due.IsZero() {
		due = calendar.AddDays(invoiceDate, p.PaymentTerms)
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		TenantID:          p.TenantID,
		AgreementID:       p.AgreementID,
		RoomID:            p.RoomID,
		MoveType:          MoveTypeOutInvoice,
		InvoiceType:       p.InvoiceType,
		InvoiceDate:       invoiceDate,
		DueDate:           calendar.DateOf(due),
		PeriodFrom:        p.PeriodFrom,
		PeriodTo:          p.PeriodTo,
		AmountTotal:       p.Amount,
		AmountResidual:    p.Amount,
		State:             InvoiceStateDraft,
		PaymentState:      PaymentStateNotPaid,
		Description:       p.Description,
	}
	return inv, nil
}

// Post confirms a draft invoice so it can receive payments
func (i *Invoice) Post() error {
	if i.State != InvoiceStateDraft {
		return shared.Errorf("INVALID_STATE", "Cannot post invoice in %s state", i.State)
	}
	i.State = InvoiceStatePosted
	i.touch()
	i.AddDomainEvent(NewInvoicePostedEvent(i))
	return nil
}

// Cancel voids an invoice that has not received any payment
func (i *Invoice) Cancel() error {
	if i.State == InvoiceStateCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	if i.PaymentState != PaymentStateNotPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel an invoice with payments applied")
	}
	i.State = InvoiceStateCancelled
	i.touch()
	return nil
}

// IsOpen reports whether the invoice can take a payment
func (i *Invoice) IsOpen() bool {
	return i.State == InvoiceStatePosted && i.PaymentState != PaymentStatePaid && i.AmountResidual.IsPositive()
}

// ApplyPayment reduces the residual by amount
func (i *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if !i.IsOpen() {
		return shared.Errorf("INVALID_STATE", "Cannot apply payment to invoice %s", i.Number)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(i.AmountResidual) {
		return shared.Errorf("EXCEEDS_OUTSTANDING", "Payment amount %s exceeds residual %s", amount.StringFixed(2), i.AmountResidual.StringFixed(2))
	}
	i.AmountResidual = i.AmountResidual.Sub(amount)
	i.refreshPaymentState()
	i.touch()
	return nil
}

// ReversePayment restores amount to the residual, for example when the
// collection behind a payment is cancelled
func (i *Invoice) ReversePayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}
	restored := i.AmountResidual.Add(amount)
	if restored.GreaterThan(i.AmountTotal) {
		return shared.NewDomainError("EXCEEDS_TOTAL", "Reversal would exceed the invoice total")
	}
	i.AmountResidual = restored
	i.refreshPaymentState()
	i.touch()
	return nil
}

// PaidAmount is what has been applied so far
func (i *Invoice) PaidAmount() decimal.Decimal {
	return i.AmountTotal.Sub(i.AmountResidual)
}

// IsOverdue reports whether a posted invoice is past its due date with money outstanding
func (i *Invoice) IsOverdue(today time.Time) bool {
	return i.IsOpen() && i.DueDate.Before(calendar.DateOf(today))
}

func (i *Invoice) refreshPaymentState() {
	switch {
	case i.AmountResidual.IsZero():
		i.PaymentState = PaymentStatePaid
	case i.AmountResidual.Equal(i.AmountTotal):
		i.PaymentState = PaymentStateNotPaid
	default:
		i.PaymentState = PaymentStatePartial
	}
}

func (i *Invoice) touch() {
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}
