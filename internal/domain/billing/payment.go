package billing

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal is the book a payment is recorded in
type Journal string

const (
	JournalCash Journal = "cash"
	JournalBank Journal = "bank"
)

// JournalFor picks the journal for a collection payment method
func JournalFor(m collection.PaymentMethod) Journal {
	if m.IsBank() {
		return JournalBank
	}
	return JournalCash
}

// PaymentStatus is the state of a payment
type PaymentStatus string

const (
	PaymentStatusDraft     PaymentStatus = "draft"
	PaymentStatusPosted    PaymentStatus = "posted"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Allocation is the part of a payment applied to one invoice
type Allocation struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Amount        decimal.Decimal
}

// Payment is money received from a tenant and registered against invoices
type Payment struct {
	shared.BaseAggregateRoot
	Number       string
	TenantID     uuid.UUID
	CollectionID *uuid.UUID
	Journal      Journal
	Amount       decimal.Decimal
	Date         time.Time
	Status       PaymentStatus
	Reference    string
	Allocations  []Allocation
}

// NewPayment creates a draft payment
func NewPayment(number string, tenantID uuid.UUID, amount decimal.Decimal, date time.Time, journal Journal) (*Payment, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Payment number cannot be empty")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if journal == "" {
		journal = JournalCash
	}
	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		TenantID:          tenantID,
		Journal:           journal,
		Amount:            amount,
		Date:              calendar.DateOf(date),
		Status:            PaymentStatusDraft,
		Allocations:       make([]Allocation, 0),
	}, nil
}

// NewCollectionPayment creates the payment that mirrors a collection
func NewCollectionPayment(number string, c *collection.Collection) (*Payment, error) {
	p, err := NewPayment(number, c.TenantID, c.Amount, c.Date, JournalFor(c.PaymentMethod))
	if err != nil {
		return nil, err
	}
	id := c.ID
	p.CollectionID = &id
	p.Reference = c.StatementReference()
	return p, nil
}

// Post confirms the payment
func (p *Payment) Post() error {
	if p.Status != PaymentStatusDraft {
		return shared.Errorf("INVALID_STATE", "Cannot post payment in %s state", p.Status)
	}
	p.Status = PaymentStatusPosted
	p.touch()
	return nil
}

// Allocate applies part of a posted payment to an invoice. The invoice is
// updated too.
func (p *Payment) Allocate(inv *Invoice, amount decimal.Decimal) error {
	if p.Status != PaymentStatusPosted {
		return shared.NewDomainError("INVALID_STATE", "Only posted payments can be allocated")
	}
	if inv.TenantID != p.TenantID {
		return shared.NewDomainError("TENANT_MISMATCH", "Invoice belongs to another tenant")
	}
	if amount.GreaterThan(p.Unallocated()) {
		return shared.NewDomainError("EXCEEDS_UNALLOCATED", "Allocation exceeds the unallocated amount")
	}
	if err := inv.ApplyPayment(amount); err != nil {
		return err
	}
	p.Allocations = append(p.Allocations, Allocation{
		ID:            uuid.New(),
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		Amount:        amount,
	})
	p.touch()
	return nil
}

// Allocated is the sum of all allocations
func (p *Payment) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// Unallocated is what is left to apply
func (p *Payment) Unallocated() decimal.Decimal {
	return p.Amount.Sub(p.Allocated())
}

// Cancel voids the payment and returns the allocations the caller must
// reverse on the invoices
func (p *Payment) Cancel() ([]Allocation, error) {
	if p.Status == PaymentStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Payment is already cancelled")
	}
	reversed := p.Allocations
	p.Allocations = make([]Allocation, 0)
	p.Status = PaymentStatusCancelled
	p.touch()
	return reversed, nil
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
