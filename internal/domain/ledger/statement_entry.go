package ledger

import (
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a statement entry
type TransactionType string

const (
	TypeInvoice      TransactionType = "invoice"
	TypePayment      TransactionType = "payment"
	TypeDeposit      TransactionType = "deposit"
	TypeRent         TransactionType = "rent"
	TypeParking      TransactionType = "parking"
	TypeOutstanding  TransactionType = "outstanding"
	TypeOther        TransactionType = "other"
	TypeOtherCharges TransactionType = "other_charges"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeInvoice, TypePayment, TypeDeposit, TypeRent, TypeParking,
		TypeOutstanding, TypeOther, TypeOtherCharges:
		return true
	}
	return false
}

// AllTypes lists every transaction type in display order
func AllTypes() []TransactionType {
	return []TransactionType{
		TypeOutstanding, TypeDeposit, TypeRent, TypeParking, TypeOtherCharges,
		TypeOther, TypeInvoice, TypePayment,
	}
}

// StatementEntry is one line of a tenant's ledger. Debits raise what the
// tenant owes, credits lower it. RunningBalance is derived and includes the
// entry itself.
type StatementEntry struct {
	shared.BaseEntity
	// Sequence is assigned by the store on insert and breaks ties between
	// entries on the same date
	Sequence        int64
	TenantID        uuid.UUID
	TransactionDate time.Time
	Reference       string
	Description     string
	Type            TransactionType
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	RunningBalance  decimal.Decimal
	RoomID          *uuid.UUID
	AgreementID     *uuid.UUID
	CollectionID    *uuid.UUID
}

// NewEntry validates and builds an entry
func NewEntry(tenantID uuid.UUID, date time.Time, reference, description string, typ TransactionType, debit, credit decimal.Decimal) (*StatementEntry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant is required")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Transaction date is required")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference cannot be empty")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Transaction type is not valid")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Debit and credit cannot be negative")
	}
	return &StatementEntry{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		TransactionDate: calendar.DateOf(date),
		Reference:       reference,
		Description:     description,
		Type:            typ,
		Debit:           debit,
		Credit:          credit,
		RunningBalance:  decimal.Zero,
	}, nil
}

// NewDebit builds a charge entry
func NewDebit(tenantID uuid.UUID, date time.Time, reference, description string, typ TransactionType, amount decimal.Decimal) (*StatementEntry, error) {
	return NewEntry(tenantID, date, reference, description, typ, amount, decimal.Zero)
}

// NewCredit builds a payment entry
func NewCredit(tenantID uuid.UUID, date time.Time, reference, description string, typ TransactionType, amount decimal.Decimal) (*StatementEntry, error) {
	return NewEntry(tenantID, date, reference, description, typ, decimal.Zero, amount)
}

// Net is debit minus credit
func (e *StatementEntry) Net() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// IsZero reports whether the entry moves no money
func (e *StatementEntry) IsZero() bool {
	return e.Debit.IsZero() && e.Credit.IsZero()
}

// WithLinks sets the optional room and agreement links
func (e *StatementEntry) WithLinks(roomID, agreementID *uuid.UUID) *StatementEntry {
	e.RoomID = roomID
	e.AgreementID = agreementID
	return e
}
