package collection

import (
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is what a collection pays for
type Type string

const (
	TypeRent           Type = "rent"
	TypeDeposit        Type = "deposit"
	TypeToken          Type = "token"
	TypeParkingCharges Type = "parking_charges"
	TypeParkingDeposit Type = "parking_deposit"
	TypeOtherCharges   Type = "other_charges"
	TypeExtra          Type = "extra"
	TypePenalty        Type = "penalty"
	TypeMaintenance    Type = "maintenance"
	TypeUtility        Type = "utility"
	TypeOutstanding    Type = "outstanding"
	TypeOther          Type = "other"
)

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeRent, TypeDeposit, TypeToken, TypeParkingCharges, TypeParkingDeposit,
		TypeOtherCharges, TypeExtra, TypePenalty, TypeMaintenance, TypeUtility,
		TypeOutstanding, TypeOther:
		return true
	}
	return false
}

// IsPeriodic reports whether collections of this type cover a calendar month
func (t Type) IsPeriodic() bool {
	return t == TypeRent || t == TypeParkingCharges
}

// Status is the lifecycle of a collection
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCollected Status = "collected"
	StatusVerified  Status = "verified"
	StatusDeposited Status = "deposited"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusCollected, StatusVerified, StatusDeposited, StatusCancelled:
		return true
	}
	return false
}

// IsPaid reports whether money has actually been received
func (s Status) IsPaid() bool {
	return s == StatusCollected || s == StatusVerified || s == StatusDeposited
}

// PaidStatuses lists the statuses that count as received money
func PaidStatuses() []Status {
	return []Status{StatusCollected, StatusVerified, StatusDeposited}
}

// PaymentMethod is how the money was handed over
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodOnline       PaymentMethod = "online"
	MethodCard         PaymentMethod = "card"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodOnline, MethodCard:
		return true
	}
	return false
}

// IsBank reports whether the money lands in a bank journal
func (m PaymentMethod) IsBank() bool {
	return m == MethodBankTransfer || m == MethodCheque || m == MethodOnline || m == MethodCard
}

// Collection is a payment received from a tenant
type Collection struct {
	shared.BaseAggregateRoot
	Name             string
	ReceiptNumber    string
	TenantID         uuid.UUID
	RoomID           *uuid.UUID
	AgreementID      *uuid.UUID
	RoomNumber       string
	Date             time.Time
	Amount           decimal.Decimal
	Type             Type
	PaymentMethod    PaymentMethod
	Status           Status
	PeriodFrom       *time.Time
	PeriodTo         *time.Time
	DueDate          *time.Time
	DaysLate         int
	StatementEntryID *uuid.UUID
	PaymentID        *uuid.UUID
	Reference        string
	CollectedBy      string
	Notes            string
}

// Params carries user input for a new collection
type Params struct {
	TenantID      uuid.UUID
	TenantName    string
	Date          time.Time
	Amount        decimal.Decimal
	Type          Type
	PaymentMethod PaymentMethod
	Status        Status
	PeriodFrom    *time.Time
	PeriodTo      *time.Time
	Reference     string
	CollectedBy   string
	Notes         string
}

// Placement is where the tenant currently lives. It fills room, agreement
// and default amounts.
type Placement struct {
	Agreement      *agreement.Agreement
	RoomID         *uuid.UUID
	RoomNumber     string
	ParkingDeposit decimal.Decimal
}

// NewCollection builds a collection. A zero amount is filled from the
// agreement for rent, deposit and parking types. Rent and parking charges
// without a period cover the calendar month of the date and fall due on the
// last day of the previous month.
func NewCollection(receiptNumber string, p Params, place Placement) (*Collection, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant is required")
	}
	if p.Date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Collection date is required")
	}
	if p.Type == "" {
		p.Type = TypeRent
	}
	if !p.Type.IsValid() {
		return nil, shared.Errorf("INVALID_TYPE", "Unknown collection type %q", p.Type)
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = MethodCash
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.Errorf("INVALID_PAYMENT_METHOD", "Unknown payment method %q", p.PaymentMethod)
	}
	if p.Status == "" {
		p.Status = StatusCollected
	}
	if !p.Status.IsValid() || p.Status == StatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATUS", "A new collection cannot be cancelled")
	}

	c := &Collection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		TenantID:          p.TenantID,
		Date:              calendar.DateOf(p.Date),
		Amount:            p.Amount,
		Type:              p.Type,
		PaymentMethod:     p.PaymentMethod,
		Status:            p.Status,
		PeriodFrom:        p.PeriodFrom,
		PeriodTo:          p.PeriodTo,
		Reference:         p.Reference,
		CollectedBy:       p.CollectedBy,
		Notes:             p.Notes,
	}
	c.place(place)
	c.derivePeriod()

	if !c.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Collected amount must be greater than zero")
	}
	c.Name = c.buildName(p.TenantName)

	c.AddDomainEvent(NewCollectionRecordedEvent(c))
	return c, nil
}

func (c *Collection) place(place Placement) {
	a := place.Agreement
	if place.RoomID != nil {
		c.RoomID = place.RoomID
	}
	if place.RoomNumber != "" {
		c.RoomNumber = place.RoomNumber
	}
	if a == nil {
		return
	}
	id := a.ID
	c.AgreementID = &id
	if c.RoomID == nil {
		roomID := a.RoomID
		c.RoomID = &roomID
	}
	if !c.Amount.IsZero() {
		return
	}
	switch c.Type {
	case TypeRent:
		c.Amount = a.RentAmount
	case TypeDeposit:
		c.Amount = a.DepositAmount
	case TypeParkingCharges:
		c.Amount = a.ParkingCharges
	case TypeParkingDeposit:
		c.Amount = place.ParkingDeposit
	}
}

func (c *Collection) derivePeriod() {
	if !c.Type.IsPeriodic() || c.PeriodFrom != nil || c.PeriodTo != nil {
		c.computeDaysLate()
		return
	}
	from := calendar.MonthStart(c.Date)
	to := calendar.MonthEnd(c.Date)
	due := calendar.AddDays(from, -1)
	c.PeriodFrom = &from
	c.PeriodTo = &to
	c.DueDate = &due
	c.computeDaysLate()
}

func (c *Collection) computeDaysLate() {
	c.DaysLate = 0
	if c.DueDate == nil {
		return
	}
	if days := calendar.DaysBetween(*c.DueDate, c.Date); days > 0 {
		c.DaysLate = days
	}
}

// buildName produces COL/YYYYMMDD/{tenant[:10]}/{room}, with /MMYYYY of the
// period appended for rent
func (c *Collection) buildName(tenantName string) string {
	runes := []rune(tenantName)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	name := fmt.Sprintf("COL/%s/%s/%s", c.Date.Format("20060102"), string(runes), c.RoomNumber)
	if c.Type == TypeRent && c.PeriodFrom != nil {
		name += "/" + c.PeriodFrom.Format("012006")
	}
	return name
}

// StatementReference is the ledger reference of the credit entry
func (c *Collection) StatementReference() string {
	if c.ReceiptNumber != "" {
		return c.ReceiptNumber
	}
	return "COL/" + c.ID.String()
}

// SetDueDate overrides the due date and recomputes lateness
func (c *Collection) SetDueDate(due time.Time) {
	due = calendar.DateOf(due)
	c.DueDate = &due
	c.computeDaysLate()
	c.touch()
}

// UpdateDetails changes the free-text fields. Nil values are kept.
func (c *Collection) UpdateDetails(reference, collectedBy, notes *string) error {
	if c.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit a cancelled collection")
	}
	if reference != nil {
		c.Reference = *reference
	}
	if collectedBy != nil {
		c.CollectedBy = *collectedBy
	}
	if notes != nil {
		c.Notes = *notes
	}
	c.touch()
	return nil
}

// Verify confirms a collected payment
func (c *Collection) Verify() error {
	if c.Status != StatusCollected {
		return shared.Errorf("INVALID_STATE", "Cannot verify collection in %s status", c.Status)
	}
	c.Status = StatusVerified
	c.touch()
	return nil
}

// MarkCollected moves a draft to collected
func (c *Collection) MarkCollected() error {
	if c.Status != StatusDraft {
		return shared.Errorf("INVALID_STATE", "Cannot collect collection in %s status", c.Status)
	}
	c.Status = StatusCollected
	c.touch()
	c.AddDomainEvent(NewCollectionRecordedEvent(c))
	return nil
}

// MarkDeposited records that the money reached the bank
func (c *Collection) MarkDeposited() error {
	if c.Status != StatusCollected && c.Status != StatusVerified {
		return shared.Errorf("INVALID_STATE", "Cannot deposit collection in %s status", c.Status)
	}
	c.Status = StatusDeposited
	c.touch()
	return nil
}

// Cancel voids the collection. The caller must reverse the ledger entry and
// the payment.
func (c *Collection) Cancel() error {
	if c.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Collection is already cancelled")
	}
	c.Status = StatusCancelled
	c.touch()
	c.AddDomainEvent(NewCollectionCancelledEvent(c))
	return nil
}

// LinkStatementEntry records the ledger entry created for this collection
func (c *Collection) LinkStatementEntry(id *uuid.UUID) {
	c.StatementEntryID = id
	c.touch()
}

// LinkPayment records the accounting payment created for this collection
func (c *Collection) LinkPayment(id *uuid.UUID) {
	c.PaymentID = id
	c.touch()
}

func (c *Collection) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
