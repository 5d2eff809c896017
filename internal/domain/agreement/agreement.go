package agreement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State represents the lifecycle state of a rental agreement
type State string

const (
	StateDraft      State = "draft"
	StateActive     State = "active"
	StateExpired    State = "expired"
	StateTerminated State = "terminated"
	StateCancelled  State = "cancelled"
)

// IsValid checks if the state is known
func (s State) IsValid() bool {
	switch s {
	case StateDraft, StateActive, StateExpired, StateTerminated, StateCancelled:
		return true
	}
	return false
}

// BlocksRoom reports whether an agreement in this state reserves its room
// for overlap checks
func (s State) BlocksRoom() bool {
	return s == StateDraft || s == StateActive
}

// CanDelete reports whether an agreement in this state may be removed
func (s State) CanDelete() bool {
	return s != StateActive
}

const (
	DefaultPaymentDay      = 1
	DefaultPaymentTerms    = 30
	DefaultInvoiceDay      = 1
	DefaultAdvanceInvoice  = 5
	RenewalLengthDays      = 365
	ExpiryNoticeWindowDays = 30
)

// Charge is an other-charge attached to an agreement. Amount follows the
// catalog charge unless CustomAmount is set.
type Charge struct {
	ID           uuid.UUID
	ChargeID     uuid.UUID
	Name         string
	ChargeType   property.ChargeType
	Amount       decimal.Decimal
	CustomAmount bool
}

// NewCharge attaches a catalog charge. A positive custom amount overrides the
// catalog amount.
func NewCharge(c *property.OtherCharge, custom decimal.Decimal) Charge {
	ch := Charge{
		ID:         uuid.New(),
		ChargeID:   c.ID,
		Name:       c.Name,
		ChargeType: c.ChargeType,
		Amount:     c.Amount,
	}
	if custom.IsPositive() {
		ch.Amount = custom
		ch.CustomAmount = true
	}
	return ch
}

// Terms holds the negotiated terms of an agreement
type Terms struct {
	TenantID             uuid.UUID
	RoomID               uuid.UUID
	AgentID              *uuid.UUID
	StartDate            time.Time
	EndDate              time.Time
	RentAmount           decimal.Decimal
	DepositAmount        decimal.Decimal
	ParkingCharges       decimal.Decimal
	OpeningBalance       decimal.Decimal
	PaymentDay           int
	PaymentTerms         int
	AutoGenerateInvoices *bool
	AutoPostInvoices     *bool
	InvoiceDay           int
	AdvanceInvoiceDays   int
	Notes                string
}

// Agreement is a rental contract between a tenant and a room for a date range
type Agreement struct {
	shared.BaseAggregateRoot
	Number                 string
	TenantID               uuid.UUID
	RoomID                 uuid.UUID
	AgentID                *uuid.UUID
	StartDate              time.Time
	EndDate                time.Time
	RentAmount             decimal.Decimal
	DepositAmount          decimal.Decimal
	ParkingCharges         decimal.Decimal
	OpeningBalance         decimal.Decimal
	OpeningBalanceRecorded bool
	PaymentDay             int
	PaymentTerms           int
	AutoGenerateInvoices   bool
	AutoPostInvoices       bool
	InvoiceDay             int
	AdvanceInvoiceDays     int
	State                  State
	ActivatedAt            *time.Time
	TerminatedAt           *time.Time
	TerminationReason      string
	Notes                  string
	Charges                []Charge
}

// NewAgreement creates a draft agreement
func NewAgreement(number string, terms Terms) (*Agreement, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Agreement number cannot be empty")
	}
	if terms.TenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant is required")
	}
	if terms.RoomID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ROOM", "Room is required")
	}
	terms = withDefaults(terms)
	if err := validateTerms(terms); err != nil {
		return nil, err
	}

	a := &Agreement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		State:             StateDraft,
		Charges:           make([]Charge, 0),
	}
	a.applyTerms(terms)
	a.AddDomainEvent(NewAgreementCreatedEvent(a))
	return a, nil
}

func withDefaults(t Terms) Terms {
	t.StartDate = calendar.DateOf(t.StartDate)
	t.EndDate = calendar.DateOf(t.EndDate)
	if t.PaymentDay == 0 {
		t.PaymentDay = DefaultPaymentDay
	}
	if t.PaymentTerms == 0 {
		t.PaymentTerms = DefaultPaymentTerms
	}
	if t.InvoiceDay == 0 {
		t.InvoiceDay = DefaultInvoiceDay
	}
	if t.AdvanceInvoiceDays == 0 {
		t.AdvanceInvoiceDays = DefaultAdvanceInvoice
	}
	if t.AutoGenerateInvoices == nil {
		v := true
		t.AutoGenerateInvoices = &v
	}
	if t.AutoPostInvoices == nil {
		v := true
		t.AutoPostInvoices = &v
	}
	return t
}

func validateTerms(t Terms) error {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return shared.NewDomainError("INVALID_DATES", "Start and end dates are required")
	}
	if !t.EndDate.After(t.StartDate) {
		return shared.NewDomainError("INVALID_DATES", "End date must be after start date")
	}
	if !t.RentAmount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Rent amount must be positive")
	}
	if t.DepositAmount.IsNegative() || t.ParkingCharges.IsNegative() || t.OpeningBalance.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amounts cannot be negative")
	}
	if t.PaymentDay < 1 || t.PaymentDay > 31 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 31")
	}
	if t.InvoiceDay < 1 || t.InvoiceDay > 28 {
		return shared.NewDomainError("INVALID_INVOICE_DAY", "Invoice day must be between 1 and 28")
	}
	if t.PaymentTerms < 0 {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms cannot be negative")
	}
	return nil
}

func (a *Agreement) applyTerms(t Terms) {
	a.TenantID = t.TenantID
	a.RoomID = t.RoomID
	a.AgentID = t.AgentID
	a.StartDate = t.StartDate
	a.EndDate = t.EndDate
	a.RentAmount = t.RentAmount
	a.DepositAmount = t.DepositAmount
	a.ParkingCharges = t.ParkingCharges
	a.OpeningBalance = t.OpeningBalance
	a.PaymentDay = t.PaymentDay
	a.PaymentTerms = t.PaymentTerms
	a.AutoGenerateInvoices = *t.AutoGenerateInvoices
	a.AutoPostInvoices = *t.AutoPostInvoices
	a.InvoiceDay = t.InvoiceDay
	a.AdvanceInvoiceDays = t.AdvanceInvoiceDays
	a.Notes = t.Notes
}

// Terms returns the current terms of the agreement
func (a *Agreement) Terms() Terms {
	autoGen, autoPost := a.AutoGenerateInvoices, a.AutoPostInvoices
	return Terms{
		TenantID:             a.TenantID,
		RoomID:               a.RoomID,
		AgentID:              a.AgentID,
		StartDate:            a.StartDate,
		EndDate:              a.EndDate,
		RentAmount:           a.RentAmount,
		DepositAmount:        a.DepositAmount,
		ParkingCharges:       a.ParkingCharges,
		OpeningBalance:       a.OpeningBalance,
		PaymentDay:           a.PaymentDay,
		PaymentTerms:         a.PaymentTerms,
		AutoGenerateInvoices: &autoGen,
		AutoPostInvoices:     &autoPost,
		InvoiceDay:           a.InvoiceDay,
		AdvanceInvoiceDays:   a.AdvanceInvoiceDays,
		Notes:                a.Notes,
	}
}

// Amend replaces the terms. While active, tenant, room, dates, rent,
// deposit and parking are locked.
func (a *Agreement) Amend(terms Terms) error {
	terms = withDefaults(terms)
	if err := validateTerms(terms); err != nil {
		return err
	}
	if a.State == StateActive {
		if field := a.changedCriticalField(terms); field != "" {
			return shared.NewDomainError("IMMUTABLE_FIELD",
				fmt.Sprintf("Cannot modify %s of an active agreement", field))
		}
	} else if a.State != StateDraft {
		return shared.Errorf("INVALID_STATE", "Cannot amend agreement in %s state", a.State)
	}
	a.applyTerms(terms)
	a.touch()
	return nil
}

func (a *Agreement) changedCriticalField(t Terms) string {
	switch {
	case t.TenantID != a.TenantID:
		return "tenant"
	case t.RoomID != a.RoomID:
		return "room"
	case !t.StartDate.Equal(a.StartDate):
		return "start_date"
	case !t.EndDate.Equal(a.EndDate):
		return "end_date"
	case !t.RentAmount.Equal(a.RentAmount):
		return "rent_amount"
	case !t.DepositAmount.Equal(a.DepositAmount):
		return "deposit_amount"
	case !t.ParkingCharges.Equal(a.ParkingCharges):
		return "parking_charges"
	}
	return ""
}

// SetCharges replaces the attached charges. Only drafts can change charges.
func (a *Agreement) SetCharges(charges []Charge) error {
	if a.State != StateDraft {
		return shared.NewDomainError("INVALID_STATE", "Charges can only change on a draft agreement")
	}
	for _, c := range charges {
		if !c.Amount.IsPositive() {
			return shared.Errorf("INVALID_AMOUNT", "Charge %s must have a positive amount", c.Name)
		}
	}
	a.Charges = charges
	a.touch()
	return nil
}

// Overlaps reports whether two agreements reserve the same room on
// intersecting date ranges (start1 < end2 and start2 < end1)
func (a *Agreement) Overlaps(other *Agreement) bool {
	if other == nil || other.ID == a.ID || other.RoomID != a.RoomID || !other.State.BlocksRoom() {
		return false
	}
	return RangesOverlap(a.StartDate, a.EndDate, other.StartDate, other.EndDate)
}

// RangesOverlap implements the strict interval intersection test
func RangesOverlap(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// Activate moves a draft agreement to active
func (a *Agreement) Activate(at time.Time) error {
	if a.State != StateDraft {
		return shared.Errorf("INVALID_STATE", "Cannot activate agreement in %s state", a.State)
	}
	a.State = StateActive
	a.ActivatedAt = &at
	a.touch()
	a.AddDomainEvent(NewAgreementStateChangedEvent(a, EventTypeAgreementActivated))
	return nil
}

// Terminate ends an active agreement
func (a *Agreement) Terminate(at time.Time, reason string) error {
	if a.State != StateActive {
		return shared.Errorf("INVALID_STATE", "Cannot terminate agreement in %s state", a.State)
	}
	a.State = StateTerminated
	a.TerminatedAt = &at
	a.TerminationReason = reason
	a.touch()
	a.AddDomainEvent(NewAgreementStateChangedEvent(a, EventTypeAgreementTerminated))
	return nil
}

// Cancel discards a draft agreement
func (a *Agreement) Cancel() error {
	if a.State != StateDraft {
		return shared.Errorf("INVALID_STATE", "Cannot cancel agreement in %s state", a.State)
	}
	a.State = StateCancelled
	a.touch()
	return nil
}

// Expire marks an active agreement whose end date has passed
func (a *Agreement) Expire(today time.Time) error {
	if a.State != StateActive {
		return shared.Errorf("INVALID_STATE", "Cannot expire agreement in %s state", a.State)
	}
	if !a.EndDate.Before(calendar.DateOf(today)) {
		return shared.NewDomainError("INVALID_STATE", "Agreement has not reached its end date")
	}
	a.State = StateExpired
	a.touch()
	a.AddDomainEvent(NewAgreementStateChangedEvent(a, EventTypeAgreementExpired))
	return nil
}

// IsExpiringWithin reports whether an active agreement ends within days of today
func (a *Agreement) IsExpiringWithin(today time.Time, days int) bool {
	return a.State == StateActive && !a.EndDate.After(calendar.AddDays(today, days))
}

// Renew builds a draft follow-up agreement with the same terms, starting the
// day after this one ends and running for a year
func (a *Agreement) Renew(number string) (*Agreement, error) {
	if a.State != StateActive && a.State != StateExpired {
		return nil, shared.Errorf("INVALID_STATE", "Cannot renew agreement in %s state", a.State)
	}
	terms := a.Terms()
	terms.StartDate = calendar.AddDays(a.EndDate, 1)
	terms.EndDate = calendar.AddDays(a.EndDate, RenewalLengthDays)
	terms.OpeningBalance = decimal.Zero
	renewed, err := NewAgreement(number, terms)
	if err != nil {
		return nil, err
	}
	for _, c := range a.Charges {
		c.ID = uuid.New()
		renewed.Charges = append(renewed.Charges, c)
	}
	return renewed, nil
}

// MarkOpeningBalanceRecorded flags that the opening balance entry exists
func (a *Agreement) MarkOpeningBalanceRecorded() {
	a.OpeningBalanceRecorded = true
	a.touch()
}

// IsActive reports whether the agreement is active
func (a *Agreement) IsActive() bool {
	return a.State == StateActive
}

// ExpectedMonthlyAmount is rent plus parking
func (a *Agreement) ExpectedMonthlyAmount() decimal.Decimal {
	return a.RentAmount.Add(a.ParkingCharges)
}

// NextDueDate returns the payment day of the month after today, clamped to
// the month length
func (a *Agreement) NextDueDate(today time.Time) time.Time {
	next := calendar.AddMonths(calendar.MonthStart(today), 1)
	return calendar.ClampDay(next.Year(), next.Month(), a.PaymentDay)
}

// RentDates lists the posting date of every rent month that has started by
// today and not after the end date. Each date is start + n months so that
// clamped month ends do not drift.
func (a *Agreement) RentDates(today time.Time) []time.Time {
	limit := calendar.Min(a.EndDate, calendar.DateOf(today))
	dates := make([]time.Time, 0)
	for i := 0; ; i++ {
		d := calendar.AddMonths(a.StartDate, i)
		if d.After(limit) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// Statement references. They identify entries per tenant, so regenerating
// an agreement's entries never duplicates them.

// DepositReference identifies the deposit entry
func (a *Agreement) DepositReference() string { return a.Number + "/DEPOSIT" }

// OpeningReference identifies the opening balance entry
func (a *Agreement) OpeningReference() string { return a.Number + "/OPENING" }

// ParkingReference identifies the parking entry
func (a *Agreement) ParkingReference() string { return a.Number + "/PARKING" }

// RentReference identifies the rent entry for the month containing d
func (a *Agreement) RentReference(d time.Time) string {
	return fmt.Sprintf("%s/RENT/%s", a.Number, d.Format("200601"))
}

// ChargeReference identifies the entry of an attached charge
func (a *Agreement) ChargeReference(c Charge) string {
	return fmt.Sprintf("%s/CHARGE/%s", a.Number, c.Name)
}

func (a *Agreement) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
