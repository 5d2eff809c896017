// Package dues computes what each tenant owes right now from their active
// agreement and the money they have paid. The computation is pure. Callers
// hold the resulting Snapshot and serve reads from it.
package dues

import (
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status buckets a due by how long the tenant has gone without paying
type Status string

const (
	StatusCurrent       Status = "current"
	StatusOverdue30     Status = "overdue_30"
	StatusOverdue60     Status = "overdue_60"
	StatusOverdue90     Status = "overdue_90"
	StatusOverdue90Plus Status = "overdue_90plus"
	StatusCritical      Status = "critical"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusCurrent, StatusOverdue30, StatusOverdue60, StatusOverdue90, StatusOverdue90Plus, StatusCritical:
		return true
	}
	return false
}

// IsOverdue reports whether the status is anything but current
func (s Status) IsOverdue() bool {
	return s != StatusCurrent
}

// IsCritical reports whether the status is 61 days or older
func (s Status) IsCritical() bool {
	return s == StatusOverdue90 || s == StatusOverdue90Plus || s == StatusCritical
}

// StatusFor classifies a due. A non-positive total is current regardless of
// the days elapsed.
func StatusFor(total decimal.Decimal, daysOverdue int) Status {
	switch {
	case !total.IsPositive():
		return StatusCurrent
	case daysOverdue <= 30:
		return StatusOverdue30
	case daysOverdue <= 60:
		return StatusOverdue60
	case daysOverdue <= 90:
		return StatusOverdue90
	case daysOverdue <= 180:
		return StatusOverdue90Plus
	default:
		return StatusCritical
	}
}

// CollectionTypeForCharge maps an agreement charge onto the collection type
// that pays it off
func CollectionTypeForCharge(t property.ChargeType) collection.Type {
	switch t {
	case property.ChargeTypeUtility:
		return collection.TypeUtility
	case property.ChargeTypeMaintenance:
		return collection.TypeMaintenance
	case property.ChargeTypePenalty:
		return collection.TypePenalty
	default:
		return collection.TypeOtherCharges
	}
}

// Input is one tenant's active agreement and paid collections
type Input struct {
	TenantID    uuid.UUID
	TenantName  string
	RoomName    string
	Agreement   *agreement.Agreement
	Collections []collection.Collection
}

// Due is the outstanding position of one tenant
type Due struct {
	TenantID                uuid.UUID       `json:"tenant_id"`
	TenantName              string          `json:"tenant_name"`
	AgreementID             uuid.UUID       `json:"agreement_id"`
	AgreementNumber         string          `json:"agreement_number"`
	RoomID                  uuid.UUID       `json:"room_id"`
	RoomName                string          `json:"room_name"`
	RentOutstanding         decimal.Decimal `json:"rent_outstanding"`
	DepositOutstanding      decimal.Decimal `json:"deposit_outstanding"`
	ParkingOutstanding      decimal.Decimal `json:"parking_outstanding"`
	OtherChargesOutstanding decimal.Decimal `json:"other_charges_outstanding"`
	TotalOutstanding        decimal.Decimal `json:"total_outstanding"`
	ExpectedMonthlyAmount   decimal.Decimal `json:"expected_monthly_amount"`
	LastPaymentDate         time.Time       `json:"last_payment_date"`
	NextDueDate             time.Time       `json:"next_due_date"`
	DaysOverdue             int             `json:"days_overdue"`
	MonthsOverdue           int             `json:"months_overdue"`
	Status                  Status          `json:"status"`
}

// paysFor reports whether c counts against agreement a: it is linked to a,
// or it is unlinked and dated on or after a's start
func paysFor(c collection.Collection, a *agreement.Agreement) bool {
	if c.AgreementID != nil {
		return *c.AgreementID == a.ID
	}
	return !calendar.DateOf(c.Date).Before(a.StartDate)
}

// ComputeDue returns the due of one tenant, and false when nothing is owed
// or the agreement is not active
func ComputeDue(in Input, today time.Time) (Due, bool) {
	a := in.Agreement
	if a == nil || !a.IsActive() {
		return Due{}, false
	}
	today = calendar.DateOf(today)

	paid := make(map[collection.Type]decimal.Decimal)
	var lastPayment time.Time
	for _, c := range in.Collections {
		if c.TenantID != in.TenantID || !c.Status.IsPaid() || !paysFor(c, a) {
			continue
		}
		paid[c.Type] = paid[c.Type].Add(c.Amount)
		if c.Date.After(lastPayment) {
			lastPayment = c.Date
		}
	}

	months := calendar.CompleteMonths(a.StartDate, today)
	rentDue := a.RentAmount.Mul(decimal.NewFromInt(int64(months)))
	rent := positive(rentDue.Sub(paid[collection.TypeRent]))
	deposit := positive(a.DepositAmount.Sub(paid[collection.TypeDeposit]))
	parking := positive(a.ParkingCharges.Sub(paid[collection.TypeParkingCharges]))

	charged := make(map[property.ChargeType]decimal.Decimal)
	for _, ch := range a.Charges {
		charged[ch.ChargeType] = charged[ch.ChargeType].Add(ch.Amount)
	}
	other := decimal.Zero
	for chargeType, amount := range charged {
		other = other.Add(positive(amount.Sub(paid[CollectionTypeForCharge(chargeType)])))
	}

	total := rent.Add(deposit).Add(parking).Add(other)
	if !total.IsPositive() {
		return Due{}, false
	}

	if lastPayment.IsZero() {
		lastPayment = a.StartDate
	}
	days := calendar.DaysBetween(lastPayment, today)
	if days < 0 {
		days = 0
	}

	return Due{
		TenantID:                in.TenantID,
		TenantName:              in.TenantName,
		AgreementID:             a.ID,
		AgreementNumber:         a.Number,
		RoomID:                  a.RoomID,
		RoomName:                in.RoomName,
		RentOutstanding:         rent,
		DepositOutstanding:      deposit,
		ParkingOutstanding:      parking,
		OtherChargesOutstanding: other,
		TotalOutstanding:        total,
		ExpectedMonthlyAmount:   a.ExpectedMonthlyAmount(),
		LastPaymentDate:         lastPayment,
		NextDueDate:             a.NextDueDate(today),
		DaysOverdue:             days,
		MonthsOverdue:           calendar.CompleteMonths(lastPayment, today),
		Status:                  StatusFor(total, days),
	}, true
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
