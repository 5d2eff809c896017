package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/shopspring/decimal"
)

// TypeForCollection maps a collection type onto the ledger type of its credit
func TypeForCollection(t collection.Type) TransactionType {
	switch t {
	case collection.TypeDeposit:
		return TypeDeposit
	case collection.TypeParkingCharges, collection.TypeParkingDeposit:
		return TypeParking
	case collection.TypeOtherCharges:
		return TypeOtherCharges
	default:
		return TypeRent
	}
}

// FromCollection builds the single credit entry of a paid collection
func FromCollection(c *collection.Collection) (*StatementEntry, error) {
	if !c.Status.IsPaid() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Collection %s is %s and has no ledger entry", c.Name, c.Status))
	}
	label := strings.ReplaceAll(string(c.Type), "_", " ")
	desc := fmt.Sprintf("Payment for %s - Room %s", label, c.RoomNumber)
	e, err := NewCredit(c.TenantID, c.Date, c.StatementReference(), desc, TypeForCollection(c.Type), c.Amount)
	if err != nil {
		return nil, err
	}
	id := c.ID
	e.CollectionID = &id
	return e.WithLinks(c.RoomID, c.AgreementID), nil
}

// FromAgreement builds the deposit debit (dated on the start date) and one
// rent debit per month that has begun by today, never past the end date
func FromAgreement(a *agreement.Agreement, today time.Time) ([]*StatementEntry, error) {
	entries := make([]*StatementEntry, 0)
	roomID, agreementID := a.RoomID, a.ID

	if a.DepositAmount.IsPositive() {
		e, err := NewDebit(a.TenantID, a.StartDate, a.DepositReference(),
			fmt.Sprintf("Security deposit for agreement %s", a.Number), TypeDeposit, a.DepositAmount)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e.WithLinks(&roomID, &agreementID))
	}

	for _, d := range a.RentDates(today) {
		e, err := NewDebit(a.TenantID, d, a.RentReference(d),
			fmt.Sprintf("Monthly rent for %s", d.Format("January 2006")), TypeRent, a.RentAmount)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e.WithLinks(&roomID, &agreementID))
	}
	return entries, nil
}

// OpeningBalanceEntry builds the carried-forward balance debit, or nil when
// there is nothing to carry or it was already recorded
func OpeningBalanceEntry(a *agreement.Agreement, on time.Time) (*StatementEntry, error) {
	if !a.OpeningBalance.IsPositive() || a.OpeningBalanceRecorded {
		return nil, nil
	}
	roomID, agreementID := a.RoomID, a.ID
	e, err := NewDebit(a.TenantID, on, a.OpeningReference(),
		fmt.Sprintf("Opening balance for agreement %s", a.Number), TypeOutstanding, a.OpeningBalance)
	if err != nil {
		return nil, err
	}
	return e.WithLinks(&roomID, &agreementID), nil
}

// ActivationEntries builds the parking and other-charge debits posted when
// an agreement is activated
func ActivationEntries(a *agreement.Agreement, on time.Time) ([]*StatementEntry, error) {
	entries := make([]*StatementEntry, 0)
	roomID, agreementID := a.RoomID, a.ID
	on = calendar.DateOf(on)

	if a.ParkingCharges.IsPositive() {
		e, err := NewDebit(a.TenantID, on, a.ParkingReference(),
			fmt.Sprintf("Parking charges for agreement %s", a.Number), TypeParking, a.ParkingCharges)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e.WithLinks(&roomID, &agreementID))
	}
	for _, c := range a.Charges {
		if !c.Amount.IsPositive() {
			continue
		}
		e, err := NewDebit(a.TenantID, on, a.ChargeReference(c),
			fmt.Sprintf("%s for agreement %s", c.Name, a.Number), TypeOther, c.Amount)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e.WithLinks(&roomID, &agreementID))
	}
	return entries, nil
}

// TotalDebit sums the debits of entries
func TotalDebit(entries []*StatementEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Debit)
	}
	return total
}

// RegeneratedEntries rebuilds every generated entry of an agreement: the
// opening balance when it was already recorded, the deposit and rent
// schedule, and the activation charges when the agreement was activated.
// References match the originals, so existing entries are skipped on insert.
func RegeneratedEntries(a *agreement.Agreement, today time.Time) ([]*StatementEntry, error) {
	entries := make([]*StatementEntry, 0)
	roomID, agreementID := a.RoomID, a.ID

	activatedOn := a.StartDate
	if a.ActivatedAt != nil {
		activatedOn = calendar.DateOf(*a.ActivatedAt)
	}

	if a.OpeningBalanceRecorded && a.OpeningBalance.IsPositive() {
		e, err := NewDebit(a.TenantID, activatedOn, a.OpeningReference(),
			fmt.Sprintf("Opening balance for agreement %s", a.Number), TypeOutstanding, a.OpeningBalance)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e.WithLinks(&roomID, &agreementID))
	}

	scheduled, err := FromAgreement(a, today)
	if err != nil {
		return nil, err
	}
	entries = append(entries, scheduled...)

	if a.ActivatedAt != nil {
		charges, err := ActivationEntries(a, activatedOn)
		if err != nil {
			return nil, err
		}
		entries = append(entries, charges...)
	}
	return entries, nil
}
