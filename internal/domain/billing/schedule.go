package billing

import (
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/shared/calendar"
)

// MonthlyInvoiceDue reports whether an agreement should get its rent invoice
// for the month of today. Agreements must be active with auto generation on,
// and today must have reached the invoice day.
func MonthlyInvoiceDue(a *agreement.Agreement, today time.Time) bool {
	if a.State != agreement.StateActive || !a.AutoGenerateInvoices {
		return false
	}
	if !a.RentAmount.IsPositive() {
		return false
	}
	today = calendar.DateOf(today)
	if a.StartDate.After(calendar.MonthEnd(today)) || a.EndDate.Before(calendar.MonthStart(today)) {
		return false
	}
	return today.Day() >= a.InvoiceDay
}

// MonthlyRentInvoice drafts the rent invoice of an agreement for the month of
// today. The period is the calendar month and the due date falls
// PaymentTerms days after today.
func MonthlyRentInvoice(number string, a *agreement.Agreement, today time.Time) (*Invoice, error) {
	today = calendar.DateOf(today)
	from := calendar.MonthStart(today)
	to := calendar.MonthEnd(today)
	agreementID := a.ID
	roomID := a.RoomID
	terms := a.PaymentTerms
	if terms <= 0 {
		terms = agreement.DefaultPaymentTerms
	}
	return NewInvoice(number, InvoiceParams{
		TenantID:     a.TenantID,
		AgreementID:  &agreementID,
		RoomID:       &roomID,
		InvoiceType:  InvoiceTypeRent,
		InvoiceDate:  today,
		PaymentTerms: terms,
		PeriodFrom:   &from,
		PeriodTo:     &to,
		Amount:       a.RentAmount,
		Description:  fmt.Sprintf("Rent %s for %s", from.Format("January 2006"), a.Number),
	})
}
