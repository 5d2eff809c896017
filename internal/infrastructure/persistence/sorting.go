package persistence

import (
	"strings"

	"github.com/erp/rental/internal/domain/shared"
)

// sortColumns maps the sort keys a list endpoint accepts to the column
// behind each. Only mapped columns ever reach ORDER BY.
type sortColumns map[string]string

// sortable accepts each column under its own name, plus the identity and
// timestamp columns every table has
func sortable(columns ...string) sortColumns {
	s := sortColumns{"id": "id", "created_at": "created_at", "updated_at": "updated_at"}
	for _, c := range columns {
		s[c] = c
	}
	return s
}

// alias accepts key as another name for column
func (s sortColumns) alias(key, column string) sortColumns {
	s[key] = column
	return s
}

// clause builds the ORDER BY for filter. An unknown or empty key orders by
// fallback. Ties break on id so pages never overlap.
func (s sortColumns) clause(filter shared.Filter, fallback string) string {
	column, ok := s[strings.TrimSpace(filter.OrderBy)]
	if !ok {
		return fallback
	}
	if column == "id" {
		return "id " + sortDirection(filter.OrderDir)
	}
	return column + " " + sortDirection(filter.OrderDir) + ", id ASC"
}

// sortDirection reads anything but asc as DESC
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

var (
	propertySort   = sortable("code", "name", "city", "type", "state")
	roomSort       = sortable("room_number", "name", "rent_amount", "deposit_amount", "status").alias("rent", "rent_amount")
	tenantSort     = sortable("name", "mobile", "email", "nationality", "status")
	agreementSort  = sortable("number", "start_date", "end_date", "rent_amount", "state").alias("rent", "rent_amount")
	collectionSort = sortable("receipt_number", "date", "amount", "type", "payment_method", "status", "days_late").alias("receipt", "receipt_number")
	invoiceSort    = sortable("number", "invoice_date", "due_date", "amount_total", "amount_residual", "state", "payment_state").alias("total", "amount_total").alias("residual", "amount_residual")
	expenseSort    = sortable("date", "amount", "category", "status")
)
