package persistence

import (
	"testing"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// ============ Sorting Tests ============

func TestSortColumns_Clause(t *testing.T) {
	const fallback = "date DESC, created_at DESC"

	tests := []struct {
		name     string
		orderBy  string
		orderDir string
		want     string
	}{
		{"empty key takes the fallback", "", "asc", fallback},
		{"known column", "amount", "asc", "amount ASC, id ASC"},
		{"direction defaults to desc", "amount", "", "amount DESC, id ASC"},
		{"direction is case insensitive", "amount", " Asc ", "amount ASC, id ASC"},
		{"alias resolves to its column", "receipt", "desc", "receipt_number DESC, id ASC"},
		{"common columns are always allowed", "updated_at", "asc", "updated_at ASC, id ASC"},
		{"id needs no tie break", "id", "asc", "id ASC"},
		{"keys are case sensitive", "AMOUNT", "asc", fallback},
		{"surrounding space is ignored", "  days_late ", "desc", "days_late DESC, id ASC"},
		{"unknown column", "password", "asc", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectionSort.clause(shared.Filter{OrderBy: tt.orderBy, OrderDir: tt.orderDir}, fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortColumns_RejectsInjection(t *testing.T) {
	payloads := []string{
		"name; DROP TABLE tenants;--",
		"name' OR '1'='1",
		"name UNION SELECT * FROM tenants",
		"name, (SELECT mobile FROM tenants)",
		"CASE WHEN 1=1 THEN id ELSE name END",
		"name\n; DROP TABLE tenants",
	}
	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			assert.Equal(t, "name ASC", tenantSort.clause(shared.Filter{OrderBy: payload}, "name ASC"))
			assert.Equal(t, "DESC", sortDirection(payload))
		})
	}
}

func TestSortColumns_Tables(t *testing.T) {
	tables := map[string]sortColumns{
		"properties":  propertySort,
		"rooms":       roomSort,
		"tenants":     tenantSort,
		"agreements":  agreementSort,
		"collections": collectionSort,
		"invoices":    invoiceSort,
		"expenses":    expenseSort,
	}
	for name, cols := range tables {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"id", "created_at", "updated_at"} {
				assert.Equal(t, key, cols[key])
			}
			for key, column := range cols {
				assert.NotContains(t, column, " ", "column for %s", key)
			}
		})
	}
}
