package ledger

import (
	"testing"

	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	tenantID := uuid.New()
	rent := createTestEntry(t, tenantID, calendar.Date(2025, 2, 1), "R2", 1000, 0)
	pay := createTestEntry(t, tenantID, calendar.Date(2025, 2, 3), "P1", 0, 600)
	zero := createTestEntry(t, tenantID, calendar.Date(2025, 2, 4), "Z", 0, 0)
	pay.Type = TypePayment

	req := ReportRequest{
		TenantID:    tenantID,
		From:        calendar.Date(2025, 2, 1),
		To:          calendar.Date(2025, 2, 28),
		ExcludeZero: true,
	}
	require.NoError(t, req.Validate())

	r := BuildReport(req, decimal.NewFromInt(400), []*StatementEntry{pay, zero, rent})
	assert.Equal(t, ViewDetailed, r.View)
	require.Len(t, r.Lines, 2)
	assert.Equal(t, "R2", r.Lines[0].Reference)
	assert.True(t, r.TotalDebit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, r.TotalCredit.Equal(decimal.NewFromInt(600)))
	assert.True(t, r.ClosingBalance.Equal(decimal.NewFromInt(800)))

	req.View = ViewSummary
	req.ExcludeZero = false
	r = BuildReport(req, decimal.Zero, []*StatementEntry{pay, zero, rent})
	assert.Nil(t, r.Lines)
	require.Len(t, r.Summary, 2)
	assert.Equal(t, TypeRent, r.Summary[0].Type)
	assert.Equal(t, 2, r.Summary[0].Count)
	assert.Equal(t, TypePayment, r.Summary[1].Type)
}

func TestReportRequest_Validate(t *testing.T) {
	req := ReportRequest{TenantID: uuid.New(), From: calendar.Date(2025, 2, 1), To: calendar.Date(2025, 1, 1)}
	assert.Error(t, req.Validate())

	req = ReportRequest{TenantID: uuid.New(), From: calendar.Date(2025, 1, 1), To: calendar.Date(2025, 1, 1), View: "chart"}
	assert.Error(t, req.Validate())
}
