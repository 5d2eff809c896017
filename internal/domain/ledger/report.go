package ledger

import (
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportView selects line-by-line or per-type output
type ReportView string

const (
	ViewDetailed ReportView = "detailed"
	ViewSummary  ReportView = "summary"
)

// ReportRequest describes a statement report
type ReportRequest struct {
	TenantID    uuid.UUID
	From        time.Time
	To          time.Time
	ExcludeZero bool
	View        ReportView
}

// Validate checks the request
func (r ReportRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_TENANT", "Tenant is required")
	}
	if r.To.Before(r.From) {
		return shared.NewDomainError("INVALID_DATES", "Report end date must not be before its start date")
	}
	if r.View != "" && r.View != ViewDetailed && r.View != ViewSummary {
		return shared.NewDomainError("INVALID_VIEW", "View must be detailed or summary")
	}
	return nil
}

// TypeSummary totals one transaction type
type TypeSummary struct {
	Type   TransactionType `json:"type"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Count  int             `json:"count"`
}

// Report is a tenant statement for a date range
type Report struct {
	TenantID       uuid.UUID         `json:"tenant_id"`
	From           time.Time         `json:"from"`
	To             time.Time         `json:"to"`
	View           ReportView        `json:"view"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	Lines          []*StatementEntry `json:"lines,omitempty"`
	Summary        []TypeSummary     `json:"summary,omitempty"`
	TotalDebit     decimal.Decimal   `json:"total_debit"`
	TotalCredit    decimal.Decimal   `json:"total_credit"`
	ClosingBalance decimal.Decimal   `json:"closing_balance"`
}

// BuildReport assembles a report from the entries dated inside the range and
// the balance carried in from before it
func BuildReport(req ReportRequest, opening decimal.Decimal, entries []*StatementEntry) *Report {
	if req.View == "" {
		req.View = ViewDetailed
	}
	SortEntries(entries)
	r := &Report{
		TenantID:       req.TenantID,
		From:           req.From,
		To:             req.To,
		View:           req.View,
		OpeningBalance: opening,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	byType := make(map[TransactionType]*TypeSummary)
	lines := make([]*StatementEntry, 0, len(entries))
	for _, e := range entries {
		if req.ExcludeZero && e.IsZero() {
			continue
		}
		r.TotalDebit = r.TotalDebit.Add(e.Debit)
		r.TotalCredit = r.TotalCredit.Add(e.Credit)
		lines = append(lines, e)

		s, ok := byType[e.Type]
		if !ok {
			s = &TypeSummary{Type: e.Type, Debit: decimal.Zero, Credit: decimal.Zero}
			byType[e.Type] = s
		}
		s.Debit = s.Debit.Add(e.Debit)
		s.Credit = s.Credit.Add(e.Credit)
		s.Count++
	}
	r.ClosingBalance = opening.Add(r.TotalDebit).Sub(r.TotalCredit)

	if req.View == ViewSummary {
		for _, t := range AllTypes() {
			if s, ok := byType[t]; ok {
				r.Summary = append(r.Summary, *s)
			}
		}
	} else {
		r.Lines = lines
	}
	return r
}
