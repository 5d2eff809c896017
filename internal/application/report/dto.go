package report

import (
	"time"

	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodTotals is money collected in the current day, week and month
type PeriodTotals struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
}

// Occupancy summarises the rooms
type Occupancy struct {
	TotalRooms    int64           `json:"total_rooms"`
	OccupiedRooms int64           `json:"occupied_rooms"`
	VacantRooms   int64           `json:"vacant_rooms"`
	Rate          decimal.Decimal `json:"occupancy_rate"`
}

// AgentPerformance is one agent's active book
type AgentPerformance struct {
	AgentID     uuid.UUID       `json:"agent_id"`
	AgentName   string          `json:"agent_name"`
	TenantCount int64           `json:"tenant_count"`
	TotalRent   decimal.Decimal `json:"total_rent"`
}

// StatementActivity is the ledger movement of the current month
type StatementActivity struct {
	Debits     decimal.Decimal `json:"debits"`
	Credits    decimal.Decimal `json:"credits"`
	Net        decimal.Decimal `json:"net"`
	Efficiency decimal.Decimal `json:"collection_efficiency"`
}

// Debtor is a tenant with a positive latest balance
type Debtor struct {
	TenantID   uuid.UUID       `json:"tenant_id"`
	TenantName string          `json:"tenant_name"`
	Balance    decimal.Decimal `json:"balance"`
}

// RecentCollection is a short view of a collection
type RecentCollection struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	RoomNumber     string          `json:"room_number,omitempty"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount_collected"`
	CollectionType string          `json:"collection_type"`
	Status         string          `json:"status"`
}

// Dashboard is the landlord's overview for one day
type Dashboard struct {
	Date              time.Time          `json:"date"`
	Collections       PeriodTotals       `json:"collections"`
	MonthExpenses     decimal.Decimal    `json:"month_expenses"`
	MonthProfit       decimal.Decimal    `json:"month_profit"`
	Occupancy         Occupancy          `json:"occupancy"`
	ActiveTenants     int64              `json:"active_tenants"`
	Agents            []AgentPerformance `json:"agents"`
	Outstanding       dues.Totals        `json:"outstanding"`
	OverdueCount      int                `json:"overdue_count"`
	CriticalCount     int                `json:"critical_count"`
	Statement         StatementActivity  `json:"statement"`
	TenantsInCredit   int                `json:"tenants_in_credit"`
	TenantsInDebit    int                `json:"tenants_in_debit"`
	TopDebtors        []Debtor           `json:"top_debtors"`
	RecentCollections []RecentCollection `json:"recent_collections"`
	OutstandingAsOf   time.Time          `json:"outstanding_as_of"`
}

// StatementReportRequest is the query of a tenant statement
type StatementReportRequest struct {
	TenantID    uuid.UUID `form:"-"`
	From        time.Time `form:"from" time_format:"2006-01-02"`
	To          time.Time `form:"to" time_format:"2006-01-02"`
	ExcludeZero bool      `form:"exclude_zero"`
	View        string    `form:"view" binding:"omitempty,oneof=detailed summary"`
}

// StatementReportResponse is a tenant statement with the tenant's name
type StatementReportResponse struct {
	TenantName string `json:"tenant_name"`
	*ledger.Report
}
