package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/finance"
	"github.com/erp/rental/internal/domain/ledger"
	"github.com/erp/rental/internal/domain/property"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/erp/rental/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	topAgents         = 10
	topDebtors        = 10
	recentCollections = 5
)

var hundred = decimal.NewFromInt(100)

// DuesReader serves the outstanding dues snapshot
type DuesReader interface {
	Snapshot() *dues.Snapshot
}

// StatementReporter builds tenant statements
type StatementReporter interface {
	StatementReport(ctx context.Context, req ledger.ReportRequest) (*ledger.Report, error)
}

// ReportServiceConfig holds the dependencies of the ReportService
type ReportServiceConfig struct {
	CollectionRepo collection.Repository
	ExpenseRepo    finance.ExpenseRepository
	RoomRepo       property.RoomRepository
	TenantRepo     tenant.Repository
	AgentRepo      tenant.AgentRepository
	AgreementRepo  agreement.Repository
	EntryRepo      ledger.Repository
	Dues           DuesReader
	Statements     StatementReporter
	Clock          calendar.Clock
	Logger         *zap.Logger
}

// ReportService assembles the dashboard and tenant statements
type ReportService struct {
	collectionRepo collection.Repository
	expenseRepo    finance.ExpenseRepository
	roomRepo       property.RoomRepository
	tenantRepo     tenant.Repository
	agentRepo      tenant.AgentRepository
	agreementRepo  agreement.Repository
	entryRepo      ledger.Repository
	dues           DuesReader
	statements     StatementReporter
	clock          calendar.Clock
	logger         *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(cfg ReportServiceConfig) *ReportService {
	if cfg.Clock == nil {
		cfg.Clock = calendar.SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ReportService{
		collectionRepo: cfg.CollectionRepo,
		expenseRepo:    cfg.ExpenseRepo,
		roomRepo:       cfg.RoomRepo,
		tenantRepo:     cfg.TenantRepo,
		agentRepo:      cfg.AgentRepo,
		agreementRepo:  cfg.AgreementRepo,
		entryRepo:      cfg.EntryRepo,
		dues:           cfg.Dues,
		statements:     cfg.Statements,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
	}
}

// Dashboard builds the overview for the given day. A zero day means today.
func (s *ReportService) Dashboard(ctx context.Context, day time.Time) (*Dashboard, error) {
	if day.IsZero() {
		day = s.clock()
	}
	day = calendar.DateOf(day)
	monthStart, monthEnd := calendar.MonthStart(day), calendar.MonthEnd(day)

	d := &Dashboard{Date: day}

	var err error
	if d.Collections, err = s.collectionTotals(ctx, day); err != nil {
		return nil, err
	}
	if d.MonthExpenses, err = s.expenseRepo.SumBetween(ctx, monthStart, monthEnd); err != nil {
		return nil, err
	}
	d.MonthProfit = d.Collections.Month.Sub(d.MonthExpenses)

	rooms, err := s.roomRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.Occupancy = Occupancy{
		TotalRooms:    rooms.Total,
		OccupiedRooms: rooms.Occupied,
		VacantRooms:   rooms.Vacant,
		Rate:          percent(decimal.NewFromInt(rooms.Occupied), decimal.NewFromInt(rooms.Total)),
	}

	if d.ActiveTenants, err = s.tenantRepo.CountByStatus(ctx, tenant.StatusActive); err != nil {
		return nil, err
	}
	if d.Agents, err = s.agentPerformance(ctx); err != nil {
		return nil, err
	}

	snap := s.dues.Snapshot()
	d.Outstanding = snap.Totals()
	d.OverdueCount = d.Outstanding.OverdueCount
	d.CriticalCount = d.Outstanding.CriticalCount
	d.OutstandingAsOf = snap.AsOf

	totals, err := s.entryRepo.SumBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	d.Statement = StatementActivity{
		Debits:     totals.Debit,
		Credits:    totals.Credit,
		Net:        totals.Debit.Sub(totals.Credit),
		Efficiency: percent(totals.Credit, totals.Debit),
	}

	if err := s.balances(ctx, d); err != nil {
		return nil, err
	}

	recent, err := s.collectionRepo.FindRecent(ctx, recentCollections)
	if err != nil {
		return nil, err
	}
	d.RecentCollections = make([]RecentCollection, len(recent))
	for i := range recent {
		c := &recent[i]
		d.RecentCollections[i] = RecentCollection{
			ID:             c.ID,
			Name:           c.Name,
			TenantID:       c.TenantID,
			RoomNumber:     c.RoomNumber,
			Date:           c.Date,
			Amount:         c.Amount,
			CollectionType: string(c.Type),
			Status:         string(c.Status),
		}
	}

	s.logger.Debug("dashboard built",
		zap.Time("date", day),
		zap.Int("debtors", len(d.TopDebtors)),
	)
	return d, nil
}

// collectionTotals sums collections of the day, the week starting Monday
// and the calendar month
func (s *ReportService) collectionTotals(ctx context.Context, day time.Time) (PeriodTotals, error) {
	var t PeriodTotals
	var err error
	if t.Today, err = s.collectionRepo.SumBetween(ctx, day, day); err != nil {
		return t, err
	}
	if t.Week, err = s.collectionRepo.SumBetween(ctx, calendar.WeekStart(day), day); err != nil {
		return t, err
	}
	if t.Month, err = s.collectionRepo.SumBetween(ctx, calendar.MonthStart(day), calendar.MonthEnd(day)); err != nil {
		return t, err
	}
	return t, nil
}

func (s *ReportService) agentPerformance(ctx context.Context) ([]AgentPerformance, error) {
	stats, err := s.agreementRepo.AgentStats(ctx, topAgents)
	if err != nil {
		return nil, err
	}
	out := make([]AgentPerformance, 0, len(stats))
	for _, st := range stats {
		perf := AgentPerformance{
			AgentID:     st.AgentID,
			TenantCount: st.TenantCount,
			TotalRent:   st.TotalRent,
		}
		agent, err := s.agentRepo.FindByID(ctx, st.AgentID)
		switch {
		case err == nil:
			perf.AgentName = agent.Name
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
		out = append(out, perf)
	}
	return out, nil
}

// balances counts tenants by the sign of their latest running balance and
// picks the largest debtors
func (s *ReportService) balances(ctx context.Context, d *Dashboard) error {
	latest, err := s.entryRepo.LatestBalances(ctx)
	if err != nil {
		return err
	}

	debtors := make([]ledger.TenantBalance, 0)
	for _, b := range latest {
		switch {
		case b.Balance.IsNegative():
			d.TenantsInCredit++
		case b.Balance.IsPositive():
			d.TenantsInDebit++
			debtors = append(debtors, b)
		}
	}
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Balance.GreaterThan(debtors[j].Balance)
	})
	if len(debtors) > topDebtors {
		debtors = debtors[:topDebtors]
	}

	ids := make([]uuid.UUID, len(debtors))
	for i, b := range debtors {
		ids[i] = b.TenantID
	}
	names, err := s.tenantNames(ctx, ids)
	if err != nil {
		return err
	}

	d.TopDebtors = make([]Debtor, len(debtors))
	for i, b := range debtors {
		d.TopDebtors[i] = Debtor{TenantID: b.TenantID, TenantName: names[b.TenantID], Balance: b.Balance}
	}
	return nil
}

func (s *ReportService) tenantNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	tenants, err := s.tenantRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tenants {
		names[tenants[i].ID] = tenants[i].Name
	}
	return names, nil
}

// StatementReport builds a tenant statement for a date range. A zero From
// means the first of the current month and a zero To means today.
func (s *ReportService) StatementReport(ctx context.Context, req StatementReportRequest) (*StatementReportResponse, error) {
	today := calendar.DateOf(s.clock())
	if req.From.IsZero() {
		req.From = calendar.MonthStart(today)
	}
	if req.To.IsZero() {
		req.To = today
	}
	t, err := s.tenantRepo.FindByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	r, err := s.statements.StatementReport(ctx, ledger.ReportRequest{
		TenantID:    req.TenantID,
		From:        req.From,
		To:          req.To,
		ExcludeZero: req.ExcludeZero,
		View:        ledger.ReportView(req.View),
	})
	if err != nil {
		return nil, err
	}
	return &StatementReportResponse{TenantName: t.Name, Report: r}, nil
}

// percent returns part/whole × 100 rounded to two places, and zero when the
// whole is zero
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
