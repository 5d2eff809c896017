package billing

import (
	"context"
	"sort"
	"time"

	"github.com/erp/rental/internal/domain/collection"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchLimit caps how many invoices a single matcher returns
const MatchLimit = 10

var collectionToInvoiceType = map[collection.Type]InvoiceType{
	collection.TypeRent:           InvoiceTypeRent,
	collection.TypeDeposit:        InvoiceTypeDeposit,
	collection.TypeToken:          InvoiceTypeDeposit,
	collection.TypeParkingCharges: InvoiceTypeParking,
	collection.TypeParkingDeposit: InvoiceTypeParking,
	collection.TypeMaintenance:    InvoiceTypeMaintenance,
	collection.TypeUtility:        InvoiceTypeUtility,
	collection.TypePenalty:        InvoiceTypePenalty,
	collection.TypeOtherCharges:   InvoiceTypeOther,
	collection.TypeExtra:          InvoiceTypeOther,
	collection.TypeOutstanding:    InvoiceTypeOther,
	collection.TypeOther:          InvoiceTypeOther,
}

// InvoiceTypeForCollection maps a collection type onto the invoice type it pays
func InvoiceTypeForCollection(t collection.Type) InvoiceType {
	if it, ok := collectionToInvoiceType[t]; ok {
		return it
	}
	return InvoiceTypeOther
}

// InvoiceQuery selects open customer invoices of a tenant. Implementations
// always restrict to out_invoice moves that are posted and not fully paid,
// ordered by invoice date ascending.
type InvoiceQuery struct {
	TenantID    uuid.UUID
	InvoiceType *InvoiceType
	AgreementID *uuid.UUID
	PeriodFrom  *time.Time
	PeriodTo    *time.Time
	Limit       int
}

// Matcher builds one invoice query for a collection. ok is false when the
// matcher does not apply.
type Matcher struct {
	Name  string
	Build func(c *collection.Collection) (q InvoiceQuery, ok bool)
}

// Matcher names, most specific first
const (
	MatcherTypeAgreementPeriod = "type+agreement+period"
	MatcherTypeAgreement       = "type+agreement"
	MatcherTenantAny           = "tenant-any"
)

// DefaultMatchers is the chain used to find invoices for a collection
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Name: MatcherTypeAgreementPeriod, Build: matchTypeAgreementPeriod},
		{Name: MatcherTypeAgreement, Build: matchTypeAgreement},
		{Name: MatcherTenantAny, Build: matchTenantAny},
	}
}

func matchTypeAgreementPeriod(c *collection.Collection) (InvoiceQuery, bool) {
	if !c.Type.IsPeriodic() || c.PeriodFrom == nil || c.PeriodTo == nil {
		return InvoiceQuery{}, false
	}
	q, _ := matchTypeAgreement(c)
	q.PeriodFrom = c.PeriodFrom
	q.PeriodTo = c.PeriodTo
	return q, true
}

func matchTypeAgreement(c *collection.Collection) (InvoiceQuery, bool) {
	it := InvoiceTypeForCollection(c.Type)
	return InvoiceQuery{
		TenantID:    c.TenantID,
		InvoiceType: &it,
		AgreementID: c.AgreementID,
		Limit:       MatchLimit,
	}, true
}

func matchTenantAny(c *collection.Collection) (InvoiceQuery, bool) {
	return InvoiceQuery{TenantID: c.TenantID, Limit: MatchLimit}, true
}

// InvoiceFinder runs invoice queries
type InvoiceFinder interface {
	FindOpen(ctx context.Context, q InvoiceQuery) ([]Invoice, error)
}

// MatchResult is the outcome of running a matcher chain
type MatchResult struct {
	Matcher  string
	Invoices []Invoice
}

// Matched reports whether any invoice was found
func (r MatchResult) Matched() bool {
	return len(r.Invoices) > 0
}

// MatchInvoices runs the matchers in order and stops at the first one that
// finds invoices
func MatchInvoices(ctx context.Context, finder InvoiceFinder, c *collection.Collection, matchers []Matcher) (MatchResult, error) {
	for _, m := range matchers {
		q, ok := m.Build(c)
		if !ok {
			continue
		}
		invoices, err := finder.FindOpen(ctx, q)
		if err != nil {
			return MatchResult{}, err
		}
		if len(invoices) > 0 {
			return MatchResult{Matcher: m.Name, Invoices: invoices}, nil
		}
	}
	return MatchResult{}, nil
}

// AllocationTarget is an invoice that can take part of a payment
type AllocationTarget struct {
	ID                uuid.UUID
	Number            string
	OutstandingAmount decimal.Decimal
	InvoiceDate       time.Time
	CreatedAt         time.Time
}

// AllocationResult is the amount to apply to one target
type AllocationResult struct {
	TargetID     uuid.UUID
	TargetNumber string
	Amount       decimal.Decimal
}

// ReconciliationResult is the full allocation plan for a payment
type ReconciliationResult struct {
	Allocations          []AllocationResult
	TotalAllocated       decimal.Decimal
	RemainingAmount      decimal.Decimal
	FullyReconciled      bool
	TargetsFullyPaid     []uuid.UUID
	TargetsPartiallyPaid []uuid.UUID
}

// Allocator decides how a payment is spread over invoices
type Allocator interface {
	Allocate(amount decimal.Decimal, targets []AllocationTarget) (*ReconciliationResult, error)
}

// FIFOAllocator pays the oldest invoices first, by invoice date and then
// creation time
type FIFOAllocator struct{}

// NewFIFOAllocator creates a FIFO allocator
func NewFIFOAllocator() *FIFOAllocator {
	return &FIFOAllocator{}
}

// Allocate allocates the amount to targets oldest first
func (s *FIFOAllocator) Allocate(amount decimal.Decimal, targets []AllocationTarget) (*ReconciliationResult, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}

	sorted := make([]AllocationTarget, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].InvoiceDate.Equal(sorted[j].InvoiceDate) {
			return sorted[i].InvoiceDate.Before(sorted[j].InvoiceDate)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	result := &ReconciliationResult{
		Allocations:          make([]AllocationResult, 0),
		TotalAllocated:       decimal.Zero,
		TargetsFullyPaid:     make([]uuid.UUID, 0),
		TargetsPartiallyPaid: make([]uuid.UUID, 0),
	}
	remaining := amount

	for _, target := range sorted {
		if remaining.IsZero() {
			break
		}
		if !target.OutstandingAmount.IsPositive() {
			continue
		}

		alloc := decimal.Min(remaining, target.OutstandingAmount)
		result.Allocations = append(result.Allocations, AllocationResult{
			TargetID:     target.ID,
			TargetNumber: target.Number,
			Amount:       alloc,
		})
		result.TotalAllocated = result.TotalAllocated.Add(alloc)
		remaining = remaining.Sub(alloc)

		if alloc.GreaterThanOrEqual(target.OutstandingAmount) {
			result.TargetsFullyPaid = append(result.TargetsFullyPaid, target.ID)
		} else {
			result.TargetsPartiallyPaid = append(result.TargetsPartiallyPaid, target.ID)
		}
	}

	result.RemainingAmount = remaining
	result.FullyReconciled = remaining.IsZero()
	return result, nil
}

// TargetsFromInvoices converts open invoices into allocation targets
func TargetsFromInvoices(invoices []Invoice) []AllocationTarget {
	targets := make([]AllocationTarget, 0, len(invoices))
	for _, inv := range invoices {
		if !inv.IsOpen() {
			continue
		}
		targets = append(targets, AllocationTarget{
			ID:                inv.ID,
			Number:            inv.Number,
			OutstandingAmount: inv.AmountResidual,
			InvoiceDate:       inv.InvoiceDate,
			CreatedAt:         inv.CreatedAt,
		})
	}
	return targets
}
