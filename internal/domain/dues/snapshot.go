package dues

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is an immutable view of every tenant's dues as of one day
type Snapshot struct {
	AsOf        time.Time `json:"as_of"`
	GeneratedAt time.Time `json:"generated_at"`
	Dues        []Due     `json:"dues"`
	byTenant    map[uuid.UUID]int
}

// Totals aggregates a snapshot
type Totals struct {
	Tenants             int                        `json:"tenants"`
	RentOutstanding     decimal.Decimal            `json:"rent_outstanding"`
	DepositOutstanding  decimal.Decimal            `json:"deposit_outstanding"`
	ParkingOutstanding  decimal.Decimal            `json:"parking_outstanding"`
	OtherOutstanding    decimal.Decimal            `json:"other_charges_outstanding"`
	TotalOutstanding    decimal.Decimal            `json:"total_outstanding"`
	OverdueCount        int                        `json:"overdue_count"`
	CriticalCount       int                        `json:"critical_count"`
	CountByStatus       map[Status]int             `json:"count_by_status"`
	OutstandingByStatus map[Status]decimal.Decimal `json:"outstanding_by_status"`
}

// Compute builds a snapshot. Only tenants with an active agreement and a
// positive total get a row. Rows are ordered by total descending.
func Compute(inputs []Input, today time.Time) *Snapshot {
	dues := make([]Due, 0, len(inputs))
	for _, in := range inputs {
		if due, ok := ComputeDue(in, today); ok {
			dues = append(dues, due)
		}
	}
	return NewSnapshot(dues, today, time.Now())
}

// NewSnapshot indexes precomputed dues, for example after loading them from
// a cache
func NewSnapshot(dues []Due, asOf, generatedAt time.Time) *Snapshot {
	sort.SliceStable(dues, func(i, j int) bool {
		if !dues[i].TotalOutstanding.Equal(dues[j].TotalOutstanding) {
			return dues[i].TotalOutstanding.GreaterThan(dues[j].TotalOutstanding)
		}
		return dues[i].TenantID.String() < dues[j].TenantID.String()
	})
	s := &Snapshot{
		AsOf:        asOf,
		GeneratedAt: generatedAt,
		Dues:        dues,
		byTenant:    make(map[uuid.UUID]int, len(dues)),
	}
	for i, d := range dues {
		s.byTenant[d.TenantID] = i
	}
	return s
}

// EmptySnapshot has no dues
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, time.Time{}, time.Time{})
}

// ForTenant returns the due of a tenant
func (s *Snapshot) ForTenant(tenantID uuid.UUID) (Due, bool) {
	i, ok := s.byTenant[tenantID]
	if !ok {
		return Due{}, false
	}
	return s.Dues[i], true
}

// List returns dues, optionally only those in the given status
func (s *Snapshot) List(status *Status) []Due {
	out := make([]Due, 0, len(s.Dues))
	for _, d := range s.Dues {
		if status != nil && d.Status != *status {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Overdue returns dues whose status is not current, oldest first
func (s *Snapshot) Overdue() []Due {
	out := make([]Due, 0)
	for _, d := range s.Dues {
		if d.Status.IsOverdue() {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysOverdue > out[j].DaysOverdue })
	return out
}

// Totals sums the snapshot
func (s *Snapshot) Totals() Totals {
	t := Totals{
		RentOutstanding:     decimal.Zero,
		DepositOutstanding:  decimal.Zero,
		ParkingOutstanding:  decimal.Zero,
		OtherOutstanding:    decimal.Zero,
		TotalOutstanding:    decimal.Zero,
		CountByStatus:       make(map[Status]int),
		OutstandingByStatus: make(map[Status]decimal.Decimal),
	}
	for _, d := range s.Dues {
		t.Tenants++
		t.RentOutstanding = t.RentOutstanding.Add(d.RentOutstanding)
		t.DepositOutstanding = t.DepositOutstanding.Add(d.DepositOutstanding)
		t.ParkingOutstanding = t.ParkingOutstanding.Add(d.ParkingOutstanding)
		t.OtherOutstanding = t.OtherOutstanding.Add(d.OtherChargesOutstanding)
		t.TotalOutstanding = t.TotalOutstanding.Add(d.TotalOutstanding)
		t.CountByStatus[d.Status]++
		t.OutstandingByStatus[d.Status] = t.OutstandingByStatus[d.Status].Add(d.TotalOutstanding)
		if d.Status.IsOverdue() {
			t.OverdueCount++
		}
		if d.Status.IsCritical() {
			t.CriticalCount++
		}
	}
	return t
}
