package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/shared/calendar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEntry(t *testing.T, tenantID uuid.UUID, date time.Time, ref string, debit, credit int64) *StatementEntry {
	t.Helper()
	e, err := NewEntry(tenantID, date, ref, ref, TypeRent, decimal.NewFromInt(debit), decimal.NewFromInt(credit))
	require.NoError(t, err)
	return e
}

// ============ Running Balance Tests ============

func TestRecomputeRunningBalances_PrefixSum(t *testing.T) {
	tenantID := uuid.New()
	entries := []*StatementEntry{
		createTestEntry(t, tenantID, calendar.Date(2025, 3, 1), "R3", 1000, 0),
		createTestEntry(t, tenantID, calendar.Date(2025, 1, 1), "DEP", 2000, 0),
		createTestEntry(t, tenantID, calendar.Date(2025, 1, 1), "R1", 1000, 0),
		createTestEntry(t, tenantID, calendar.Date(2025, 2, 5), "PAY", 0, 2500),
	}

	changed := RecomputeRunningBalances(entries)
	assert.Len(t, changed, 4)

	wantRefs := []string{"DEP", "R1", "PAY", "R3"}
	wantBalances := []int64{2000, 3000, 500, 1500}
	for i, e := range entries {
		assert.Equal(t, wantRefs[i], e.Reference)
		assert.True(t, e.RunningBalance.Equal(decimal.NewFromInt(wantBalances[i])),
			"entry %s: got %s", e.Reference, e.RunningBalance)
	}
}

func TestRecomputeRunningBalances_Idempotent(t *testing.T) {
	tenantID := uuid.New()
	entries := []*StatementEntry{
		createTestEntry(t, tenantID, calendar.Date(2025, 1, 1), "A", 100, 0),
		createTestEntry(t, tenantID, calendar.Date(2025, 1, 2), "B", 0, 40),
	}
	RecomputeRunningBalances(entries)
	first := []decimal.Decimal{entries[0].RunningBalance, entries[1].RunningBalance}

	assert.Empty(t, RecomputeRunningBalances(entries))
	assert.True(t, first[0].Equal(entries[0].RunningBalance))
	assert.True(t, first[1].Equal(entries[1].RunningBalance))
}

func TestRecomputeRunningBalances_InvariantHoldsForShuffledInput(t *testing.T) {
	tenantID := uuid.New()
	rng := rand.New(rand.NewSource(42))
	entries := make([]*StatementEntry, 0, 50)
	for i := 0; i < 50; i++ {
		date := calendar.AddDays(calendar.Date(2025, 1, 1), rng.Intn(60))
		debit, credit := int64(rng.Intn(500)), int64(0)
		if i%3 == 0 {
			debit, credit = 0, int64(rng.Intn(700))
		}
		e := createTestEntry(t, tenantID, date, uuid.NewString(), debit, credit)
		e.Sequence = int64(i + 1)
		entries = append(entries, e)
	}
	rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })

	RecomputeRunningBalances(entries)

	prev := decimal.Zero
	for i, e := range entries {
		assert.True(t, e.RunningBalance.Equal(prev.Add(e.Net())), "index %d", i)
		if i > 0 {
			assert.False(t, e.TransactionDate.Before(entries[i-1].TransactionDate))
		}
		prev = e.RunningBalance
	}
	assert.True(t, prev.Equal(Balance(entries)))
}

func TestRecomputeRunningBalances_SequenceBreaksTies(t *testing.T) {
	tenantID := uuid.New()
	a := createTestEntry(t, tenantID, calendar.Date(2025, 1, 1), "A", 10, 0)
	b := createTestEntry(t, tenantID, calendar.Date(2025, 1, 1), "B", 0, 10)
	a.Sequence, b.Sequence = 2, 1

	entries := []*StatementEntry{a, b}
	RecomputeRunningBalances(entries)
	assert.Equal(t, "B", entries[0].Reference)
	assert.True(t, entries[0].RunningBalance.Equal(decimal.NewFromInt(-10)))
	assert.True(t, entries[1].RunningBalance.IsZero())
}

func TestSortEntries_UnsequencedEntriesGoLast(t *testing.T) {
	tenantID := uuid.New()
	day := calendar.Date(2025, 1, 1)
	seq2 := createTestEntry(t, tenantID, day, "seq2", 10, 0)
	seq5 := createTestEntry(t, tenantID, day, "seq5", 10, 0)
	seq2.Sequence, seq5.Sequence = 2, 5
	var unsequenced []*StatementEntry
	for _, ref := range []string{"u1", "u2", "u3"} {
		unsequenced = append(unsequenced, createTestEntry(t, tenantID, day, ref, 0, 5))
	}
	earlier := createTestEntry(t, tenantID, calendar.Date(2024, 12, 31), "earlier", 1, 0)

	all := append([]*StatementEntry{seq5, seq2, earlier}, unsequenced...)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		entries := append([]*StatementEntry(nil), all...)
		rng.Shuffle(len(entries), func(a, b int) { entries[a], entries[b] = entries[b], entries[a] })
		SortEntries(entries)

		require.Len(t, entries, len(all))
		assert.Equal(t, "earlier", entries[0].Reference)
		assert.Equal(t, "seq2", entries[1].Reference)
		assert.Equal(t, "seq5", entries[2].Reference)
		for k := 3; k < len(entries)-1; k++ {
			assert.True(t, entryLess(entries[k], entries[k+1]), "unsequenced entries follow id order")
			assert.Zero(t, entries[k].Sequence)
		}
	}

	t.Run("comparator is a strict weak ordering", func(t *testing.T) {
		for _, a := range all {
			assert.False(t, entryLess(a, a))
			for _, b := range all {
				if entryLess(a, b) {
					assert.False(t, entryLess(b, a))
				}
				for _, c := range all {
					if entryLess(a, b) && entryLess(b, c) {
						assert.True(t, entryLess(a, c))
					}
				}
			}
		}
	})
}

func TestNewEntry_Validation(t *testing.T) {
	tenantID := uuid.New()
	date := calendar.Date(2025, 1, 1)
	tests := []struct {
		name   string
		tenant uuid.UUID
		ref    string
		typ    TransactionType
		debit  int64
	}{
		{"missing tenant", uuid.Nil, "X", TypeRent, 1},
		{"empty reference", tenantID, "  ", TypeRent, 1},
		{"unknown type", tenantID, "X", TransactionType("fee"), 1},
		{"negative debit", tenantID, "X", TypeRent, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.tenant, date, tt.ref, "", tt.typ, decimal.NewFromInt(tt.debit), decimal.Zero)
			assert.Error(t, err)
		})
	}
}
