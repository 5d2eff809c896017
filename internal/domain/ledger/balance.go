package ledger

import (
	"bytes"
	"sort"

	"github.com/shopspring/decimal"
)

// SortEntries orders entries by transaction date, then insertion order
func SortEntries(entries []*StatementEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})
}

// entryLess orders by date, then sequence with unsequenced entries last,
// then id
func entryLess(a, b *StatementEntry) bool {
	if !a.TransactionDate.Equal(b.TransactionDate) {
		return a.TransactionDate.Before(b.TransactionDate)
	}
	if a.Sequence != b.Sequence {
		switch {
		case a.Sequence == 0:
			return false
		case b.Sequence == 0:
			return true
		}
		return a.Sequence < b.Sequence
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// RecomputeRunningBalances sorts entries in place and rewrites each running
// balance as the prefix sum of (debit - credit) up to and including the
// entry. It returns the entries whose balance changed. Running it twice
// returns nothing the second time.
func RecomputeRunningBalances(entries []*StatementEntry) []*StatementEntry {
	SortEntries(entries)
	changed := make([]*StatementEntry, 0)
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Net())
		if !e.RunningBalance.Equal(balance) {
			e.RunningBalance = balance
			changed = append(changed, e)
		}
	}
	return changed
}

// Balance returns the closing balance of a set of entries
func Balance(entries []*StatementEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Net())
	}
	return total
}
