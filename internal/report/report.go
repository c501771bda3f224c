// Package report derives dashboard figures from an owner's records. Nothing
// here performs I/O; every function can be called again on the same
// snapshot and gives the same answer.
package report

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"smart_wallet/internal/domain"
)

// Snapshot is one consistent view of an owner's collections
type Snapshot struct {
	Wallets      []domain.Wallet
	Transactions []domain.Transaction
	Categories   []domain.Category
}

// Filter selects transactions by inclusive date range and free-text search
type Filter struct {
	Start  string `form:"from" json:"from"` // First date included, YYYY-MM-DD
	End    string `form:"to" json:"to"`     // Last date included, YYYY-MM-DD
	Search string `form:"q" json:"q"`       // Matched against note and amount
}

// DefaultFilter spans the first day of now's month up to now
func DefaultFilter(now time.Time) Filter {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Filter{Start: first.Format(domain.DateLayout), End: now.Format(domain.DateLayout)}
}

// WithDefaults fills an empty bound from DefaultFilter(now)
func (f Filter) WithDefaults(now time.Time) Filter {
	d := DefaultFilter(now)
	if f.Start == "" {
		f.Start = d.Start
	}
	if f.End == "" {
		f.End = d.End
	}
	return f
}

// Validate rejects a bound that is not a YYYY-MM-DD date; Match compares
// bounds as strings and is only correct for that layout
func (f Filter) Validate() error {
	for _, bound := range []string{f.Start, f.End} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, bound); err != nil {
			return domain.Invalid(domain.ErrInvalidDate)
		}
	}
	return nil
}

// Match reports whether t passes the filter. Dates compare as strings, which
// is sound because the layout is fixed width and zero padded.
func (f Filter) Match(t domain.Transaction) bool {
	if t.Date < f.Start || t.Date > f.End {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Note), term) ||
		strings.Contains(strconv.FormatInt(t.Amount, 10), term)
}

// Apply returns the matching transactions, newest date first. Transactions
// sharing a date keep their relative input order.
func (f Filter) Apply(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

// CategoryTotal is one slice of the expense breakdown chart
type CategoryTotal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

// Stats are the dashboard figures
type Stats struct {
	TotalBalance int64           `json:"totalBalance"`
	TotalIncome  int64           `json:"totalIncome"`
	TotalExpense int64           `json:"totalExpense"`
	CategoryData []CategoryTotal `json:"categoryData"`
}

// Empty reports whether there is no expense to chart
func (s Stats) Empty() bool {
	return len(s.CategoryData) == 0
}

// TotalBalance sums every wallet balance regardless of any date filter
func TotalBalance(wallets []domain.Wallet) int64 {
	var total int64
	for _, w := range wallets {
		total += w.Balance
	}
	return total
}

// Aggregate computes the dashboard figures for the filtered transactions
func Aggregate(snap Snapshot, f Filter) Stats {
	filtered := f.Apply(snap.Transactions)

	stats := Stats{
		TotalBalance: TotalBalance(snap.Wallets),
		CategoryData: []CategoryTotal{},
	}
	expenseByCategory := make(map[string]int64)
	for _, t := range filtered {
		switch t.Type {
		case domain.Income:
			stats.TotalIncome += t.Amount
		case domain.Expense:
			stats.TotalExpense += t.Amount
			expenseByCategory[t.CategoryID] += t.Amount
		}
	}
	for _, c := range snap.Categories {
		if v := expenseByCategory[c.ID]; v > 0 {
			stats.CategoryData = append(stats.CategoryData, CategoryTotal{ID: c.ID, Name: c.Name, Value: v, Color: c.Color})
		}
	}
	return stats
}
