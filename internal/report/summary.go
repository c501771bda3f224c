package report

import (
	"fmt"
	"strconv"
	"strings"
)

// SummaryLimit is how many recent transactions go into a Summary
const SummaryLimit = 15

// Summary renders a plain-text financial context for the advice service:
// the total balance followed by the most recent transactions.
func Summary(snap Snapshot, limit int) string {
	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
	}

	recent := snap.Transactions
	if limit >= 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s Rp%s (%s - %s)",
			t.Date, t.Type, FormatAmount(t.Amount), names[t.CategoryID], t.Note))
	}

	return fmt.Sprintf("Total balance: Rp%s. Recent transactions: %s.",
		FormatAmount(TotalBalance(snap.Wallets)), strings.Join(lines, "; "))
}

// FormatAmount groups thousands with dots, e.g. 1234567 -> "1.234.567"
func FormatAmount(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
