// Package ledger keeps wallet balances consistent with the transactions
// recorded against them.
package ledger

import "smart_wallet/internal/domain"

// Delta is the signed balance change a transaction causes when recorded
func Delta(t domain.Transaction) int64 {
	if t.Type == domain.Income {
		return t.Amount
	}
	return -t.Amount
}

// Undo is the signed balance change that reverses t exactly
func Undo(t domain.Transaction) int64 {
	return -Delta(t)
}
