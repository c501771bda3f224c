package domain

import (
	"strings"
	"time"
)

// TransactionType is the direction of a money movement
type TransactionType string

const (
	Income  TransactionType = "Income"  // Money coming into a wallet
	Expense TransactionType = "Expense" // Money leaving a wallet
)

// Valid reports whether t is Income or Expense
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// DateLayout is the calendar date format used for Transaction.Date
const DateLayout = "2006-01-02"

// Transaction Model
type Transaction struct {
	ID         string          `gorm:"primaryKey;size:64" json:"id"`           // Opaque identifier assigned by the store
	Owner      string          `gorm:"index;size:64;not null" json:"-"`        // Username owning this transaction
	WalletID   string          `gorm:"index;size:64;not null" json:"walletId"` // Wallet affected by this transaction
	CategoryID string          `gorm:"size:64" json:"categoryId"`              // Category label, may dangle after a delete
	Amount     int64           `gorm:"not null" json:"amount"`                 // Strictly positive amount
	Type       TransactionType `gorm:"size:10;not null" json:"type"`           // Income or Expense
	Note       string          `gorm:"size:255" json:"note"`                   // Free text
	Date       string          `gorm:"index;size:10;not null" json:"date"`     // Calendar date, YYYY-MM-DD
	CreatedAt  int64           `gorm:"autoCreateTime:milli" json:"-"`          // Timestamp of creation in milliseconds
}

// Validate checks a transaction before it is recorded
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.WalletID) == "" {
		return Invalid(ErrMissingWallet)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return Invalid(ErrMissingCategory)
	}
	if t.Amount <= 0 {
		return Invalid(ErrInvalidAmount)
	}
	if !t.Type.Valid() {
		return Invalid(ErrInvalidTransactionType)
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return Invalid(ErrInvalidDate)
	}
	return nil
}
