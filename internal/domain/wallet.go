package domain

import "strings"

// WalletType enumerates the supported kinds of wallet
type WalletType string

const (
	WalletCash       WalletType = "Cash"        // Physical cash
	WalletCreditCard WalletType = "Credit Card" // Credit card account
	WalletDebitCard  WalletType = "Debit Card"  // Debit card account
	WalletEMoney     WalletType = "E-Money"     // Electronic money
)

// WalletTypes lists every valid wallet type in display order
var WalletTypes = []WalletType{WalletCash, WalletCreditCard, WalletDebitCard, WalletEMoney}

// Valid reports whether t is one of the known wallet types
func (t WalletType) Valid() bool {
	for _, v := range WalletTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Wallet Model
type Wallet struct {
	ID      string     `gorm:"primaryKey;size:64" json:"id"`      // Opaque identifier assigned by the store
	Owner   string     `gorm:"index;size:64;not null" json:"-"`   // Username owning this wallet
	Name    string     `gorm:"size:100;not null" json:"name"`     // Display name
	Type    WalletType `gorm:"size:20;not null" json:"type"`      // Wallet type
	Balance int64      `gorm:"not null;default:0" json:"balance"` // Running balance in whole currency units
	Color   string     `gorm:"size:32" json:"color"`              // Display tag
}

// Validate checks the fields a caller supplies when creating a wallet
func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return Invalid(ErrEmptyName)
	}
	if !w.Type.Valid() {
		return Invalid(ErrInvalidWalletType)
	}
	return nil
}
