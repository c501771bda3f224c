// Package store persists users and the records they own. Every wallet,
// transaction and category query is scoped by the owning username.
package store

import (
	"context"
	"errors"

	"smart_wallet/internal/domain"
)

// ErrNotFound is returned when a record does not exist for the given owner
var ErrNotFound = errors.New("record not found")

// RenameResult counts the records re-pointed by RenameUser
type RenameResult struct {
	Wallets      int64 `json:"wallets"`
	Transactions int64 `json:"transactions"`
	Categories   int64 `json:"categories"`
}

// Compensation computes the balance change that undoes a deleted transaction
type Compensation func(domain.Transaction) int64

// Store is the persistence contract shared by the SQL and in-memory backends
type Store interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, username string, p domain.Profile) (domain.User, error)
	// RenameUser creates renamed, re-points every record owned by oldUsername
	// and deletes the old user. Either all of it happens or none of it.
	RenameUser(ctx context.Context, oldUsername string, renamed domain.User) (RenameResult, error)

	ListWallets(ctx context.Context, owner string) ([]domain.Wallet, error)
	GetWallet(ctx context.Context, owner, id string) (domain.Wallet, error)
	CreateWallet(ctx context.Context, owner string, w domain.Wallet) (domain.Wallet, error)
	DeleteWallet(ctx context.Context, owner, id string) error

	ListTransactions(ctx context.Context, owner string) ([]domain.Transaction, error)
	// AddTransaction records t and moves its wallet balance by delta atomically.
	AddTransaction(ctx context.Context, owner string, t domain.Transaction, delta int64) (domain.Transaction, domain.Wallet, error)
	// DeleteTransaction removes a transaction and applies undo to its wallet
	// atomically. The returned wallet is nil when the wallet no longer exists,
	// in which case only the transaction is removed.
	DeleteTransaction(ctx context.Context, owner, id string, undo Compensation) (domain.Transaction, *domain.Wallet, error)

	ListCategories(ctx context.Context, owner string) ([]domain.Category, error)
	GetCategory(ctx context.Context, owner, id string) (domain.Category, error)
	// SaveCategories inserts cats for owner and skips ids the owner already has
	SaveCategories(ctx context.Context, owner string, cats ...domain.Category) error
	DeleteCategory(ctx context.Context, owner, id string) error
}
