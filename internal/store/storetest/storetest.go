// Package storetest holds the behaviour every store.Store implementation
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by newStore for every subtest
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Wallets", func(t *testing.T) { testWallets(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("Rename", func(t *testing.T) { testRename(t, newStore(t)) })
}

func user(name string) domain.User {
	return domain.User{Username: name, Password: "hash", Role: domain.RoleUser, FullName: name, JoinedDate: "2024-01-01T00:00:00Z"}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, user("budi")))
	require.NoError(t, s.CreateUser(ctx, user("adi")))

	err := s.CreateUser(ctx, user("budi"))
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	got, err := s.GetUser(ctx, "budi")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.Password)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "adi", users[0].Username)

	updated, err := s.UpdateProfile(ctx, "budi", domain.Profile{FullName: "Budi S", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Budi S", updated.FullName)
	updated, err = s.UpdateProfile(ctx, "budi", domain.Profile{FullName: "Budi S"})
	require.NoError(t, err)
	assert.Empty(t, updated.Email, "clearing an optional field is persisted")
	got, err = s.GetUser(ctx, "budi")
	require.NoError(t, err)
	assert.Empty(t, got.Email)

	_, err = s.UpdateProfile(ctx, "nobody", domain.Profile{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testWallets(t *testing.T, s store.Store) {
	ctx := context.Background()
	b, err := s.CreateWallet(ctx, "joni", domain.Wallet{Name: "Bank", Type: domain.WalletDebitCard, Balance: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "joni", b.Owner)
	_, err = s.CreateWallet(ctx, "joni", domain.Wallet{Name: "Automat", Type: domain.WalletCash})
	require.NoError(t, err)
	_, err = s.CreateWallet(ctx, "budi", domain.Wallet{Name: "Other", Type: domain.WalletCash})
	require.NoError(t, err)

	ws, err := s.ListWallets(ctx, "joni")
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "Automat", ws[0].Name)

	_, err = s.GetWallet(ctx, "budi", b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "wallets are scoped by owner")

	assert.ErrorIs(t, s.DeleteWallet(ctx, "budi", b.ID), store.ErrNotFound)
	require.NoError(t, s.DeleteWallet(ctx, "joni", b.ID))
	_, err = s.GetWallet(ctx, "joni", b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	w, err := s.CreateWallet(ctx, "joni", domain.Wallet{Name: "Main", Type: domain.WalletCash, Balance: 100000})
	require.NoError(t, err)

	expense := domain.Transaction{WalletID: w.ID, CategoryID: "cat-1", Type: domain.Expense, Amount: 20000, Date: "2024-01-05"}
	recorded, wallet, err := s.AddTransaction(ctx, "joni", expense, -20000)
	require.NoError(t, err)
	assert.NotEmpty(t, recorded.ID)
	assert.Equal(t, int64(80000), wallet.Balance)

	income := domain.Transaction{WalletID: w.ID, CategoryID: "cat-6", Type: domain.Income, Amount: 5000, Date: "2024-01-20"}
	_, wallet, err = s.AddTransaction(ctx, "joni", income, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(85000), wallet.Balance)

	_, _, err = s.AddTransaction(ctx, "budi", income, 5000)
	assert.ErrorIs(t, err, domain.ErrUnknownWallet, "another owner's wallet is invisible")

	txs, err := s.ListTransactions(ctx, "joni")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-20", txs[0].Date)

	undo := func(t domain.Transaction) int64 { return t.Amount }
	removed, after, err := s.DeleteTransaction(ctx, "joni", recorded.ID, undo)
	require.NoError(t, err)
	assert.Equal(t, recorded.ID, removed.ID)
	require.NotNil(t, after)
	assert.Equal(t, int64(105000), after.Balance)

	_, _, err = s.DeleteTransaction(ctx, "joni", recorded.ID, undo)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Orphaned transaction: wallet gone, delete still succeeds without a wallet
	txs, err = s.ListTransactions(ctx, "joni")
	require.NoError(t, err)
	require.NoError(t, s.DeleteWallet(ctx, "joni", w.ID))
	_, after, err = s.DeleteTransaction(ctx, "joni", txs[0].ID, undo)
	require.NoError(t, err)
	assert.Nil(t, after)
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveCategories(ctx, "joni", domain.DefaultCategories()...))
	require.NoError(t, s.SaveCategories(ctx, "budi", domain.DefaultCategories()...), "default ids repeat per owner")
	require.NoError(t, s.SaveCategories(ctx, "joni"), "saving nothing is a no-op")

	cats, err := s.ListCategories(ctx, "joni")
	require.NoError(t, err)
	require.Len(t, cats, 8)
	assert.Equal(t, "cat-1", cats[0].ID)

	again := domain.DefaultCategories()
	again[0].Name = "Renamed"
	require.NoError(t, s.SaveCategories(ctx, "joni", again...), "seeding twice is harmless")
	cats, err = s.ListCategories(ctx, "joni")
	require.NoError(t, err)
	require.Len(t, cats, 8)
	assert.Equal(t, "Food & Drinks", cats[0].Name, "existing rows are kept")

	c, err := s.GetCategory(ctx, "budi", "cat-3")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", c.Name)

	require.NoError(t, s.DeleteCategory(ctx, "joni", "cat-3"))
	assert.ErrorIs(t, s.DeleteCategory(ctx, "joni", "cat-3"), store.ErrNotFound)
	_, err = s.GetCategory(ctx, "budi", "cat-3")
	assert.NoError(t, err, "deleting one owner's category leaves the others")
}

func testRename(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, user("joni")))
	require.NoError(t, s.CreateUser(ctx, user("budi")))
	require.NoError(t, s.SaveCategories(ctx, "joni", domain.DefaultCategories()...))
	w, err := s.CreateWallet(ctx, "joni", domain.Wallet{Name: "Main", Type: domain.WalletCash})
	require.NoError(t, err)
	_, _, err = s.AddTransaction(ctx, "joni", domain.Transaction{
		WalletID: w.ID, CategoryID: "cat-1", Type: domain.Income, Amount: 1, Date: "2024-01-01",
	}, 1)
	require.NoError(t, err)

	renamed := user("joni2")
	_, err = s.RenameUser(ctx, "joni", user("budi"))
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	_, err = s.RenameUser(ctx, "ghost", renamed)
	assert.ErrorIs(t, err, store.ErrNotFound)

	res, err := s.RenameUser(ctx, "joni", renamed)
	require.NoError(t, err)
	assert.Equal(t, store.RenameResult{Wallets: 1, Transactions: 1, Categories: 8}, res)

	_, err = s.GetUser(ctx, "joni")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUser(ctx, "joni2")
	require.NoError(t, err)

	ws, err := s.ListWallets(ctx, "joni2")
	require.NoError(t, err)
	assert.Len(t, ws, 1)
	txs, err := s.ListTransactions(ctx, "joni2")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	cats, err := s.ListCategories(ctx, "joni2")
	require.NoError(t, err)
	assert.Len(t, cats, 8)
	old, err := s.ListWallets(ctx, "joni")
	require.NoError(t, err)
	assert.Empty(t, old)
}
