package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"smart_wallet/internal/db"
	"smart_wallet/internal/domain"
	"smart_wallet/internal/store"
	"smart_wallet/internal/store/storetest"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "wallet.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return conn
}

func TestGormStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewGormStore(openDB(t)) })
}

func TestGormRenameRollsBack(t *testing.T) {
	ctx := context.Background()
	conn := openDB(t)
	s := store.NewGormStore(conn)

	require.NoError(t, s.CreateUser(ctx, domain.User{Username: "joni", Password: "hash", Role: domain.RoleUser}))
	require.NoError(t, s.SaveCategories(ctx, "joni", domain.DefaultCategories()...))
	_, err := s.CreateWallet(ctx, "joni", domain.Wallet{Name: "Main", Type: domain.WalletCash})
	require.NoError(t, err)

	// Fail the final step of the rename, after every owner column was rewritten
	boom := errors.New("boom")
	require.NoError(t, conn.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			tx.AddError(boom)
		}
	}))

	_, err = s.RenameUser(ctx, "joni", domain.User{Username: "joni2", Password: "hash", Role: domain.RoleUser})
	require.ErrorIs(t, err, boom)

	_, err = s.GetUser(ctx, "joni")
	assert.NoError(t, err)
	_, err = s.GetUser(ctx, "joni2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	ws, err := s.ListWallets(ctx, "joni")
	require.NoError(t, err)
	assert.Len(t, ws, 1)
	cats, err := s.ListCategories(ctx, "joni2")
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestGormAddTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	conn := openDB(t)
	s := store.NewGormStore(conn)

	w, err := s.CreateWallet(ctx, "joni", domain.Wallet{Name: "Main", Type: domain.WalletCash, Balance: 100})
	require.NoError(t, err)

	// Fail the balance update that follows the insert
	boom := errors.New("boom")
	require.NoError(t, conn.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "wallets" {
			tx.AddError(boom)
		}
	}))

	_, _, err = s.AddTransaction(ctx, "joni", domain.Transaction{
		WalletID: w.ID, CategoryID: "cat-1", Type: domain.Expense, Amount: 40, Date: "2024-01-01",
	}, -40)
	require.ErrorIs(t, err, boom)

	txs, err := s.ListTransactions(ctx, "joni")
	require.NoError(t, err)
	assert.Empty(t, txs)
	got, err := s.GetWallet(ctx, "joni", w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Balance)
}
