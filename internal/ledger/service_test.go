package ledger

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/events"
	"smart_wallet/internal/store"
	"smart_wallet/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "joni"

func setup(t *testing.T, opening int64) (*Service, *memory.Store, domain.Wallet) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.SaveCategories(ctx, owner, domain.DefaultCategories()...))
	svc := NewService(st, nil)
	w, err := svc.CreateWallet(ctx, owner, domain.Wallet{Name: "Main", Type: domain.WalletCash, Balance: opening})
	require.NoError(t, err)
	return svc, st, w
}

func tx(walletID string, typ domain.TransactionType, amount int64) domain.Transaction {
	return domain.Transaction{WalletID: walletID, CategoryID: "cat-1", Type: typ, Amount: amount, Date: "2024-01-05"}
}

func balance(t *testing.T, st store.Store, id string) int64 {
	t.Helper()
	w, err := st.GetWallet(context.Background(), owner, id)
	require.NoError(t, err)
	return w.Balance
}

func TestScenarioAddAddDelete(t *testing.T) {
	ctx := context.Background()
	svc, st, w := setup(t, 100000)

	expense, wallet, err := svc.AddTransaction(ctx, owner, tx(w.ID, domain.Expense, 20000))
	require.NoError(t, err)
	assert.Equal(t, int64(80000), wallet.Balance)

	_, wallet, err = svc.AddTransaction(ctx, owner, tx(w.ID, domain.Income, 5000))
	require.NoError(t, err)
	assert.Equal(t, int64(85000), wallet.Balance)

	_, after, err := svc.DeleteTransaction(ctx, owner, expense.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, int64(105000), after.Balance)
	assert.Equal(t, int64(105000), balance(t, st, w.ID))
}

func TestAddThenDeleteRestoresBalance(t *testing.T) {
	ctx := context.Background()
	svc, st, w := setup(t, 2500)

	for _, typ := range []domain.TransactionType{domain.Income, domain.Expense} {
		added, _, err := svc.AddTransaction(ctx, owner, tx(w.ID, typ, 777))
		require.NoError(t, err)
		_, _, err = svc.DeleteTransaction(ctx, owner, added.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), balance(t, st, w.ID), typ)
	}
}

func TestRandomSequencesMatchSurvivingTransactions(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	svc, st, w := setup(t, 50000)

	var live []domain.Transaction
	for step := 0; step < 60; step++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(live))
			_, _, err := svc.DeleteTransaction(ctx, owner, live[i].ID)
			require.NoError(t, err)
			live = append(live[:i], live[i+1:]...)
			continue
		}
		typ := domain.Income
		if rng.Intn(2) == 0 {
			typ = domain.Expense
		}
		added, _, err := svc.AddTransaction(ctx, owner, tx(w.ID, typ, int64(rng.Intn(9000)+1)))
		require.NoError(t, err)
		live = append(live, added)
	}

	assert.Equal(t, replay(50000, w.ID, live), balance(t, st, w.ID))
}

func TestAddTransactionValidation(t *testing.T) {
	ctx := context.Background()
	svc, st, w := setup(t, 100)

	cases := []struct {
		name string
		tx   domain.Transaction
		want error
	}{
		{"zero amount", tx(w.ID, domain.Expense, 0), domain.ErrInvalidAmount},
		{"no wallet", tx("", domain.Expense, 10), domain.ErrMissingWallet},
		{"unknown wallet", tx("nope", domain.Expense, 10), domain.ErrUnknownWallet},
		{"unknown category", func() domain.Transaction {
			x := tx(w.ID, domain.Expense, 10)
			x.CategoryID = "missing"
			return x
		}(), domain.ErrUnknownCategory},
	}
	for _, tc := range cases {
		_, _, err := svc.AddTransaction(ctx, owner, tc.tx)
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, tc.want), "%s: %v", tc.name, err)
		assert.True(t, domain.IsValidation(err), tc.name)
	}

	txs, err := st.ListTransactions(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, int64(100), balance(t, st, w.ID))
}

func TestAddTransactionIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc, st, w := setup(t, 100)
	boom := errors.New("boom")
	st.FailAt = func(checkpoint string) error {
		if checkpoint == "add.recorded" {
			return boom
		}
		return nil
	}

	_, _, err := svc.AddTransaction(ctx, owner, tx(w.ID, domain.Expense, 40))
	require.ErrorIs(t, err, boom)

	txs, err := st.ListTransactions(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, txs, "transaction must not be visible when the balance write failed")
	assert.Equal(t, int64(100), balance(t, st, w.ID))
}

func TestDeleteTransactionAfterWalletDeleted(t *testing.T) {
	ctx := context.Background()
	svc, st, w := setup(t, 100)

	added, _, err := svc.AddTransaction(ctx, owner, tx(w.ID, domain.Expense, 40))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteWallet(ctx, owner, w.ID))

	removed, wallet, err := svc.DeleteTransaction(ctx, owner, added.ID)
	require.NoError(t, err)
	assert.Nil(t, wallet)
	assert.Equal(t, added.ID, removed.ID)

	txs, err := st.ListTransactions(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestDeleteUnknownTransaction(t *testing.T) {
	svc, _, _ := setup(t, 0)
	_, _, err := svc.DeleteTransaction(context.Background(), owner, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOtherOwnersCannotTouchRecords(t *testing.T) {
	ctx := context.Background()
	svc, _, w := setup(t, 100)
	added, _, err := svc.AddTransaction(ctx, owner, tx(w.ID, domain.Expense, 10))
	require.NoError(t, err)

	_, _, err = svc.DeleteTransaction(ctx, "mallory", added.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteWallet(ctx, "mallory", w.ID), store.ErrNotFound)
}

func TestMutationsPublishChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := events.NewHub()
	st := memory.New()
	require.NoError(t, st.SaveCategories(ctx, owner, domain.DefaultCategories()...))
	svc := NewService(st, hub)

	changes, stop, err := hub.Subscribe(ctx, owner)
	require.NoError(t, err)
	defer stop()

	w, err := svc.CreateWallet(ctx, owner, domain.Wallet{Name: "Main", Type: domain.WalletEMoney})
	require.NoError(t, err)
	_, _, err = svc.AddTransaction(ctx, owner, tx(w.ID, domain.Income, 5))
	require.NoError(t, err)

	var got []events.Collection
	timeout := time.After(time.Second)
	for len(got) < 3 {
		select {
		case c := <-changes:
			got = append(got, c.Collection)
		case <-timeout:
			t.Fatalf("only received %v", got)
		}
	}
	assert.Equal(t, []events.Collection{events.Wallets, events.Transactions, events.Wallets}, got)
}
