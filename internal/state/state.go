// Package state keeps the in-memory view of one owner's records. Collections
// are only ever replaced whole, never patched in place.
package state

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/report"

	"golang.org/x/sync/errgroup"
)

// Source lists an owner's collections
type Source interface {
	ListWallets(ctx context.Context, owner string) ([]domain.Wallet, error)
	ListTransactions(ctx context.Context, owner string) ([]domain.Transaction, error)
	ListCategories(ctx context.Context, owner string) ([]domain.Category, error)
}

// State holds the latest snapshot. Readers always see a complete value.
type State struct {
	mu   sync.RWMutex
	snap report.Snapshot
}

func New() *State {
	return &State{}
}

func (s *State) ReplaceWallets(ws []domain.Wallet) {
	ws = slices.Clone(ws)
	s.mu.Lock()
	s.snap.Wallets = ws
	s.mu.Unlock()
}

func (s *State) ReplaceTransactions(txs []domain.Transaction) {
	txs = slices.Clone(txs)
	s.mu.Lock()
	s.snap.Transactions = txs
	s.mu.Unlock()
}

func (s *State) ReplaceCategories(cats []domain.Category) {
	cats = slices.Clone(cats)
	s.mu.Lock()
	s.snap.Categories = cats
	s.mu.Unlock()
}

// Replace swaps all three collections at once
func (s *State) Replace(snap report.Snapshot) {
	next := report.Snapshot{
		Wallets:      slices.Clone(snap.Wallets),
		Transactions: slices.Clone(snap.Transactions),
		Categories:   slices.Clone(snap.Categories),
	}
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
}

// Reset drops everything, as after a logout or an expired session
func (s *State) Reset() {
	s.Replace(report.Snapshot{})
}

func (s *State) Snapshot() report.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *State) Stats(f report.Filter) report.Stats {
	return report.Aggregate(s.Snapshot(), f)
}

// Load reads the three collections of owner concurrently
func Load(ctx context.Context, src Source, owner string) (report.Snapshot, error) {
	var snap report.Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Wallets, err = src.ListWallets(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		snap.Transactions, err = src.ListTransactions(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		snap.Categories, err = src.ListCategories(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Snapshot{}, fmt.Errorf("load %s: %w", owner, err)
	}
	return snap, nil
}
