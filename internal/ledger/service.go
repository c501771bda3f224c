package ledger

import (
	"context"
	"errors"
	"fmt"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/events"
	"smart_wallet/internal/store"

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Service validates and records wallet and transaction mutations
type Service struct {
	store  store.Store
	events events.Publisher
}

func NewService(s store.Store, p events.Publisher) *Service {
	if p == nil {
		p = events.Discard
	}
	return &Service{store: s, events: p}
}

func (s *Service) notify(ctx context.Context, c events.Change) {
	if err := s.events.Publish(ctx, c); err != nil {
		logrus.WithFields(logrus.Fields{
			"owner":      c.Owner,
			"collection": c.Collection,
			"error":      err.Error(),
		}).Warn("Failed to publish change")
	}
}

// AddTransaction records t for owner and moves the wallet balance in the same
// atomic write. Nothing is written when validation fails.
func (s *Service) AddTransaction(ctx context.Context, owner string, t domain.Transaction) (domain.Transaction, domain.Wallet, error) {
	if err := t.Validate(); err != nil {
		return domain.Transaction{}, domain.Wallet{}, err
	}
	if _, err := s.store.GetWallet(ctx, owner, t.WalletID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Transaction{}, domain.Wallet{}, domain.Invalid(domain.ErrUnknownWallet)
		}
		return domain.Transaction{}, domain.Wallet{}, fmt.Errorf("look up wallet: %w", err)
	}
	if _, err := s.store.GetCategory(ctx, owner, t.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Transaction{}, domain.Wallet{}, domain.Invalid(domain.ErrUnknownCategory)
		}
		return domain.Transaction{}, domain.Wallet{}, fmt.Errorf("look up category: %w", err)
	}

	recorded, wallet, err := s.store.AddTransaction(ctx, owner, t, Delta(t))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"owner":     owner,
			"wallet_id": t.WalletID,
			"amount":    t.Amount,
			"type":      t.Type,
			"error":     err.Error(),
		}).Error("Add transaction failed")
		return domain.Transaction{}, domain.Wallet{}, err
	}
	logrus.WithFields(logrus.Fields{
		"owner":          owner,
		"transaction_id": recorded.ID,
		"wallet_id":      wallet.ID,
		"amount":         recorded.Amount,
		"type":           recorded.Type,
		"balance":        wallet.Balance,
	}).Info("Transaction recorded")

	s.notify(ctx, events.NewChange(owner, events.Transactions, events.Created, recorded.ID))
	s.notify(ctx, events.NewChange(owner, events.Wallets, events.Updated, wallet.ID))
	return recorded, wallet, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// wallet. When the wallet was deleted earlier the reversal is skipped.
func (s *Service) DeleteTransaction(ctx context.Context, owner, id string) (domain.Transaction, *domain.Wallet, error) {
	removed, wallet, err := s.store.DeleteTransaction(ctx, owner, id, Undo)
	if err != nil {
		return domain.Transaction{}, nil, err
	}
	fields := logrus.Fields{
		"owner":          owner,
		"transaction_id": removed.ID,
		"wallet_id":      removed.WalletID,
		"amount":         removed.Amount,
		"type":           removed.Type,
	}
	if wallet == nil {
		logrus.WithFields(fields).Warn("Transaction deleted without compensation, wallet no longer exists")
	} else {
		fields["balance"] = wallet.Balance
		logrus.WithFields(fields).Info("Transaction deleted")
		s.notify(ctx, events.NewChange(owner, events.Wallets, events.Updated, wallet.ID))
	}
	s.notify(ctx, events.NewChange(owner, events.Transactions, events.Deleted, removed.ID))
	return removed, wallet, nil
}

func (s *Service) ListTransactions(ctx context.Context, owner string) ([]domain.Transaction, error) {
	return s.store.ListTransactions(ctx, owner)
}

// CreateWallet stores a new wallet with its opening balance
func (s *Service) CreateWallet(ctx context.Context, owner string, w domain.Wallet) (domain.Wallet, error) {
	if err := w.Validate(); err != nil {
		return domain.Wallet{}, err
	}
	created, err := s.store.CreateWallet(ctx, owner, w)
	if err != nil {
		return domain.Wallet{}, err
	}
	logrus.WithFields(logrus.Fields{
		"owner":     owner,
		"wallet_id": created.ID,
		"balance":   created.Balance,
	}).Info("Wallet created")
	s.notify(ctx, events.NewChange(owner, events.Wallets, events.Created, created.ID))
	return created, nil
}

// DeleteWallet removes a wallet. Its transactions are kept and stop
// affecting any balance.
func (s *Service) DeleteWallet(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteWallet(ctx, owner, id); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"owner": owner, "wallet_id": id}).Info("Wallet deleted")
	s.notify(ctx, events.NewChange(owner, events.Wallets, events.Deleted, id))
	return nil
}

func (s *Service) ListWallets(ctx context.Context, owner string) ([]domain.Wallet, error) {
	return s.store.ListWallets(ctx, owner)
}
