package state

import (
	"context"
	"fmt"

	"smart_wallet/internal/events"
	"smart_wallet/internal/report"

	"github.com/sirupsen/logrus"
)

// Feed keeps a State current for one owner by reloading the collection named
// in every change event.
type Feed struct {
	src   Source
	sub   events.Subscriber
	owner string
	state *State
}

func NewFeed(src Source, sub events.Subscriber, owner string) *Feed {
	return &Feed{src: src, sub: sub, owner: owner, state: New()}
}

func (f *Feed) State() *State {
	return f.state
}

// Run loads the owner's records, calls onUpdate with the snapshot and again
// after every reload. It returns nil when ctx ends or the owner is renamed
// or removed, since the subscription no longer follows that identity.
func (f *Feed) Run(ctx context.Context, onUpdate func(report.Snapshot) error) error {
	// Subscribe first so nothing written during the initial load is missed
	changes, cancel, err := f.sub.Subscribe(ctx, f.owner)
	if err != nil {
		return fmt.Errorf("feed %s: %w", f.owner, err)
	}
	defer cancel()

	snap, err := Load(ctx, f.src, f.owner)
	if err != nil {
		return err
	}
	f.state.Replace(snap)
	if err := onUpdate(f.state.Snapshot()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			if c.Collection == events.Users && (c.Action == events.Renamed || c.Action == events.Deleted) {
				f.state.Reset()
				return nil
			}
			if err := f.reload(ctx, c.Collection); err != nil {
				logrus.WithFields(logrus.Fields{
					"owner":      f.owner,
					"collection": c.Collection,
					"error":      err.Error(),
				}).Error("Failed to reload collection")
				continue
			}
			if err := onUpdate(f.state.Snapshot()); err != nil {
				return err
			}
		}
	}
}

func (f *Feed) reload(ctx context.Context, c events.Collection) error {
	switch c {
	case events.Wallets:
		ws, err := f.src.ListWallets(ctx, f.owner)
		if err != nil {
			return err
		}
		f.state.ReplaceWallets(ws)
	case events.Transactions:
		txs, err := f.src.ListTransactions(ctx, f.owner)
		if err != nil {
			return err
		}
		f.state.ReplaceTransactions(txs)
	case events.Categories:
		cats, err := f.src.ListCategories(ctx, f.owner)
		if err != nil {
			return err
		}
		f.state.ReplaceCategories(cats)
	}
	return nil
}
