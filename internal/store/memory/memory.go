// Package memory is an in-process implementation of store.Store. Every write
// builds a new copy of the data set and swaps it in only when the whole
// operation succeeded.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/store"

	"github.com/google/uuid"
)

type dataset struct {
	users   map[string]domain.User
	wallets []domain.Wallet
	txs     []domain.Transaction
	cats    []domain.Category
}

func (d dataset) clone() dataset {
	users := make(map[string]domain.User, len(d.users))
	for k, v := range d.users {
		users[k] = v
	}
	return dataset{
		users:   users,
		wallets: slices.Clone(d.wallets),
		txs:     slices.Clone(d.txs),
		cats:    slices.Clone(d.cats),
	}
}

type Store struct {
	mu   sync.Mutex
	data dataset
	seq  int64

	// FailAt, when set, is consulted at named checkpoints inside write
	// operations. A non-nil return aborts the operation before it commits.
	FailAt func(checkpoint string) error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: dataset{users: map[string]domain.User{}}}
}

func (s *Store) checkpoint(name string) error {
	if s.FailAt == nil {
		return nil
	}
	return s.FailAt(name)
}

// write runs fn against a private copy and commits it only if fn succeeds.
func (s *Store) write(op string, fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data.clone()
	if err := fn(&next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.data = next
	return nil
}

func (s *Store) read() dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Store) nextCreatedAt() int64 {
	s.seq++
	return s.seq
}

func (s *Store) CreateUser(_ context.Context, u domain.User) error {
	return s.write("memory.CreateUser", func(d *dataset) error {
		if _, ok := d.users[u.Username]; ok {
			return domain.Invalid(domain.ErrUsernameTaken)
		}
		d.users[u.Username] = u
		return nil
	})
}

func (s *Store) GetUser(_ context.Context, username string) (domain.User, error) {
	u, ok := s.read().users[username]
	if !ok {
		return domain.User{}, fmt.Errorf("memory.GetUser: %w", store.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	d := s.read()
	users := make([]domain.User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.Username, b.Username) })
	return users, nil
}

func (s *Store) UpdateProfile(_ context.Context, username string, p domain.Profile) (domain.User, error) {
	var updated domain.User
	err := s.write("memory.UpdateProfile", func(d *dataset) error {
		u, ok := d.users[username]
		if !ok {
			return store.ErrNotFound
		}
		updated = u.WithProfile(p)
		d.users[username] = updated
		return nil
	})
	return updated, err
}

func (s *Store) RenameUser(_ context.Context, oldUsername string, renamed domain.User) (store.RenameResult, error) {
	var res store.RenameResult
	err := s.write("memory.RenameUser", func(d *dataset) error {
		if _, ok := d.users[oldUsername]; !ok {
			return store.ErrNotFound
		}
		if _, ok := d.users[renamed.Username]; ok {
			return domain.Invalid(domain.ErrUsernameTaken)
		}
		d.users[renamed.Username] = renamed
		for i := range d.wallets {
			if d.wallets[i].Owner == oldUsername {
				d.wallets[i].Owner = renamed.Username
				res.Wallets++
			}
		}
		if err := s.checkpoint("rename.wallets"); err != nil {
			return err
		}
		for i := range d.txs {
			if d.txs[i].Owner == oldUsername {
				d.txs[i].Owner = renamed.Username
				res.Transactions++
			}
		}
		if err := s.checkpoint("rename.transactions"); err != nil {
			return err
		}
		for i := range d.cats {
			if d.cats[i].Owner == oldUsername {
				d.cats[i].Owner = renamed.Username
				res.Categories++
			}
		}
		delete(d.users, oldUsername)
		return s.checkpoint("rename.commit")
	})
	if err != nil {
		return store.RenameResult{}, err
	}
	return res, nil
}

func (s *Store) ListWallets(_ context.Context, owner string) ([]domain.Wallet, error) {
	var out []domain.Wallet
	for _, w := range s.read().wallets {
		if w.Owner == owner {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Wallet) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetWallet(_ context.Context, owner, id string) (domain.Wallet, error) {
	for _, w := range s.read().wallets {
		if w.ID == id && w.Owner == owner {
			return w, nil
		}
	}
	return domain.Wallet{}, fmt.Errorf("memory.GetWallet: %w", store.ErrNotFound)
}

func (s *Store) CreateWallet(_ context.Context, owner string, w domain.Wallet) (domain.Wallet, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Owner = owner
	err := s.write("memory.CreateWallet", func(d *dataset) error {
		d.wallets = append(d.wallets, w)
		return nil
	})
	if err != nil {
		return domain.Wallet{}, err
	}
	return w, nil
}

func (s *Store) DeleteWallet(_ context.Context, owner, id string) error {
	return s.write("memory.DeleteWallet", func(d *dataset) error {
		i := slices.IndexFunc(d.wallets, func(w domain.Wallet) bool { return w.ID == id && w.Owner == owner })
		if i < 0 {
			return store.ErrNotFound
		}
		d.wallets = slices.Delete(d.wallets, i, i+1)
		return nil
	})
}

func (s *Store) ListTransactions(_ context.Context, owner string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range s.read().txs {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		return cmp.Or(cmp.Compare(b.Date, a.Date), cmp.Compare(b.CreatedAt, a.CreatedAt))
	})
	return out, nil
}

func (s *Store) AddTransaction(_ context.Context, owner string, t domain.Transaction, delta int64) (domain.Transaction, domain.Wallet, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Owner = owner
	var wallet domain.Wallet
	err := s.write("memory.AddTransaction", func(d *dataset) error {
		i := slices.IndexFunc(d.wallets, func(w domain.Wallet) bool { return w.ID == t.WalletID && w.Owner == owner })
		if i < 0 {
			return domain.Invalid(domain.ErrUnknownWallet)
		}
		t.CreatedAt = s.nextCreatedAt()
		d.txs = append(d.txs, t)
		if err := s.checkpoint("add.recorded"); err != nil {
			return err
		}
		d.wallets[i].Balance += delta
		wallet = d.wallets[i]
		return nil
	})
	if err != nil {
		return domain.Transaction{}, domain.Wallet{}, err
	}
	return t, wallet, nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner, id string, undo store.Compensation) (domain.Transaction, *domain.Wallet, error) {
	var (
		removed domain.Transaction
		wallet  *domain.Wallet
	)
	err := s.write("memory.DeleteTransaction", func(d *dataset) error {
		ti := slices.IndexFunc(d.txs, func(t domain.Transaction) bool { return t.ID == id && t.Owner == owner })
		if ti < 0 {
			return store.ErrNotFound
		}
		removed = d.txs[ti]
		if wi := slices.IndexFunc(d.wallets, func(w domain.Wallet) bool {
			return w.ID == removed.WalletID && w.Owner == owner
		}); wi >= 0 {
			d.wallets[wi].Balance += undo(removed)
			w := d.wallets[wi]
			wallet = &w
		}
		if err := s.checkpoint("delete.compensated"); err != nil {
			return err
		}
		d.txs = slices.Delete(d.txs, ti, ti+1)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, nil, err
	}
	return removed, wallet, nil
}

func (s *Store) ListCategories(_ context.Context, owner string) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range s.read().cats {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, owner, id string) (domain.Category, error) {
	for _, c := range s.read().cats {
		if c.ID == id && c.Owner == owner {
			return c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("memory.GetCategory: %w", store.ErrNotFound)
}

func (s *Store) SaveCategories(_ context.Context, owner string, cats ...domain.Category) error {
	return s.write("memory.SaveCategories", func(d *dataset) error {
		for _, c := range cats {
			c.Owner = owner
			if slices.ContainsFunc(d.cats, func(e domain.Category) bool { return e.ID == c.ID && e.Owner == owner }) {
				continue
			}
			d.cats = append(d.cats, c)
		}
		return nil
	})
}

func (s *Store) DeleteCategory(_ context.Context, owner, id string) error {
	return s.write("memory.DeleteCategory", func(d *dataset) error {
		i := slices.IndexFunc(d.cats, func(c domain.Category) bool { return c.ID == id && c.Owner == owner })
		if i < 0 {
			return store.ErrNotFound
		}
		d.cats = slices.Delete(d.cats, i, i+1)
		return nil
	})
}
