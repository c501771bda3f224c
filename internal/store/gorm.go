package store

import (
	"context"
	"errors"
	"fmt"

	"smart_wallet/internal/domain"

	"github.com/google/uuid" // Identifier generation
	"gorm.io/gorm"           // GORM ORM library
	"gorm.io/gorm/clause"    // Conflict handling
)

// GormStore implements Store on top of a SQL database
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an open GORM connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// wrap prefixes err with op and maps GORM's not-found error onto ErrNotFound
func wrap(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *GormStore) CreateUser(ctx context.Context, u domain.User) error {
	const op = "store.gorm.CreateUser"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.Invalid(domain.ErrUsernameTaken)
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, username string) (domain.User, error) {
	const op = "store.gorm.GetUser"

	var u domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return domain.User{}, wrap(op, err)
	}
	return u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "store.gorm.ListUsers"

	var users []domain.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, wrap(op, err)
	}
	return users, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, username string, p domain.Profile) (domain.User, error) {
	const op = "store.gorm.UpdateProfile"

	var u domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
			return err
		}
		// A map is used so that clearing an optional field is written too
		if err := tx.Model(&domain.User{}).Where("username = ?", username).Updates(map[string]any{
			"full_name": p.FullName,
			"email":     p.Email,
			"phone":     p.Phone,
			"bio":       p.Bio,
		}).Error; err != nil {
			return err
		}
		u = u.WithProfile(p)
		return nil
	})
	if err != nil {
		return domain.User{}, wrap(op, err)
	}
	return u, nil
}

func (s *GormStore) RenameUser(ctx context.Context, oldUsername string, renamed domain.User) (RenameResult, error) {
	const op = "store.gorm.RenameUser"

	var res RenameResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.User
		if err := tx.Where("username = ?", oldUsername).First(&current).Error; err != nil {
			return err
		}
		var taken int64
		if err := tx.Model(&domain.User{}).Where("username = ?", renamed.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domain.Invalid(domain.ErrUsernameTaken)
		}
		if err := tx.Create(&renamed).Error; err != nil {
			return err
		}
		// Re-point every owned record, one collection at a time
		counts := []*int64{&res.Wallets, &res.Transactions, &res.Categories}
		for i, model := range []any{&domain.Wallet{}, &domain.Transaction{}, &domain.Category{}} {
			result := tx.Model(model).Where("owner = ?", oldUsername).Update("owner", renamed.Username)
			if result.Error != nil {
				return result.Error
			}
			*counts[i] = result.RowsAffected
		}
		return tx.Where("username = ?", oldUsername).Delete(&domain.User{}).Error
	})
	if err != nil {
		return RenameResult{}, wrap(op, err)
	}
	return res, nil
}

func (s *GormStore) ListWallets(ctx context.Context, owner string) ([]domain.Wallet, error) {
	const op = "store.gorm.ListWallets"

	var wallets []domain.Wallet
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Order("name").Order("id").Find(&wallets).Error; err != nil {
		return nil, wrap(op, err)
	}
	return wallets, nil
}

func (s *GormStore) GetWallet(ctx context.Context, owner, id string) (domain.Wallet, error) {
	const op = "store.gorm.GetWallet"

	var w domain.Wallet
	if err := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).First(&w).Error; err != nil {
		return domain.Wallet{}, wrap(op, err)
	}
	return w, nil
}

func (s *GormStore) CreateWallet(ctx context.Context, owner string, w domain.Wallet) (domain.Wallet, error) {
	const op = "store.gorm.CreateWallet"

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Owner = owner
	if err := s.db.WithContext(ctx).Create(&w).Error; err != nil {
		return domain.Wallet{}, wrap(op, err)
	}
	return w, nil
}

func (s *GormStore) DeleteWallet(ctx context.Context, owner, id string) error {
	const op = "store.gorm.DeleteWallet"

	result := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).Delete(&domain.Wallet{})
	if result.Error != nil {
		return wrap(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap(op, ErrNotFound)
	}
	return nil
}

func (s *GormStore) ListTransactions(ctx context.Context, owner string) ([]domain.Transaction, error) {
	const op = "store.gorm.ListTransactions"

	var txs []domain.Transaction
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).
		Order("date desc").
		Order("created_at desc").
		Find(&txs).Error; err != nil {
		return nil, wrap(op, err)
	}
	return txs, nil
}

func (s *GormStore) AddTransaction(ctx context.Context, owner string, t domain.Transaction, delta int64) (domain.Transaction, domain.Wallet, error) {
	const op = "store.gorm.AddTransaction"

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Owner = owner
	var w domain.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner = ?", t.WalletID, owner).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Invalid(domain.ErrUnknownWallet)
			}
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Wallet{}).Where("id = ?", w.ID).
			Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", w.ID).First(&w).Error
	})
	if err != nil {
		return domain.Transaction{}, domain.Wallet{}, wrap(op, err)
	}
	return t, w, nil
}

func (s *GormStore) DeleteTransaction(ctx context.Context, owner, id string, undo Compensation) (domain.Transaction, *domain.Wallet, error) {
	const op = "store.gorm.DeleteTransaction"

	var (
		t      domain.Transaction
		wallet *domain.Wallet
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner = ?", id, owner).First(&t).Error; err != nil {
			return err
		}
		var w domain.Wallet
		err := tx.Where("id = ? AND owner = ?", t.WalletID, owner).First(&w).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Wallet already gone, the transaction is removed without compensation
		case err != nil:
			return err
		default:
			if err := tx.Model(&domain.Wallet{}).Where("id = ?", w.ID).
				Update("balance", gorm.Expr("balance + ?", undo(t))).Error; err != nil {
				return err
			}
			if err := tx.Where("id = ?", w.ID).First(&w).Error; err != nil {
				return err
			}
			wallet = &w
		}
		return tx.Where("id = ? AND owner = ?", id, owner).Delete(&domain.Transaction{}).Error
	})
	if err != nil {
		return domain.Transaction{}, nil, wrap(op, err)
	}
	return t, wallet, nil
}

func (s *GormStore) ListCategories(ctx context.Context, owner string) ([]domain.Category, error) {
	const op = "store.gorm.ListCategories"

	var cats []domain.Category
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Order("id").Find(&cats).Error; err != nil {
		return nil, wrap(op, err)
	}
	return cats, nil
}

func (s *GormStore) GetCategory(ctx context.Context, owner, id string) (domain.Category, error) {
	const op = "store.gorm.GetCategory"

	var c domain.Category
	if err := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).First(&c).Error; err != nil {
		return domain.Category{}, wrap(op, err)
	}
	return c, nil
}

func (s *GormStore) SaveCategories(ctx context.Context, owner string, cats ...domain.Category) error {
	const op = "store.gorm.SaveCategories"

	if len(cats) == 0 {
		return nil
	}
	rows := make([]domain.Category, len(cats))
	for i, c := range cats {
		c.Owner = owner
		rows[i] = c
	}
	// Rows already present are kept, so concurrent seeding of the same defaults succeeds
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *GormStore) DeleteCategory(ctx context.Context, owner, id string) error {
	const op = "store.gorm.DeleteCategory"

	result := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).Delete(&domain.Category{})
	if result.Error != nil {
		return wrap(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap(op, ErrNotFound)
	}
	return nil
}
