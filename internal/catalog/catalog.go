// Package catalog manages the categories transactions are filed under.
package catalog

import (
	"context"
	"fmt"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/events"
	"smart_wallet/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

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

// List returns the owner's categories, seeding the default set the first
// time an account has none.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Category, error) {
	cats, err := s.store.ListCategories(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}
	if err := s.store.SaveCategories(ctx, owner, domain.DefaultCategories()...); err != nil {
		return nil, fmt.Errorf("seed default categories: %w", err)
	}
	logrus.WithFields(logrus.Fields{"owner": owner}).Info("Default categories seeded")
	s.notify(ctx, events.NewChange(owner, events.Categories, events.Created, ""))
	return s.store.ListCategories(ctx, owner)
}

// Create stores a custom category under a generated id
func (s *Service) Create(ctx context.Context, owner string, c domain.Category) (domain.Category, error) {
	if err := c.Validate(); err != nil {
		return domain.Category{}, err
	}
	c.ID = domain.CustomCategoryPrefix + uuid.NewString()
	c.Owner = owner
	if c.Icon == "" {
		c.Icon = "📦"
	}
	if c.Color == "" {
		c.Color = "#64748b"
	}
	if err := s.store.SaveCategories(ctx, owner, c); err != nil {
		return domain.Category{}, err
	}
	s.notify(ctx, events.NewChange(owner, events.Categories, events.Created, c.ID))
	return c, nil
}

// Delete removes a category, default or custom. Transactions filed under it
// keep the dangling id and render without a category.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteCategory(ctx, owner, id); err != nil {
		return err
	}
	s.notify(ctx, events.NewChange(owner, events.Categories, events.Deleted, id))
	return nil
}

func (s *Service) notify(ctx context.Context, c events.Change) {
	if err := s.events.Publish(ctx, c); err != nil {
		logrus.WithFields(logrus.Fields{"owner": c.Owner, "error": err.Error()}).Warn("Failed to publish change")
	}
}
