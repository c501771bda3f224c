package domain

import "strings"

// CustomCategoryPrefix marks categories created by a user rather than seeded
const CustomCategoryPrefix = "custom-"

// Category Model. The same default id exists once per owner, so the key is (ID, Owner).
type Category struct {
	ID    string `gorm:"primaryKey;size:64" json:"id"`  // Category identifier, unique per owner
	Owner string `gorm:"primaryKey;size:64" json:"-"`   // Username owning this category
	Name  string `gorm:"size:100;not null" json:"name"` // Display name
	Color string `gorm:"size:32" json:"color"`          // Chart color
	Icon  string `gorm:"size:16" json:"icon"`           // Display glyph
}

// IsCustom reports whether the category was created by the user
func (c Category) IsCustom() bool {
	return strings.HasPrefix(c.ID, CustomCategoryPrefix)
}

// Validate checks a category before it is stored
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid(ErrEmptyName)
	}
	return nil
}

// DefaultCategories returns a fresh copy of the set seeded into every new account
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-1", Name: "Food & Drinks", Color: "#ef4444", Icon: "🍔"},
		{ID: "cat-2", Name: "Transport", Color: "#3b82f6", Icon: "🚗"},
		{ID: "cat-3", Name: "Shopping", Color: "#a855f7", Icon: "🛍️"},
		{ID: "cat-4", Name: "Entertainment", Color: "#f59e0b", Icon: "🎬"},
		{ID: "cat-5", Name: "Rent & Bills", Color: "#10b981", Icon: "🏠"},
		{ID: "cat-6", Name: "Salary", Color: "#22c55e", Icon: "💰"},
		{ID: "cat-7", Name: "Health", Color: "#ec4899", Icon: "🏥"},
		{ID: "cat-8", Name: "Others", Color: "#64748b", Icon: "📦"},
	}
}
