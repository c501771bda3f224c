package domain

import (
	"regexp"
	"strings"
)

const (
	RoleUser  = "user"  // Regular account
	RoleAdmin = "admin" // May provision other accounts
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

// User Model
type User struct {
	Username   string `gorm:"primaryKey;size:64" json:"username"` // Unique identifier and login key
	Password   string `gorm:"size:255;not null" json:"-"`         // Hashed password, never serialized
	Role       string `gorm:"size:10;default:user" json:"role"`   // Role: user or admin
	FullName   string `gorm:"size:100" json:"fullName"`           // Display name
	JoinedDate string `gorm:"size:40" json:"joinedDate"`          // RFC3339 registration time
	Email      string `gorm:"size:255" json:"email,omitempty"`    // Optional contact email
	Phone      string `gorm:"size:32" json:"phone,omitempty"`     // Optional phone number
	Bio        string `gorm:"size:500" json:"bio,omitempty"`      // Optional short bio
}

// IsAdmin reports whether the user may manage other accounts
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeUsername lowercases and trims a username the way it is stored
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks an already normalized username
func ValidateUsername(username string) error {
	if username == "" {
		return Invalid(ErrEmptyUsername)
	}
	if !usernamePattern.MatchString(username) {
		return Invalid(ErrInvalidUsername)
	}
	return nil
}

// Profile holds the user fields that can change without touching the identity
type Profile struct {
	FullName string `json:"fullName"` // Display name
	Email    string `json:"email"`    // Optional contact email
	Phone    string `json:"phone"`    // Optional phone number
	Bio      string `json:"bio"`      // Optional short bio
}

// Profile returns the editable part of the user record
func (u User) Profile() Profile {
	return Profile{FullName: u.FullName, Email: u.Email, Phone: u.Phone, Bio: u.Bio}
}

// WithProfile returns a copy of u carrying the given profile fields
func (u User) WithProfile(p Profile) User {
	u.FullName, u.Email, u.Phone, u.Bio = p.FullName, p.Email, p.Phone, p.Bio
	return u
}
