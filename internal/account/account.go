// Package account manages user identities: login, self-service registration,
// admin provisioning and profile edits including username changes.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/events"
	"smart_wallet/internal/store"

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials of the bootstrap administrator
type Credentials struct {
	Username string
	Password string
}

// NewUser is the input for registration and provisioning
type NewUser struct {
	Username string `json:"username" binding:"required"` // Login name
	FullName string `json:"fullName" binding:"required"` // Display name
	Password string `json:"password" binding:"required"` // Plain password, hashed before storage
}

// ProfileUpdate edits the profile and optionally renames the account.
// An empty Username keeps the current one.
type ProfileUpdate struct {
	Username string `json:"username"`
	domain.Profile
}

type Service struct {
	store  store.Store
	events events.Publisher
	admin  Credentials
	now    func() time.Time

	// HashCost is the bcrypt cost used for new passwords
	HashCost int
}

func NewService(s store.Store, p events.Publisher, admin Credentials) *Service {
	if p == nil {
		p = events.Discard
	}
	admin.Username = domain.NormalizeUsername(admin.Username)
	return &Service{store: s, events: p, admin: admin, now: time.Now, HashCost: bcrypt.DefaultCost}
}

// isValidPassword checks the password length; bcrypt ignores bytes past 72
func isValidPassword(password string) bool {
	return len(password) >= 6 && len(password) <= 72
}

// reserved reports whether username belongs to the configured administrator,
// who must always be able to sign in with the configured password
func (s *Service) reserved(username string) bool {
	return s.admin.Username != "" && username == s.admin.Username
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials and returns the stored user. The configured
// administrator is created on its first successful login.
func (s *Service) Login(ctx context.Context, username, password string) (domain.User, error) {
	username = domain.NormalizeUsername(username)
	user, err := s.store.GetUser(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if s.reserved(username) && password == s.admin.Password {
			return s.bootstrapAdmin(ctx)
		}
		return domain.User{}, ErrInvalidCredentials
	case err != nil:
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) bootstrapAdmin(ctx context.Context) (domain.User, error) {
	hash, err := s.hash(s.admin.Password)
	if err != nil {
		return domain.User{}, err
	}
	admin := domain.User{
		Username:   s.admin.Username,
		Password:   hash,
		Role:       domain.RoleAdmin,
		FullName:   "System Admin",
		JoinedDate: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return domain.User{}, err
	}
	logrus.WithFields(logrus.Fields{"username": admin.Username}).Info("Administrator account created")
	return admin, nil
}

// Register creates a regular account for the caller
func (s *Service) Register(ctx context.Context, in NewUser) (domain.User, error) {
	return s.create(ctx, in, domain.RoleUser)
}

// Provision creates a regular account on behalf of an administrator
func (s *Service) Provision(ctx context.Context, admin domain.User, in NewUser) (domain.User, error) {
	u, err := s.create(ctx, in, domain.RoleUser)
	if err != nil {
		return domain.User{}, err
	}
	logrus.WithFields(logrus.Fields{
		"admin":    admin.Username,
		"username": u.Username,
	}).Info("User provisioned")
	return u, nil
}

func (s *Service) create(ctx context.Context, in NewUser, role string) (domain.User, error) {
	username := domain.NormalizeUsername(in.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return domain.User{}, err
	}
	if s.reserved(username) {
		return domain.User{}, domain.Invalid(domain.ErrUsernameTaken)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return domain.User{}, domain.Invalid(domain.ErrEmptyFullName)
	}
	if !isValidPassword(in.Password) {
		return domain.User{}, domain.Invalid(domain.ErrInvalidPassword)
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		Username:   username,
		Password:   hash,
		Role:       role,
		FullName:   strings.TrimSpace(in.FullName),
		JoinedDate: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	s.notify(ctx, events.NewChange(u.Username, events.Users, events.Created, u.Username))
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, username string) (domain.User, error) {
	return s.store.GetUser(ctx, username)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

// UpdateProfile applies a profile edit. When the username changes, the user
// record and every wallet, transaction and category it owns move to the new
// name in one all-or-nothing write; the returned result counts them.
func (s *Service) UpdateProfile(ctx context.Context, current string, in ProfileUpdate) (domain.User, *store.RenameResult, error) {
	target := domain.NormalizeUsername(in.Username)
	if target == "" || target == current {
		u, err := s.store.UpdateProfile(ctx, current, in.Profile)
		if err != nil {
			return domain.User{}, nil, err
		}
		s.notify(ctx, events.NewChange(current, events.Users, events.Updated, current))
		return u, nil, nil
	}

	if err := domain.ValidateUsername(target); err != nil {
		return domain.User{}, nil, err
	}
	if s.reserved(target) {
		return domain.User{}, nil, domain.Invalid(domain.ErrUsernameTaken)
	}
	old, err := s.store.GetUser(ctx, current)
	if err != nil {
		return domain.User{}, nil, err
	}
	renamed := old.WithProfile(in.Profile)
	renamed.Username = target

	res, err := s.store.RenameUser(ctx, current, renamed)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"from":  current,
			"to":    target,
			"error": err.Error(),
		}).Error("Username change failed")
		return domain.User{}, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"from":         current,
		"to":           target,
		"wallets":      res.Wallets,
		"transactions": res.Transactions,
		"categories":   res.Categories,
	}).Info("Username changed")

	// Live views of the old identity reload and find nothing; the new one starts fresh
	s.notify(ctx, events.NewChange(current, events.Users, events.Renamed, target))
	s.notify(ctx, events.NewChange(target, events.Users, events.Renamed, target))
	return renamed, &res, nil
}

func (s *Service) notify(ctx context.Context, c events.Change) {
	if err := s.events.Publish(ctx, c); err != nil {
		logrus.WithFields(logrus.Fields{"owner": c.Owner, "error": err.Error()}).Warn("Failed to publish change")
	}
}
