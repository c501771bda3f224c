// Package session tracks signed-in users. A session ends after a period of
// inactivity; every authenticated request pushes that deadline back.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/utils"

	"github.com/google/uuid"
)

// ErrExpired reports a session that timed out, was destroyed or could not be read
var ErrExpired = errors.New("session expired")

// Store persists the user record behind each session id
type Store interface {
	Save(ctx context.Context, id string, u domain.User, idle time.Duration) error
	// Load returns ErrExpired for a missing or unreadable session
	Load(ctx context.Context, id string) (domain.User, error)
	// Touch restarts the idle window, or returns ErrExpired
	Touch(ctx context.Context, id string, idle time.Duration) error
	Delete(ctx context.Context, id string) error
	// Sessions lists the live session ids whose user is username
	Sessions(ctx context.Context, username string) ([]string, error)
}

// Manager issues tokens for sessions and resolves them back to users
type Manager struct {
	store  Store
	idle   time.Duration
	secret string
}

func NewManager(s Store, idle time.Duration, secret string) *Manager {
	return &Manager{store: s, idle: idle, secret: secret}
}

// Idle is the inactivity window after which a session ends
func (m *Manager) Idle() time.Duration {
	return m.idle
}

// Create opens a session for u and returns its bearer token
func (m *Manager) Create(ctx context.Context, u domain.User) (string, error) {
	id := uuid.NewString()
	if err := m.store.Save(ctx, id, u, m.idle); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	token, err := utils.GenerateJWT(id, m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, id)
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Restore resolves a token to its session and counts the call as activity
func (m *Manager) Restore(ctx context.Context, token string) (string, domain.User, error) {
	claims, err := utils.ParseJWT(token, m.secret)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("%w: %v", ErrExpired, err)
	}
	u, err := m.store.Load(ctx, claims.SessionID)
	if err != nil {
		return "", domain.User{}, err
	}
	if err := m.Touch(ctx, claims.SessionID); err != nil {
		return "", domain.User{}, err
	}
	return claims.SessionID, u, nil
}

func (m *Manager) Touch(ctx context.Context, id string) error {
	return m.store.Touch(ctx, id, m.idle)
}

// Update replaces the user stored in a live session, e.g. after a rename
func (m *Manager) Update(ctx context.Context, id string, u domain.User) error {
	return m.store.Save(ctx, id, u, m.idle)
}

// Rename points the session keepID at the renamed user and ends every other
// session of the previous username. A token left on the old name would act for
// whoever registers it next.
func (m *Manager) Rename(ctx context.Context, keepID, from string, u domain.User) error {
	ids, err := m.store.Sessions(ctx, from)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, id := range ids {
		if id == keepID {
			continue
		}
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("end session: %w", err)
		}
	}
	return m.Update(ctx, keepID, u)
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
