package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivelum/cub-client/pkg/cub"
)

// Static errors for err113 compliance.
var (
	ErrNoReissuer = errors.New("session token cannot be reissued")
)

// Reissuer exchanges a session token for a fresh one.
type Reissuer func(ctx context.Context, token string) (string, error)

// SessionTokenManager authenticates with the organization API key until a
// user session token is set, and with the session token afterwards.
type SessionTokenManager struct {
	apiKey   string
	store    *TokenStore
	reissuer Reissuer
}

// NewSessionTokenManager creates a manager for apiKey. A non-empty token
// starts a session right away.
func NewSessionTokenManager(apiKey, token string) *SessionTokenManager {
	m := &SessionTokenManager{apiKey: apiKey, store: NewTokenStore()}

	if token != "" {
		m.store.Set(&Token{AccessToken: token, TokenType: "bearer"})
	}

	return m
}

// SetReissuer installs the call used by RefreshToken.
func (m *SessionTokenManager) SetReissuer(reissuer Reissuer) {
	m.reissuer = reissuer
}

// GetToken returns the session token when one is valid, otherwise the API key.
func (m *SessionTokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	if m.apiKey == "" {
		return "", cub.ErrMissingAPIKey
	}

	return m.apiKey, nil
}

// SessionToken returns the current session token, or "" without a session.
func (m *SessionTokenManager) SessionToken() string {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken
	}

	return ""
}

// RefreshToken reissues the session token.
func (m *SessionTokenManager) RefreshToken(ctx context.Context) error {
	current := m.SessionToken()
	if current == "" {
		return cub.ErrNotLoggedIn
	}

	if m.reissuer == nil {
		return ErrNoReissuer
	}

	fresh, err := m.reissuer(ctx, current)
	if err != nil {
		return fmt.Errorf("reissuing session token: %w", err)
	}

	m.SetToken(fresh, time.Time{})

	return nil
}

// SetToken starts a session with token.
func (m *SessionTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}

// ClearToken ends the session and returns to API key authentication.
func (m *SessionTokenManager) ClearToken() {
	m.store.Clear()
}
