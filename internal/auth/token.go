package auth

import (
	"context"
	"sync"
	"time"
)

// tokenExpirationBuffer treats tokens about to expire as already expired.
const tokenExpirationBuffer = 30 * time.Second

// TokenManager supplies the bearer credential attached to every request.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Token is a session token issued by user login.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token is set and not about to expire. A zero
// ExpiresAt means the token does not expire.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(tokenExpirationBuffer).Before(t.ExpiresAt)
}

// TokenStore holds a token for concurrent readers.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}

// SessionManager is a TokenManager that can also end a user session.
type SessionManager interface {
	TokenManager
	SessionToken() string
	ClearToken()
	SetReissuer(reissuer Reissuer)
}
