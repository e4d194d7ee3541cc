package auth_test

import (
	"testing"
	"time"

	"github.com/ivelum/cub-client/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    *auth.Token
		expected bool
	}{
		{
			name:     "nil token",
			token:    nil,
			expected: false,
		},
		{
			name:     "empty access token",
			token:    &auth.Token{AccessToken: ""},
			expected: false,
		},
		{
			name:     "valid token without expiry",
			token:    &auth.Token{AccessToken: "test-token"},
			expected: true,
		},
		{
			name:     "expired token",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(-1 * time.Hour)},
			expected: false,
		},
		{
			name:     "token expiring within buffer",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(15 * time.Second)},
			expected: false,
		},
		{
			name:     "token expiring just outside buffer",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(35 * time.Second)},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.Valid())
		})
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()
	t.Run("new store is empty", testNewStoreEmpty)
	t.Run("set and clear token", testSetAndClearToken)
	t.Run("concurrent access", testConcurrentTokenAccess)
}

func testNewStoreEmpty(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())
}

func testSetAndClearToken(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	store.Set(&auth.Token{AccessToken: "test-token", TokenType: "bearer"})

	retrieved := store.Get()
	assert.NotNil(t, retrieved)
	assert.Equal(t, "test-token", retrieved.AccessToken)

	store.Clear()
	assert.Nil(t, store.Get())
}

func testConcurrentTokenAccess(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	done := make(chan bool)

	for _, value := range []string{"token-1", "token-2"} {
		go func() {
			for range 100 {
				store.Set(&auth.Token{AccessToken: value})
			}

			done <- true
		}()

		go func() {
			for range 100 {
				_ = store.Get()
			}

			done <- true
		}()
	}

	for range 4 {
		<-done
	}

	finalToken := store.Get()
	assert.NotNil(t, finalToken)
	assert.True(t, finalToken.AccessToken == "token-1" || finalToken.AccessToken == "token-2")
}
