package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ivelum/cub-client/internal/auth"
	"github.com/ivelum/cub-client/pkg/cub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPersist = errors.New("disk full")

type memoryPersister struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func (p *memoryPersister) UpdateSessionToken(apiURL, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	if p.tokens == nil {
		p.tokens = make(map[string]string)
	}

	p.tokens[apiURL] = token

	return nil
}

func TestSessionTokenManager_GetToken(t *testing.T) {
	t.Parallel()

	t.Run("api key without session", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewSessionTokenManager("sk_1", "")

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "sk_1", token)
		assert.Empty(t, manager.SessionToken())
	})

	t.Run("session token wins over api key", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewSessionTokenManager("sk_1", "")
		manager.SetToken("session", time.Time{})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "session", token)

		manager.ClearToken()

		token, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "sk_1", token)
	})

	t.Run("expired session falls back to api key", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewSessionTokenManager("sk_1", "")
		manager.SetToken("session", time.Now().Add(-time.Minute))

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "sk_1", token)
	})

	t.Run("no credentials", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewSessionTokenManager("", "").GetToken(context.Background())
		require.ErrorIs(t, err, cub.ErrMissingAPIKey)
	})

	t.Run("token without api key", func(t *testing.T) {
		t.Parallel()

		token, err := auth.NewSessionTokenManager("", "tok").GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})
}

func TestSessionTokenManager_RefreshToken(t *testing.T) {
	t.Parallel()

	manager := auth.NewSessionTokenManager("sk_1", "")
	require.ErrorIs(t, manager.RefreshToken(context.Background()), cub.ErrNotLoggedIn)

	manager.SetToken("old", time.Time{})
	require.ErrorIs(t, manager.RefreshToken(context.Background()), auth.ErrNoReissuer)

	manager.SetReissuer(func(ctx context.Context, token string) (string, error) {
		assert.Equal(t, "old", token)

		return "new", nil
	})
	require.NoError(t, manager.RefreshToken(context.Background()))
	assert.Equal(t, "new", manager.SessionToken())
}

func TestConfigTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("persists login and logout", func(t *testing.T) {
		t.Parallel()

		persister := &memoryPersister{}
		manager := auth.NewConfigTokenManager(auth.NewSessionTokenManager("sk_1", ""), persister, "https://id.example.com/v1", nil)

		manager.SetToken("session", time.Time{})
		assert.Equal(t, "session", persister.tokens["https://id.example.com/v1"])

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "session", token)

		manager.ClearToken()
		assert.Empty(t, persister.tokens["https://id.example.com/v1"])
		assert.Empty(t, manager.SessionToken())
	})

	t.Run("persist failure is not fatal", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewConfigTokenManager(auth.NewSessionTokenManager("", ""), &memoryPersister{err: errPersist}, "u", nil)
		manager.SetToken("session", time.Time{})
		assert.Equal(t, "session", manager.SessionToken())
	})
}
