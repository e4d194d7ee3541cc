package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ivelum/cub-client/pkg/cub"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting session changes.
type ConfigPersister interface {
	UpdateSessionToken(apiURL, token string) error
}

// ConfigTokenManager wraps SessionTokenManager and persists session tokens so
// that later processes reuse the login.
type ConfigTokenManager struct {
	session         *SessionTokenManager
	configPersister ConfigPersister
	apiURL          string
	logger          cub.Logger
	mutex           sync.Mutex
}

// NewConfigTokenManager creates a new config-persisting token manager.
func NewConfigTokenManager(session *SessionTokenManager, configPersister ConfigPersister, apiURL string, logger cub.Logger) *ConfigTokenManager {
	if logger == nil {
		logger = cub.NoopLogger{}
	}

	return &ConfigTokenManager{
		session:         session,
		configPersister: configPersister,
		apiURL:          apiURL,
		logger:          logger,
	}
}

// SetReissuer installs the call used by RefreshToken.
func (m *ConfigTokenManager) SetReissuer(reissuer Reissuer) {
	m.session.SetReissuer(reissuer)
}

// GetToken returns the current credential.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.session.GetToken(ctx)
}

// RefreshToken reissues the session token and persists the new one.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.session.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.persist(m.session.SessionToken())

	return nil
}

// SetToken starts a session and persists it.
func (m *ConfigTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.session.SetToken(token, expiresAt)
	m.persist(token)
}

// ClearToken ends the session and removes the persisted token.
func (m *ConfigTokenManager) ClearToken() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.session.ClearToken()
	m.persist("")
}

// persist saves the token; failures are logged but never fail the call.
func (m *ConfigTokenManager) persist(token string) {
	err := m.persistToken(token)
	if err != nil {
		m.logger.Warn("failed to persist session token", map[string]interface{}{
			"api_url": m.apiURL,
			"error":   err.Error(),
		})
	}
}

func (m *ConfigTokenManager) persistToken(token string) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateSessionToken(m.apiURL, token)
	if err != nil {
		return fmt.Errorf("failed to update session token: %w", err)
	}

	return nil
}

// SessionToken returns the current session token.
func (m *ConfigTokenManager) SessionToken() string {
	return m.session.SessionToken()
}
