package commands

import (
	"sync"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateSessionToken stores the session token of apiURL. An empty token
// removes the session.
func (p *ConfigPersister) UpdateSessionToken(apiURL, token string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if token == "" {
		delete(config.Sessions, apiURL)
	} else {
		if config.Sessions == nil {
			config.Sessions = make(map[string]string)
		}

		config.Sessions[apiURL] = token
	}

	return saveConfigStruct(config)
}
