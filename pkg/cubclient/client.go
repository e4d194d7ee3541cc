// Package cubclient provides the main entry point for creating Cub API clients
package cubclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivelum/cub-client/internal/client"
	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
)

// New creates a new Cub API client. The caller's config is not modified.
func New(ctx context.Context, config *cub.Config) (cub.Client, error) {
	if config == nil {
		return nil, cub.ErrConfigRequired
	}

	normalized := *config
	normalized.APIURL = NormalizeAPIURL(config.APIURL)

	// Use the internal client implementation
	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeAPIURL trims a trailing slash and defaults the scheme to https.
// An empty URL means the public Cub API.
func NormalizeAPIURL(apiURL string) string {
	apiURL = strings.TrimSuffix(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		return constants.DefaultAPIURL
	}

	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		apiURL = "https://" + apiURL
	}

	return apiURL
}

// NewWithAPIKey creates a new client for the public Cub API authenticating
// with an organization API key.
func NewWithAPIKey(ctx context.Context, apiKey string) (cub.Client, error) {
	return New(ctx, &cub.Config{
		APIKey: apiKey,
	})
}

// NewWithToken creates a new client for apiURL that authenticates with a user
// session token obtained earlier.
func NewWithToken(ctx context.Context, apiURL, apiKey, token string) (cub.Client, error) {
	return New(ctx, &cub.Config{
		APIURL: apiURL,
		APIKey: apiKey,
		Token:  token,
	})
}
