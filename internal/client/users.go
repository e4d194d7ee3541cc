package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ivelum/cub-client/internal/auth"
	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/internal/http"
	"github.com/ivelum/cub-client/pkg/cub"
)

const (
	loginPath   = "/user/login"
	currentPath = "/user"
	reissuePath = "/user/reissue-token"
)

// UsersClient implements cub.UsersClient.
type UsersClient struct {
	*ResourceClient[*cub.User]

	tokenManager auth.SessionManager
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *http.Client, decoder *cub.Decoder, tokenManager auth.SessionManager) *UsersClient {
	return &UsersClient{
		ResourceClient: NewResourceClient[*cub.User](httpClient, decoder, cub.KindUser, "/users"),
		tokenManager:   tokenManager,
	}
}

// Login implements cub.UsersClient.Login.
func (c *UsersClient) Login(ctx context.Context, username, password string) (*cub.User, error) {
	resp, err := c.httpClient.Post(ctx, loginPath, cub.P("username", username, "password", password))
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	user, err := decodeOne[*cub.User](c.decoder, resp, "logging in")
	if err != nil {
		return nil, err
	}

	token, ok := user.Token()
	if !ok || token == "" {
		return nil, cub.ErrLoginTokenNotFound
	}

	c.tokenManager.SetToken(token, time.Time{})

	return user, nil
}

// Current implements cub.UsersClient.Current.
func (c *UsersClient) Current(ctx context.Context, token string) (*cub.User, error) {
	req := &http.Request{Method: "GET", Path: currentPath}

	if token != "" {
		req.Headers = map[string]string{constants.HeaderAuthorization: "Bearer " + token}
	} else if c.tokenManager.SessionToken() == "" {
		return nil, cub.ErrNotLoggedIn
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	return decodeOne[*cub.User](c.decoder, resp, "getting current user")
}

// Reissue implements cub.UsersClient.Reissue.
func (c *UsersClient) Reissue(ctx context.Context) error {
	err := c.tokenManager.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("reissuing token: %w", err)
	}

	return nil
}

// Logout implements cub.UsersClient.Logout.
func (c *UsersClient) Logout(_ context.Context) {
	c.tokenManager.ClearToken()
}

// reissue is the auth.Reissuer of the client's token manager.
func (c *UsersClient) reissue(ctx context.Context, token string) (string, error) {
	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:  "POST",
		Path:    reissuePath,
		Headers: map[string]string{constants.HeaderAuthorization: "Bearer " + token},
	})
	if err != nil {
		return "", err
	}

	user, err := decodeOne[*cub.User](c.decoder, resp, "reissuing token")
	if err != nil {
		return "", err
	}

	fresh, ok := user.Token()
	if !ok || fresh == "" {
		return "", cub.ErrLoginTokenNotFound
	}

	return fresh, nil
}
