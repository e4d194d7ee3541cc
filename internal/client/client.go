package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivelum/cub-client/internal/auth"
	"github.com/ivelum/cub-client/internal/http"
	"github.com/ivelum/cub-client/pkg/cub"
)

// Static errors for err113 compliance.
var (
	ErrAPIURLRequired = errors.New("API URL is required")
)

// Client implements the cub.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.SessionManager
	decoder      *cub.Decoder
	baseURL      string
	logger       cub.Logger

	// Resource clients
	users                *UsersClient
	organizations        *ResourceClient[*cub.Organization]
	members              *ResourceClient[*cub.Member]
	groups               *ResourceClient[*cub.Group]
	groupMembers         *ResourceClient[*cub.GroupMember]
	leads                *ResourceClient[*cub.Lead]
	countries            *ResourceClient[*cub.Country]
	states               *ResourceClient[*cub.State]
	messages             *ResourceClient[*cub.Message]
	sites                *ResourceClient[*cub.Site]
	webhookSubscriptions *ResourceClient[*cub.WebhookSubscription]
}

// New creates a Cub API client authenticating with config.Token or
// config.APIKey.
func New(ctx context.Context, config *cub.Config) (*Client, error) {
	if config == nil {
		return nil, cub.ErrConfigRequired
	}

	return NewWithTokenManager(ctx, config, auth.NewSessionTokenManager(config.APIKey, config.Token))
}

// NewWithTokenManager creates a Cub API client with a custom token manager,
// such as one persisting the session token.
func NewWithTokenManager(ctx context.Context, config *cub.Config, tokenManager auth.SessionManager) (*Client, error) {
	if config == nil {
		return nil, cub.ErrConfigRequired
	}

	if config.APIURL == "" {
		return nil, ErrAPIURLRequired
	}

	err := ctx.Err()
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	httpOpts, err := createHTTPClientOptions(config)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = cub.NoopLogger{}
	}

	client := &Client{
		httpClient:   http.NewClient(config.APIURL, tokenManager, httpOpts...),
		tokenManager: tokenManager,
		decoder:      cub.NewDecoder(config.Registry),
		baseURL:      config.APIURL,
		logger:       logger,
	}

	client.initializeResourceClients()
	tokenManager.SetReissuer(client.users.reissue)

	return client, nil
}

// createBackend builds the backend named by config.Backend.
func createBackend(config *cub.Config) (http.Backend, error) {
	switch config.Backend {
	case "", cub.BackendHTTP:
		return http.NewNetHTTPBackend(http.NewInstrumentedHTTPClient(config.MeterProvider, config.TracerProvider)), nil
	case cub.BackendResty:
		return http.NewRestyBackend(http.NewInstrumentedHTTPClient(config.MeterProvider, config.TracerProvider), config.Logger), nil
	case cub.BackendNATS:
		if config.NATSURL == "" {
			return nil, cub.ErrNATSURLRequired
		}

		backend, err := http.DialNATSBackend(config.NATSURL, config.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("creating NATS backend: %w", err)
		}

		return backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", cub.ErrUnsupportedBackend, config.Backend)
	}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *cub.Config) ([]http.Option, error) {
	switch config.BodyEncoding {
	case "", cub.BodyForm, cub.BodyJSON:
	default:
		return nil, fmt.Errorf("%w: %q", cub.ErrUnsupportedBodyEnc, config.BodyEncoding)
	}

	backend, err := createBackend(config)
	if err != nil {
		return nil, err
	}

	httpOpts := []http.Option{
		http.WithBackend(backend),
		http.WithBodyEncoding(config.BodyEncoding),
		http.WithMeterProvider(config.MeterProvider),
		http.WithTracerProvider(config.TracerProvider),
		http.WithInterceptors(config.Interceptors),
		http.WithRetryPolicy(retryPolicy(config)),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.Timeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.Timeout))
	}

	return httpOpts, nil
}

// retryPolicy applies the non-zero retry settings of config over the default
// policy. A negative RetryMax disables retries.
func retryPolicy(config *cub.Config) http.RetryPolicy {
	policy := http.DefaultRetryPolicy()

	switch {
	case config.RetryMax < 0:
		policy.MaxRetries = 0
	case config.RetryMax > 0:
		policy.MaxRetries = config.RetryMax
	}

	if config.RetryBaseDelay > 0 {
		policy.BaseDelay = config.RetryBaseDelay
	}

	if config.RetryMultiplier > 0 {
		policy.Multiplier = config.RetryMultiplier
	}

	if config.RetryMaxDelay > 0 {
		policy.MaxDelay = config.RetryMaxDelay
	}

	return policy
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.users = NewUsersClient(c.httpClient, c.decoder, c.tokenManager)
	c.organizations = NewResourceClient[*cub.Organization](c.httpClient, c.decoder, cub.KindOrganization, "/organizations")
	c.members = NewResourceClient[*cub.Member](c.httpClient, c.decoder, cub.KindMember, "/members")
	c.groups = NewResourceClient[*cub.Group](c.httpClient, c.decoder, cub.KindGroup, "/groups")
	c.groupMembers = NewResourceClient[*cub.GroupMember](c.httpClient, c.decoder, cub.KindGroupMember, "/groupmembers")
	c.leads = NewResourceClient[*cub.Lead](c.httpClient, c.decoder, cub.KindLead, "/leads")
	c.countries = NewResourceClient[*cub.Country](c.httpClient, c.decoder, cub.KindCountry, "/countries")
	c.states = NewResourceClient[*cub.State](c.httpClient, c.decoder, cub.KindState, "/states")
	c.messages = NewResourceClient[*cub.Message](c.httpClient, c.decoder, cub.KindMessage, "/messages")
	c.sites = NewResourceClient[*cub.Site](c.httpClient, c.decoder, cub.KindSite, "/sites")
	c.webhookSubscriptions = NewResourceClient[*cub.WebhookSubscription](
		c.httpClient, c.decoder, cub.KindWebhookSubscription, "/webhooksubscriptions")
}

// Users implements cub.Client.Users.
func (c *Client) Users() cub.UsersClient {
	return c.users
}

// Organizations implements cub.Client.Organizations.
func (c *Client) Organizations() cub.ResourceClient[*cub.Organization] {
	return c.organizations
}

// Members implements cub.Client.Members.
func (c *Client) Members() cub.ResourceClient[*cub.Member] {
	return c.members
}

// Groups implements cub.Client.Groups.
func (c *Client) Groups() cub.ResourceClient[*cub.Group] {
	return c.groups
}

// GroupMembers implements cub.Client.GroupMembers.
func (c *Client) GroupMembers() cub.ResourceClient[*cub.GroupMember] {
	return c.groupMembers
}

// Leads implements cub.Client.Leads.
func (c *Client) Leads() cub.ResourceClient[*cub.Lead] {
	return c.leads
}

// Countries implements cub.Client.Countries.
func (c *Client) Countries() cub.ResourceClient[*cub.Country] {
	return c.countries
}

// States implements cub.Client.States.
func (c *Client) States() cub.ResourceClient[*cub.State] {
	return c.states
}

// Messages implements cub.Client.Messages.
func (c *Client) Messages() cub.ResourceClient[*cub.Message] {
	return c.messages
}

// Sites implements cub.Client.Sites.
func (c *Client) Sites() cub.ResourceClient[*cub.Site] {
	return c.sites
}

// WebhookSubscriptions implements cub.Client.WebhookSubscriptions.
func (c *Client) WebhookSubscriptions() cub.ResourceClient[*cub.WebhookSubscription] {
	return c.webhookSubscriptions
}

// Decoder implements cub.Client.Decoder.
func (c *Client) Decoder() *cub.Decoder {
	return c.decoder
}

// Request implements cub.Client.Request. The body is decoded when it is JSON;
// otherwise Data stays nil.
func (c *Client) Request(ctx context.Context, method, path string, params any) (*cub.Response, error) {
	resp, err := c.httpClient.Do(ctx, &http.Request{Method: method, Path: path, Params: params})
	if err != nil {
		return nil, fmt.Errorf("requesting %s %s: %w", method, path, err)
	}

	result := &cub.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		Message:    resp.Message,
		Attempts:   resp.Attempts,
	}

	if len(resp.Body) > 0 {
		data, decodeErr := c.decoder.DecodeJSON(resp.Body)
		if decodeErr != nil {
			c.logger.Debug("response body is not JSON", map[string]interface{}{
				"path":  path,
				"error": decodeErr.Error(),
			})
		} else {
			result.Data = data
		}
	}

	return result, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.SessionManager {
	return c.tokenManager
}

// Close implements cub.Client.Close.
func (c *Client) Close() error {
	err := c.httpClient.Close()
	if err != nil {
		return fmt.Errorf("closing backend: %w", err)
	}

	return nil
}
