package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ivelum/cub-client/internal/auth"
	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Client sends requests to the Cub API. It is safe for concurrent use: every
// call keeps its retry state to itself.
type Client struct {
	baseURL        string
	baseURLErr     error
	tokenManager   auth.TokenManager
	backend        Backend
	logger         cub.Logger
	debug          bool
	userAgent      string
	timeout        time.Duration
	retry          RetryPolicy
	bodyEncoding   string
	interceptors   *cub.InterceptorChain
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	telemetry      *telemetry
	newRequestID   func() string
}

// Request is a logical call. Params are encoded in bracket notation into the
// query string for GET, HEAD and DELETE and into the body otherwise.
type Request struct {
	Method  string
	Path    string
	Params  any
	Headers map[string]string
}

// Response is what the service answered, including error statuses.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Message is the error description parsed from a non-2xx body.
	Message   string
	Attempts  int
	RequestID string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger cub.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithRetryConfig sets the retry count and delays, keeping the multiplier.
func WithRetryConfig(maxRetries int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.MaxRetries = maxRetries
		c.retry.BaseDelay = baseDelay
		c.retry.MaxDelay = maxDelay
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds every single attempt. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithBackend sets the backend performing attempts.
func WithBackend(backend Backend) Option {
	return func(c *Client) {
		if backend != nil {
			c.backend = backend
		}
	}
}

// WithBodyEncoding selects cub.BodyForm or cub.BodyJSON for write requests.
func WithBodyEncoding(encoding string) Option {
	return func(c *Client) {
		if encoding != "" {
			c.bodyEncoding = encoding
		}
	}
}

// WithInterceptors installs interceptors that run once per call.
func WithInterceptors(chain *cub.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithMeterProvider sets the meter provider; the otel global is the default.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *Client) {
		c.meterProvider = provider
	}
}

// WithTracerProvider sets the tracer provider; the otel global is the default.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = provider
	}
}

// WithRequestIDGenerator replaces the X-Request-Id generator.
func WithRequestIDGenerator(generate func() string) Option {
	return func(c *Client) {
		if generate != nil {
			c.newRequestID = generate
		}
	}
}

// NewClient creates a client for baseURL. A nil tokenManager sends requests
// without the Authorization header.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		logger:       cub.NoopLogger{},
		userAgent:    constants.DefaultUserAgent,
		timeout:      constants.DefaultHTTPTimeout,
		retry:        DefaultRetryPolicy(),
		bodyEncoding: cub.BodyForm,
		newRequestID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.baseURLErr = validateBaseURL(client.baseURL)
	client.telemetry = newTelemetry(client.meterProvider, client.tracerProvider)

	if client.backend == nil {
		client.backend = NewNetHTTPBackend(NewInstrumentedHTTPClient(client.meterProvider, client.tracerProvider))
	}

	return client
}

func validateBaseURL(baseURL string) error {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", cub.ErrInvalidAPIURL, err)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", cub.ErrInvalidAPIURL, baseURL)
	}

	return nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Backend returns the backend performing attempts.
func (c *Client) Backend() Backend {
	return c.backend
}

// RetryPolicy returns the retry policy.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.retry
}

// Close releases the backend.
func (c *Client) Close() error {
	return c.backend.Close()
}

// Do performs a call, retrying connection failures with exponential backoff.
//
// It returns a Response for every answer of the service, error statuses
// included. It fails with *cub.ConnectionError when retries are exhausted or
// ctx ends during an attempt or a backoff wait, and with a configuration
// error before any attempt is made.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.baseURLErr != nil {
		return nil, c.baseURLErr
	}

	call := &cub.Call{
		Method:  strings.ToUpper(req.Method),
		Path:    req.Path,
		Params:  req.Params,
		Headers: make(http.Header, len(req.Headers)),
	}

	for key, value := range req.Headers {
		call.Headers.Set(key, value)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, call)
	if err != nil {
		return nil, err
	}

	breq, err := c.buildRequest(ctx, call)
	if err != nil {
		return nil, err
	}

	resp, err := c.execute(ctx, call, breq)

	result := &cub.CallResult{Error: err}
	if resp != nil {
		result.StatusCode = resp.StatusCode
		result.Headers = resp.Header
		result.Body = resp.Body
		result.Attempts = resp.Attempts
	} else {
		var connErr *cub.ConnectionError
		if errors.As(err, &connErr) {
			result.Attempts = connErr.Attempts
		}
	}

	interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, call, result)
	if err == nil && interceptErr != nil {
		return resp, interceptErr
	}

	return resp, err
}

// buildRequest encodes params and sets the headers shared by every attempt,
// including a request ID that stays the same across retries.
func (c *Client) buildRequest(ctx context.Context, call *cub.Call) (*BackendRequest, error) {
	var params cub.FlatParams

	if call.Params != nil {
		encoded, err := cub.EncodeStrict(call.Params)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s params: %w", call.Method, call.Path, err)
		}

		params = encoded
	}

	target := c.baseURL + call.Path
	header := call.Headers.Clone()

	var body []byte

	if isReadMethod(call.Method) {
		if len(params) > 0 {
			separator := "?"
			if strings.Contains(target, "?") {
				separator = "&"
			}

			target += separator + params.Encode()
		}
	} else {
		switch c.bodyEncoding {
		case cub.BodyJSON:
			body = params.JSON()
			header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
		case cub.BodyForm:
			body = []byte(params.Encode())
			header.Set(constants.HeaderContentType, constants.ContentTypeForm)
		default:
			return nil, fmt.Errorf("%w: %q", cub.ErrUnsupportedBodyEnc, c.bodyEncoding)
		}
	}

	header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	header.Set(constants.HeaderUserAgent, c.userAgent)

	if header.Get(constants.HeaderRequestID) == "" {
		header.Set(constants.HeaderRequestID, c.newRequestID())
	}

	if c.tokenManager != nil && header.Get(constants.HeaderAuthorization) == "" {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting credentials: %w", err)
		}

		header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	return &BackendRequest{Method: call.Method, URL: target, Header: header, Body: body}, nil
}

// execute runs the retry state machine of one call:
//
//	Idle -> Attempting -> (Backoff -> Attempting)* -> Succeeded | Failed
//
// Any answer of the service is Succeeded. A connection failure moves to
// Backoff while retries remain and to Failed otherwise. The end of ctx moves
// to Failed from any state.
func (c *Client) execute(ctx context.Context, call *cub.Call, breq *BackendRequest) (*Response, error) {
	requestID := breq.Header.Get(constants.HeaderRequestID)
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", call.Method),
		attribute.String("cub.backend", c.backend.Name()),
	}

	ctx, span := c.telemetry.start(ctx, call.Method, call.Path, c.backend.Name())
	span.SetAttributes(attribute.String("cub.request_id", requestID))

	started := time.Now()

	for attempt := 1; ; attempt++ {
		c.telemetry.attempt(ctx, span, attempt, attrs)

		if c.debug {
			c.logger.Debug("HTTP Request", map[string]interface{}{
				"method":     call.Method,
				"url":        breq.URL,
				"attempt":    attempt,
				"request_id": requestID,
			})
		}

		bresp, err := c.attempt(ctx, breq)
		if err == nil {
			resp := c.newResponse(bresp, attempt, requestID)

			if c.debug {
				c.logger.Debug("HTTP Response", map[string]interface{}{
					"method":      call.Method,
					"url":         breq.URL,
					"status_code": resp.StatusCode,
					"attempts":    attempt,
					"duration":    time.Since(started).String(),
					"request_id":  requestID,
				})
			}

			c.telemetry.finish(ctx, span, started, attempt, resp.StatusCode, nil, attrs)

			return resp, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.fail(ctx, span, started, call, breq, attempt, ctxErr, attrs)
		}

		if !errors.Is(err, ErrConnectionFailure) || attempt > c.retry.MaxRetries {
			return nil, c.fail(ctx, span, started, call, breq, attempt, err, attrs)
		}

		delay := c.retry.Backoff(attempt - 1)

		c.logger.Warn("Retrying request", map[string]interface{}{
			"method":     call.Method,
			"url":        breq.URL,
			"attempt":    attempt,
			"backoff":    delay.String(),
			"error":      err.Error(),
			"request_id": requestID,
		})
		c.telemetry.retry(ctx, span, delay, err, attrs)

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return nil, c.fail(ctx, span, started, call, breq, attempt, sleepErr, attrs)
		}
	}
}

// attempt performs a single attempt bounded by the per-attempt timeout. An
// expired attempt timeout is a connection failure; the caller's is not.
func (c *Client) attempt(ctx context.Context, breq *BackendRequest) (*BackendResponse, error) {
	attemptCtx := ctx

	if c.timeout > 0 {
		var cancel context.CancelFunc

		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	bresp, err := c.backend.Send(attemptCtx, breq)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrConnectionFailure) {
			return nil, ConnectionFailure(err)
		}

		return nil, err
	}

	return bresp, nil
}

func (c *Client) fail(
	ctx context.Context,
	span trace.Span,
	started time.Time,
	call *cub.Call,
	breq *BackendRequest,
	attempts int,
	err error,
	attrs []attribute.KeyValue,
) error {
	connErr := &cub.ConnectionError{
		Method:   call.Method,
		URL:      breq.URL,
		Attempts: attempts,
		Err:      err,
	}

	c.logger.Error("Request failed", map[string]interface{}{
		"method":     call.Method,
		"url":        breq.URL,
		"attempts":   attempts,
		"error":      err.Error(),
		"request_id": breq.Header.Get(constants.HeaderRequestID),
	})

	// The span context may already be cancelled; metrics still need recording.
	c.telemetry.finish(context.WithoutCancel(ctx), span, started, attempts, 0, connErr, attrs)

	return connErr
}

func (c *Client) newResponse(bresp *BackendResponse, attempts int, requestID string) *Response {
	resp := &Response{
		StatusCode: bresp.StatusCode,
		Header:     bresp.Header,
		Body:       bresp.Body,
		Attempts:   attempts,
		RequestID:  requestID,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		resp.Message, _ = cub.ParseErrorMessage(bytes.TrimSpace(bresp.Body))
	}

	return resp
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}

	return false
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Params: params})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, params any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Params: params})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, params any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Params: params})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, params any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Params: params})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
