package cub

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Backend names accepted by Config.Backend.
const (
	BackendHTTP  = "http"
	BackendResty = "resty"
	BackendNATS  = "nats"
)

// Body encodings accepted by Config.BodyEncoding.
const (
	BodyForm = "form"
	BodyJSON = "json"
)

// ResourceClient is the set of operations every resource kind supports.
type ResourceClient[T Model] interface {
	// List returns the objects matching filters, e.g. P("count", 2).
	List(ctx context.Context, filters Params) ([]T, error)
	// Get fetches one object by identifier. params may carry expand options.
	Get(ctx context.Context, id string, params Params) (T, error)
	// Create posts fields and returns the created object.
	Create(ctx context.Context, fields Params) (T, error)
	// Reload refetches obj and replaces its state in place.
	Reload(ctx context.Context, obj T, params Params) error
}

// UsersClient adds session operations to the user resource.
type UsersClient interface {
	ResourceClient[*User]

	// Login authenticates with username and password. The returned session
	// token is used for subsequent calls made through the same client.
	Login(ctx context.Context, username, password string) (*User, error)
	// Current returns the user owning token; an empty token means the
	// session token obtained by Login.
	Current(ctx context.Context, token string) (*User, error)
	// Reissue exchanges the session token for a fresh one.
	Reissue(ctx context.Context) error
	// Logout forgets the session token and returns to API key auth.
	Logout(ctx context.Context)
}

// Client is the Cub API client.
type Client interface {
	Users() UsersClient
	Organizations() ResourceClient[*Organization]
	Members() ResourceClient[*Member]
	Groups() ResourceClient[*Group]
	GroupMembers() ResourceClient[*GroupMember]
	Leads() ResourceClient[*Lead]
	Countries() ResourceClient[*Country]
	States() ResourceClient[*State]
	Messages() ResourceClient[*Message]
	Sites() ResourceClient[*Site]
	WebhookSubscriptions() ResourceClient[*WebhookSubscription]

	// Request performs a raw call. Error statuses are returned as a Response,
	// not an error; only connection failures are errors.
	Request(ctx context.Context, method, path string, params any) (*Response, error)

	// Decoder returns the decoder used for responses.
	Decoder() *Decoder

	// Close releases backend resources such as a NATS connection.
	Close() error
}

// Response is the outcome of a call that reached the service.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Message is the error description extracted from an error body.
	Message string
	// Attempts counts the attempts the call took, including the successful one.
	Attempts int
	// Data is the decoded body, or nil when it was empty or not JSON.
	Data any
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a cub.Client.
//
// # Authentication
//
// Every request carries "Authorization: Bearer <credential>". The credential
// is Token when set, otherwise APIKey. A successful Users().Login replaces it
// with the session token until Logout.
//
// # Timeouts and retries
//
// Timeout bounds a single attempt. Attempts that fail to reach the service
// (DNS, connect, attempt timeout) are retried RetryMax times, waiting
// RetryBaseDelay × RetryMultiplier^i before retry i. HTTP error statuses are
// never retried. The caller's context bounds the call as a whole.
type Config struct {
	// APIURL: base URL including the version prefix. cubclient.New trims a
	// trailing slash and adds "https://" if no scheme is present.
	APIURL string
	// APIKey: secret key of the organization.
	APIKey string
	// Token: user session token, used instead of APIKey when set.
	Token string

	// Timeout: per-attempt timeout. Zero means the default.
	Timeout time.Duration
	// RetryMax: retries after the first failed attempt. Zero means the
	// default; a negative value disables retries.
	RetryMax int
	// RetryBaseDelay: wait before the first retry.
	RetryBaseDelay time.Duration
	// RetryMultiplier: growth factor of consecutive waits.
	RetryMultiplier float64
	// RetryMaxDelay: upper bound of a single wait; zero means unbounded.
	RetryMaxDelay time.Duration

	// Backend: one of BackendHTTP (default), BackendResty or BackendNATS.
	Backend string
	// NATSURL: server URL for BackendNATS.
	NATSURL string
	// NATSSubject: request subject for BackendNATS.
	NATSSubject string
	// BodyEncoding: BodyForm (default) or BodyJSON for write requests.
	BodyEncoding string

	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the transport.
	Logger Logger

	// MeterProvider and TracerProvider default to the otel globals.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider

	// Interceptors run once per call, around all of its attempts.
	Interceptors *InterceptorChain

	// Registry resolves payload kinds; nil means DefaultRegistry.
	Registry *Registry
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// NewSlogLogger adapts a *slog.Logger to Logger. Fields become attributes.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return &slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *slogLogger) Info(msg string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Error(msg string, fields map[string]interface{}) {
	l.log(slog.LevelError, msg, fields)
}

func (l *slogLogger) log(level slog.Level, msg string, fields map[string]interface{}) {
	attrs := make([]slog.Attr, 0, len(fields))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}

	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
