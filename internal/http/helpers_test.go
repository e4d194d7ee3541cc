package http_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	cubhttp "github.com/ivelum/cub-client/internal/http"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

func (m *MockTokenManager) RefreshToken(ctx context.Context) error {
	return nil
}

func (m *MockTokenManager) SetToken(token string, expiresAt time.Time) {
	m.token = token
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []logEntry
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, logEntry{level: level, msg: msg, fields: fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *MockLogger) entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]logEntry(nil), l.logs...)
}

func (l *MockLogger) messages(level string) []string {
	var msgs []string

	for _, entry := range l.entries() {
		if entry.level == level {
			msgs = append(msgs, entry.msg)
		}
	}

	return msgs
}

// fakeBackend answers attempts from a script and records what it was sent.
type fakeBackend struct {
	mu       sync.Mutex
	requests []*cubhttp.BackendRequest
	respond  func(attempt int, req *cubhttp.BackendRequest) (*cubhttp.BackendResponse, error)
	closed   bool
}

// failingThen fails the first n attempts with a connection failure and then
// answers 200.
func failingThen(n int) *fakeBackend {
	return &fakeBackend{
		respond: func(attempt int, _ *cubhttp.BackendRequest) (*cubhttp.BackendResponse, error) {
			if attempt <= n {
				return nil, cubhttp.ConnectionFailure(errRefused)
			}

			return &cubhttp.BackendResponse{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(`{}`)}, nil
		},
	}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Send(_ context.Context, req *cubhttp.BackendRequest) (*cubhttp.BackendResponse, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	attempt := len(b.requests)
	b.mu.Unlock()

	return b.respond(attempt, req)
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true

	return nil
}

func (b *fakeBackend) sent() []*cubhttp.BackendRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]*cubhttp.BackendRequest(nil), b.requests...)
}

// unreachableURL returns the URL of a port nothing listens on.
func unreachableURL(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	return "http://" + addr
}

func fastRetries(maxRetries int) cubhttp.Option {
	return cubhttp.WithRetryPolicy(cubhttp.RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		Multiplier: 2,
		MaxDelay:   10 * time.Millisecond,
	})
}
