package cub_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivelum/cub-client/pkg/cub"
)

type recordingLogger struct {
	cub.NoopLogger

	debug []string
	errs  []string
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.debug = append(l.debug, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errs = append(l.errs, msg) }

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := cub.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, call *cub.Call) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, call *cub.Call) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(ctx, &cub.Call{Method: "GET", Path: "/countries"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_ResponseInterceptors(t *testing.T) {
	t.Parallel()

	chain := cub.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddResponseInterceptor(func(ctx context.Context, call *cub.Call, result *cub.CallResult) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddResponseInterceptor(func(ctx context.Context, call *cub.Call, result *cub.CallResult) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	err := chain.ExecuteResponseInterceptors(ctx, &cub.Call{Method: "GET", Path: "/countries"},
		&cub.CallResult{StatusCode: http.StatusOK})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := cub.NewInterceptorChain()
	boom := errors.New("boom")
	called := false

	chain.AddRequestInterceptor(func(ctx context.Context, call *cub.Call) error { return boom })
	chain.AddRequestInterceptor(func(ctx context.Context, call *cub.Call) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &cub.Call{})
	require.ErrorIs(t, err, boom)
	assert.False(t, called)

	var nilChain *cub.InterceptorChain

	require.NoError(t, nilChain.ExecuteRequestInterceptors(context.Background(), &cub.Call{}))
	require.NoError(t, nilChain.ExecuteResponseInterceptors(context.Background(), &cub.Call{}, &cub.CallResult{}))
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	headers := map[string]string{
		"X-Custom-Header": "custom-value",
		"X-Request-Id":    "123456",
	}

	call := &cub.Call{Method: "GET", Path: "/user"}

	err := cub.HeaderInterceptor(headers)(context.Background(), call)
	require.NoError(t, err)

	assert.Equal(t, "custom-value", call.Headers.Get("X-Custom-Header"))
	assert.Equal(t, "123456", call.Headers.Get("X-Request-Id"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	call := &cub.Call{Method: "POST", Path: "/user/login"}

	require.NoError(t, cub.LoggingInterceptor(logger)(context.Background(), call))
	require.NoError(t, cub.LoggingResponseInterceptor(logger)(context.Background(), call,
		&cub.CallResult{StatusCode: http.StatusOK, Attempts: 1}))
	require.NoError(t, cub.LoggingResponseInterceptor(logger)(context.Background(), call,
		&cub.CallResult{Attempts: 4, Error: cub.ErrConnection}))

	assert.Equal(t, []string{"API Request", "API Response"}, logger.debug)
	assert.Equal(t, []string{"API Response Error"}, logger.errs)
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := cub.RateLimitInterceptor(10)
	ctx := context.Background()

	start := time.Now()

	for range 12 {
		require.NoError(t, interceptor(ctx, &cub.Call{}))
	}

	// The burst covers ten calls; the next two wait about 100ms each.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	limited := cub.RateLimitInterceptor(1)
	require.NoError(t, limited(ctx, &cub.Call{}))
	require.Error(t, limited(cancelled, &cub.Call{}))
}

func TestMetricsInterceptors(t *testing.T) {
	t.Parallel()

	collector := cub.NewMetricsCollector()

	var changes int

	collector.SetOnChange(func(endpoint string, metrics cub.Metrics) {
		assert.Equal(t, "GET /countries", endpoint)

		changes++
	})

	request := cub.MetricsRequestInterceptor(collector)
	response := cub.MetricsResponseInterceptor(collector)
	ctx := context.Background()

	for _, result := range []*cub.CallResult{
		{StatusCode: http.StatusOK, Attempts: 1},
		{StatusCode: http.StatusNotFound, Attempts: 1},
		{Attempts: 4, Error: cub.ErrConnection},
	} {
		call := &cub.Call{Method: "GET", Path: "/countries"}
		require.NoError(t, request(ctx, call))
		require.NoError(t, response(ctx, call, result))
	}

	metrics, ok := collector.GetMetrics("GET /countries")
	require.True(t, ok)
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Equal(t, int64(2), metrics.TotalErrors)
	assert.Equal(t, int64(6), metrics.TotalAttempts)
	assert.Equal(t, 3, changes)
	assert.False(t, metrics.LastRequestTime.IsZero())

	_, ok = collector.GetMetrics("GET /sites")
	assert.False(t, ok)
}
