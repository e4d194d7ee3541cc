package cub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Call describes a logical API call as seen by interceptors. Interceptors run
// once per call, not once per attempt.
type Call struct {
	Method   string
	Path     string
	Params   any
	Headers  http.Header
	Metadata map[string]interface{}
}

// CallResult describes the outcome of a call.
type CallResult struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Attempts   int
	Error      error
}

// RequestInterceptor is called before a call is sent.
type RequestInterceptor func(ctx context.Context, call *Call) error

// ResponseInterceptor is called after a call completes, successfully or not.
type ResponseInterceptor func(ctx context.Context, call *Call, result *CallResult) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, call *Call) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, call)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, call *Call, result *CallResult) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, call, result)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Common Interceptors

// LoggingInterceptor logs calls.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, call *Call) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": call.Method,
			"path":   call.Path,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs call results.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, call *Call, result *CallResult) error {
		fields := map[string]interface{}{
			"method":      call.Method,
			"path":        call.Path,
			"status_code": result.StatusCode,
			"attempts":    result.Attempts,
		}

		if result.Error != nil {
			fields["error"] = result.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// RateLimitInterceptor limits calls to requestsPerSecond, waiting for a token
// or until ctx is done.
func RateLimitInterceptor(requestsPerSecond int) RequestInterceptor {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), max(requestsPerSecond, 1))

	return func(ctx context.Context, call *Call) error {
		err := limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to calls.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, call *Call) error {
		if call.Headers == nil {
			call.Headers = make(http.Header)
		}

		for key, value := range headers {
			call.Headers.Set(key, value)
		}

		return nil
	}
}

// Metrics holds per-endpoint call statistics.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalAttempts   int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects API metrics.
type MetricsCollector struct {
	mu       sync.Mutex
	metrics  map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange sets a callback for when metrics change.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot of the metrics for an endpoint.
func (m *MetricsCollector) GetMetrics(endpoint string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if metrics, ok := m.metrics[endpoint]; ok {
		return *metrics, true
	}

	return Metrics{}, false
}

const startTimeKey = "start_time"

// MetricsRequestInterceptor records the call start time.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, call *Call) error {
		if call.Metadata == nil {
			call.Metadata = make(map[string]interface{})
		}

		call.Metadata[startTimeKey] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records call metrics keyed by "METHOD path".
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, call *Call, result *CallResult) error {
		endpoint := fmt.Sprintf("%s %s", call.Method, call.Path)

		collector.mu.Lock()

		metrics, ok := collector.metrics[endpoint]
		if !ok {
			metrics = &Metrics{}
			collector.metrics[endpoint] = metrics
		}

		metrics.TotalRequests++
		metrics.TotalAttempts += int64(result.Attempts)
		metrics.LastRequestTime = time.Now()

		if startTime, ok := call.Metadata[startTimeKey].(time.Time); ok {
			metrics.TotalLatency += time.Since(startTime)
			metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
		}

		if result.Error != nil || result.StatusCode >= http.StatusBadRequest {
			metrics.TotalErrors++
		}

		snapshot, onChange := *metrics, collector.onChange

		collector.mu.Unlock()

		if onChange != nil {
			onChange(endpoint, snapshot)
		}

		return nil
	}
}
