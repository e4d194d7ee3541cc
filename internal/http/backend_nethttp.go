package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// NetHTTPBackend performs attempts with net/http through a single-attempt
// retryablehttp client. Retrying is left to Client.
type NetHTTPBackend struct {
	client *retryablehttp.Client
}

// NewInstrumentedHTTPClient returns a pooled HTTP client whose transport
// records otel spans and metrics. Nil providers fall back to the otel globals.
func NewInstrumentedHTTPClient(meterProvider metric.MeterProvider, tracerProvider trace.TracerProvider) *http.Client {
	client := cleanhttp.DefaultPooledClient()

	var opts []otelhttp.Option
	if meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tracerProvider))
	}

	client.Transport = otelhttp.NewTransport(client.Transport, opts...)

	return client
}

// NewNetHTTPBackend wraps httpClient. A nil client gets a pooled one.
func NewNetHTTPBackend(httpClient *http.Client) *NetHTTPBackend {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.Logger = nil
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &NetHTTPBackend{client: client}
}

// Name implements Backend.
func (b *NetHTTPBackend) Name() string {
	return "http"
}

// Send implements Backend.
func (b *NetHTTPBackend) Send(ctx context.Context, req *BackendRequest) (*BackendResponse, error) {
	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = req.Header.Clone()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ConnectionFailure(fmt.Errorf("reading response body: %w", err))
	}

	return &BackendResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Close releases idle connections.
func (b *NetHTTPBackend) Close() error {
	b.client.HTTPClient.CloseIdleConnections()

	return nil
}
