package http_test

import (
	"context"
	"testing"

	cubhttp "github.com/ivelum/cub-client/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, name)

			var total int64
			for _, point := range sum.DataPoints {
				total += point.Value
			}

			return total
		}
	}

	return 0
}

func histogramCount(rm metricdata.ResourceMetrics, name string) uint64 {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if hist, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				var count uint64
				for _, point := range hist.DataPoints {
					count += point.Count
				}

				return count
			}
		}
	}

	return 0
}

func TestClient_Telemetry(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	client := cubhttp.NewClient("https://id.example.com/v1", nil,
		cubhttp.WithBackend(failingThen(2)),
		cubhttp.WithMeterProvider(meterProvider),
		cubhttp.WithTracerProvider(tracerProvider),
		fastRetries(3))

	_, err := client.Get(context.Background(), "/sites", nil)
	require.NoError(t, err)

	failing := cubhttp.NewClient("https://id.example.com/v1", nil,
		cubhttp.WithBackend(failingThen(10)),
		cubhttp.WithMeterProvider(meterProvider),
		cubhttp.WithTracerProvider(tracerProvider),
		fastRetries(1))

	_, err = failing.Get(context.Background(), "/sites", nil)
	require.Error(t, err)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(5), sumOf(t, rm, cubhttp.MetricAttempts))
	assert.Equal(t, int64(3), sumOf(t, rm, cubhttp.MetricRetries))
	assert.Equal(t, int64(1), sumOf(t, rm, cubhttp.MetricConnectionFailures))
	assert.Equal(t, uint64(2), histogramCount(rm, cubhttp.MetricDuration))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	for _, span := range spans {
		assert.Equal(t, "cub GET", span.Name())
	}

	var attempts int

	for _, event := range spans[0].Events() {
		if event.Name == "attempt" {
			attempts++
		}
	}

	assert.Equal(t, 3, attempts)
}
