package http

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ivelum/cub-client/internal/http"

// Metric names.
const (
	MetricAttempts           = "cub.client.attempts_total"
	MetricRetries            = "cub.client.retries_total"
	MetricConnectionFailures = "cub.client.connection_failures_total"
	MetricDuration           = "cub.client.duration_ms"
)

// telemetry records per-call spans and metrics. Instruments that fail to
// register degrade to no-ops rather than failing requests.
type telemetry struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(meterProvider metric.MeterProvider, tracerProvider trace.TracerProvider) *telemetry {
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}

	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}

	meter := meterProvider.Meter(instrumentationName)
	fallback := metricnoop.NewMeterProvider().Meter(instrumentationName)

	t := &telemetry{tracer: tracerProvider.Tracer(instrumentationName)}

	var err error

	t.attempts, err = meter.Int64Counter(MetricAttempts,
		metric.WithDescription("Attempts issued to the Cub API, including retries"),
		metric.WithUnit("{count}"))
	if err != nil {
		t.attempts, _ = fallback.Int64Counter(MetricAttempts)
	}

	t.retries, err = meter.Int64Counter(MetricRetries,
		metric.WithDescription("Retries performed after connection failures"),
		metric.WithUnit("{count}"))
	if err != nil {
		t.retries, _ = fallback.Int64Counter(MetricRetries)
	}

	t.failures, err = meter.Int64Counter(MetricConnectionFailures,
		metric.WithDescription("Calls that failed without reaching the Cub API"),
		metric.WithUnit("{count}"))
	if err != nil {
		t.failures, _ = fallback.Int64Counter(MetricConnectionFailures)
	}

	t.duration, err = meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of calls including backoff"),
		metric.WithUnit("ms"))
	if err != nil {
		t.duration, _ = fallback.Float64Histogram(MetricDuration)
	}

	return t
}

func (t *telemetry) start(ctx context.Context, method, path, backend string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cub "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("cub.backend", backend),
		))
}

func (t *telemetry) attempt(ctx context.Context, span trace.Span, attempt int, attrs []attribute.KeyValue) {
	t.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
	span.AddEvent("attempt", trace.WithAttributes(attribute.Int("cub.attempt", attempt)))
}

func (t *telemetry) retry(ctx context.Context, span trace.Span, delay time.Duration, err error, attrs []attribute.KeyValue) {
	t.retries.Add(ctx, 1, metric.WithAttributes(attrs...))
	span.AddEvent("retry", trace.WithAttributes(
		attribute.Int64("cub.backoff_ms", delay.Milliseconds()),
		attribute.String("error", err.Error()),
	))
}

func (t *telemetry) finish(ctx context.Context, span trace.Span, started time.Time, attempts, status int, err error, attrs []attribute.KeyValue) {
	elapsed := float64(time.Since(started)) / float64(time.Millisecond)

	span.SetAttributes(attribute.Int("cub.attempts", attempts))

	if err != nil {
		t.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		attrs = append(attrs, attribute.String("cub.outcome", "connection_error"))
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", status))

		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}

		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	t.duration.Record(ctx, elapsed, metric.WithAttributes(attrs...))
	span.End()
}
