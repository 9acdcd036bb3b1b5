package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/message"
)

// meterName is the instrumentation scope name for requeue metrics.
const meterName = "github.com/groundwire/requeue"

// Metrics returns middleware that records per-attempt processing metrics
// using the global OTel MeterProvider. If no MeterProvider is configured,
// noop instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - requeue.message.duration (Float64Histogram): attempt duration in
//     seconds, with attributes: handler, status ("ok" or "error")
//   - requeue.message.attempts (Int64Counter): total processing attempts,
//     with attributes: handler, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"requeue.message.duration",
		metric.WithDescription("Duration of message processing attempts in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	attempts, aErr := meter.Int64Counter(
		"requeue.message.attempts",
		metric.WithDescription("Total number of message processing attempts"),
		metric.WithUnit("{attempt}"),
	)
	_ = aErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, m *message.Message, next Handler) handler.Result {
		start := time.Now()
		res := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if !res.Success {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("handler", m.Handler),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		attempts.Add(ctx, 1, attrs)

		return res
	}
}
