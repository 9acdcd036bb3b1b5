package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/message"
)

// tracerName is the instrumentation scope name for requeue tracing.
const tracerName = "github.com/groundwire/requeue"

// Tracing returns middleware that wraps each processing attempt in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through
// with zero overhead.
//
// Span attributes include: requeue.message.id, requeue.handler,
// requeue.retry_count. On failure, the span status is set to codes.Error
// with the failure reason.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, m *message.Message, next Handler) handler.Result {
		ctx, span := tracer.Start(ctx, "requeue.message.process",
			trace.WithAttributes(
				attribute.String("requeue.message.id", m.ID.String()),
				attribute.String("requeue.handler", m.Handler),
				attribute.Int("requeue.retry_count", m.RetryCount),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		res := next(ctx)
		if res.Success {
			span.SetStatus(codes.Ok, "")
		} else {
			span.RecordError(errors.New(res.Err))
			span.SetAttributes(attribute.Bool("requeue.retryable", res.Retry))
			span.SetStatus(codes.Error, res.Err)
		}

		return res
	}
}
