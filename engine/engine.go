package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/backoff"
	"github.com/groundwire/requeue/dlq"
	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/hook"
	"github.com/groundwire/requeue/message"
	mw "github.com/groundwire/requeue/middleware"
)

const instrumentationScope = "github.com/groundwire/requeue"

// Engine orchestrates message processing: it claims messages from the
// store, runs their handlers through the middleware chain, and applies
// the retry and dead-letter policy to the outcome.
type Engine struct {
	store      message.Store
	registry   *handler.Registry
	hooks      *hook.Registry
	dlqService *dlq.Service
	bo         backoff.Strategy
	cfg        requeue.Config
	chain      mw.Middleware
	userMws    []mw.Middleware
	userHooks  []hook.Extension
	logger     *slog.Logger

	running atomic.Bool

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine's retry policy. Unless WithBackoff is also
// given, the backoff strategy is derived from it.
func WithConfig(cfg requeue.Config) Option {
	return func(eng *Engine) {
		eng.cfg = cfg
	}
}

// WithBackoff sets the retry backoff strategy for the engine.
// If not set, an exponential strategy with jitter is derived from the
// engine's Config.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithMiddleware appends middleware to the engine's chain, inside the
// built-in recover/tracing/metrics/logging/timeout stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.userMws = append(eng.userMws, m)
	}
}

// WithHook registers a lifecycle hook with the engine.
func WithHook(h hook.Extension) Option {
	return func(eng *Engine) {
		eng.userHooks = append(eng.userHooks, h)
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = l
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// New creates an Engine over the given store.
func New(store message.Store, opts ...Option) *Engine {
	eng := &Engine{
		store:    store,
		registry: handler.NewRegistry(),
		cfg:      requeue.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.hooks = hook.NewRegistry(eng.logger)
	for _, h := range eng.userHooks {
		eng.hooks.Register(h)
	}

	// Derive the backoff strategy from the config if none was provided.
	if eng.bo == nil {
		eng.bo = backoff.NewExponential(
			eng.cfg.InitialDelay,
			eng.cfg.MaxDelay,
			eng.cfg.Multiplier,
			eng.cfg.JitterFactor,
		)
	}

	eng.dlqService = dlq.NewService(store, dlq.WithLogger(eng.logger))

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationScope))
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationScope))
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	allMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.Timeout(eng.logger),
	}
	allMws = append(allMws, eng.userMws...)
	eng.chain = mw.Chain(allMws...)

	eng.running.Store(true)
	return eng
}

// Register registers a typed handler definition with the engine.
func Register[T any](eng *Engine, def *handler.Definition[T]) {
	handler.Register(eng.registry, def)
}

// Enqueue marshals a typed payload and enqueues a message for the named
// handler.
func Enqueue[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...message.Option) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for handler %q: %w", name, err)
	}
	return eng.EnqueueRaw(ctx, name, data, opts...)
}

// EnqueueRaw enqueues a message with a pre-serialized payload. Retry
// budget and timeout default from the handler's registered options,
// then from the engine config.
func (eng *Engine) EnqueueRaw(ctx context.Context, name string, payload []byte, opts ...message.Option) (*message.Message, error) {
	if eng.store == nil {
		return nil, requeue.ErrNoStore
	}

	// Start from an "unset" retry budget so a handler default or the
	// engine config can fill it; an explicit WithMaxRetries wins.
	mOpts := message.Options{MaxRetries: -1}
	for _, opt := range opts {
		opt(&mOpts)
	}

	defaults, registered := eng.registry.Defaults(name)
	if mOpts.MaxRetries < 0 {
		if registered && defaults.MaxRetries >= 0 {
			mOpts.MaxRetries = defaults.MaxRetries
		} else {
			mOpts.MaxRetries = eng.cfg.MaxRetries
		}
	}
	if mOpts.Timeout == 0 && registered {
		mOpts.Timeout = defaults.Timeout
	}

	m := message.New(name, payload, mOpts)
	if err := eng.store.Enqueue(ctx, m); err != nil {
		return nil, err
	}

	eng.hooks.EmitEnqueued(ctx, m)
	return m, nil
}

// Stop marks the engine as stopped and notifies shutdown hooks. A
// stopped engine claims no further messages; in-flight ProcessBatch
// calls finish the message they are on and return early.
func (eng *Engine) Stop(ctx context.Context) {
	if eng.running.CompareAndSwap(true, false) {
		eng.hooks.EmitShutdown(ctx)
	}
}

// Running reports whether the engine is accepting work.
func (eng *Engine) Running() bool { return eng.running.Load() }

// Registry returns the handler registry.
func (eng *Engine) Registry() *handler.Registry { return eng.registry }

// Hooks returns the hook registry.
func (eng *Engine) Hooks() *hook.Registry { return eng.hooks }

// DLQ returns the dead letter service for inspection and requeue.
func (eng *Engine) DLQ() *dlq.Service { return eng.dlqService }

// Store returns the underlying message store.
func (eng *Engine) Store() message.Store { return eng.store }
