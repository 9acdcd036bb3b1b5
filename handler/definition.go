package handler

import (
	"context"
	"time"
)

// Definition is a typed handler definition. T is the payload type (must
// be JSON-serializable).
type Definition[T any] struct {
	// Name is the unique identifier for this handler.
	Name string

	// Handle is the function that processes the message payload.
	Handle func(ctx context.Context, payload T) Result

	// Opts carries per-handler defaults applied at enqueue time when
	// the caller does not override them.
	Opts Options
}

// Options carries per-handler defaults for messages enqueued under this
// handler's name.
type Options struct {
	// MaxRetries is the default retry budget. Negative means "use the
	// engine's policy default".
	MaxRetries int

	// Timeout is the default per-attempt execution deadline. Zero means
	// unlimited.
	Timeout time.Duration
}

// DefaultOptions returns handler Options that defer to the engine policy.
func DefaultOptions() Options {
	return Options{MaxRetries: -1}
}

// Option is a functional option for configuring a handler definition.
type Option func(*Options)

// WithMaxRetries sets the default retry budget for this handler's messages.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithTimeout sets the default per-attempt execution deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// NewDefinition creates a typed handler definition.
func NewDefinition[T any](name string, handle func(ctx context.Context, payload T) Result, opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Name:   name,
		Handle: handle,
		Opts:   DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}
