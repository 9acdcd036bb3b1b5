package message

import "time"

// Options configures per-message behavior at enqueue time.
type Options struct {
	// MaxRetries is the number of retry attempts before the message is
	// moved to the dead letter queue.
	MaxRetries int

	// Metadata is an opaque key-value map for caller-supplied tracing
	// context. Immutable after enqueue.
	Metadata map[string]string

	// Timeout is the maximum duration the handler may run before its
	// context is cancelled. Zero means unlimited.
	Timeout time.Duration

	// Delay schedules the first attempt for the future. Zero means
	// immediately eligible.
	Delay time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
	}
}

// Option is a functional option for configuring a message at enqueue time.
type Option func(*Options)

// WithMaxRetries sets the retry budget for the message.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithMetadata attaches caller-supplied metadata to the message.
func WithMetadata(md map[string]string) Option {
	return func(o *Options) {
		o.Metadata = md
	}
}

// WithTimeout sets the maximum execution duration for each attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithDelay schedules the first attempt for now+d instead of immediately.
func WithDelay(d time.Duration) Option {
	return func(o *Options) {
		o.Delay = d
	}
}
