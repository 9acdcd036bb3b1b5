package requeue

import "time"

// Config holds the retry policy applied to messages that do not carry
// their own overrides.
type Config struct {
	// MaxRetries is the number of retry attempts before a message is
	// moved to the dead letter queue.
	MaxRetries int

	// InitialDelay is the base delay for the first backoff computation.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor between attempts.
	Multiplier float64

	// JitterFactor randomizes the computed delay symmetrically by the
	// given fraction (0.1 means ±10%).
	JitterFactor float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}
