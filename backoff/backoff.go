// Package backoff provides pluggable retry delay strategies for message
// processing. All strategies are safe for concurrent use (they are
// stateless).
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Linear
// ──────────────────────────────────────────────────

// Linear increases the delay linearly with the attempt number.
// Delay = min(Initial * attempt, Max).
type Linear struct {
	Initial time.Duration
	Max     time.Duration
}

// NewLinear creates a linear backoff strategy.
func NewLinear(initial, maxDelay time.Duration) *Linear {
	return &Linear{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * attempt, capped at Max.
func (l *Linear) Delay(attempt int) time.Duration {
	d := l.Initial * time.Duration(attempt)
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// Exponential (symmetric jitter)
// ──────────────────────────────────────────────────

// Exponential grows the delay by Multiplier each attempt and randomizes
// the result symmetrically by the Jitter fraction.
//
// Delay = min(Initial * Multiplier^attempt, Max), then a uniform draw
// from [delay*(1-Jitter), delay*(1+Jitter)], clamped to [0, Max].
// A zero Jitter makes the strategy deterministic.
type Exponential struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// NewExponential creates an exponential backoff strategy with symmetric
// jitter.
func NewExponential(initial, maxDelay time.Duration, multiplier, jitter float64) *Exponential {
	return &Exponential{
		Initial:    initial,
		Max:        maxDelay,
		Multiplier: multiplier,
		Jitter:     jitter,
	}
}

// Delay returns the capped exponential delay for the given retry attempt
// with symmetric jitter applied.
func (e *Exponential) Delay(attempt int) time.Duration {
	mult := e.Multiplier
	if mult <= 0 {
		mult = 2.0
	}

	d := float64(e.Initial) * math.Pow(mult, float64(attempt))
	if e.Max > 0 && d > float64(e.Max) {
		d = float64(e.Max)
	}

	if e.Jitter > 0 {
		// Uniform draw from [d*(1-j), d*(1+j)].
		d = d * (1 - e.Jitter + 2*e.Jitter*rand.Float64()) //nolint:gosec // jitter intentionally uses non-crypto rand
	}

	if d < 0 {
		return 0
	}
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	return time.Duration(d)
}

// ──────────────────────────────────────────────────
// FullJitter
// ──────────────────────────────────────────────────

// FullJitter applies full jitter to an exponential base.
// Delay = random value in [0, min(Initial * 2^(attempt-1), Max)].
// This prevents thundering herd when many retries happen simultaneously.
type FullJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewFullJitter creates an exponential backoff with full jitter.
func NewFullJitter(initial, maxDelay time.Duration) *FullJitter {
	return &FullJitter{Initial: initial, Max: maxDelay}
}

// Delay returns a random duration in [0, min(Initial * 2^(attempt-1), Max)].
func (f *FullJitter) Delay(attempt int) time.Duration {
	base := float64(f.Initial) * math.Pow(2, float64(attempt-1))
	if f.Max > 0 && base > float64(f.Max) {
		base = float64(f.Max)
	}
	return time.Duration(rand.Float64() * base) //nolint:gosec // jitter intentionally uses non-crypto rand
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// DefaultStrategy returns the default backoff used by the engine:
// Exponential with 1s initial, 1m max, multiplier 2, and ±10% jitter.
func DefaultStrategy() Strategy {
	return NewExponential(1*time.Second, 1*time.Minute, 2.0, 0.1)
}
