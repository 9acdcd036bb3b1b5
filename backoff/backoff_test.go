package backoff_test

import (
	"testing"
	"time"

	"github.com/groundwire/requeue/backoff"
)

func TestConstant_ReturnsFixedDelay(t *testing.T) {
	c := backoff.NewConstant(5 * time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		if got := c.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 5*time.Second)
		}
	}
}

func TestLinear_GrowsLinearly(t *testing.T) {
	l := backoff.NewLinear(time.Second, time.Minute)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{5, 5 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := l.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestLinear_CapsAtMax(t *testing.T) {
	l := backoff.NewLinear(time.Second, 5*time.Second)

	if got := l.Delay(10); got != 5*time.Second {
		t.Errorf("Delay(10) = %v, want %v (capped at Max)", got, 5*time.Second)
	}
	if got := l.Delay(100); got != 5*time.Second {
		t.Errorf("Delay(100) = %v, want %v (capped at Max)", got, 5*time.Second)
	}
}

func TestExponential_GrowsByMultiplier(t *testing.T) {
	// Jitter zero makes the strategy deterministic.
	e := backoff.NewExponential(time.Second, time.Hour, 2.0, 0)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},  // 1 * 2^1
		{2, 4 * time.Second},  // 1 * 2^2
		{3, 8 * time.Second},  // 1 * 2^3
		{4, 16 * time.Second}, // 1 * 2^4
		{5, 32 * time.Second}, // 1 * 2^5
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_Monotonic(t *testing.T) {
	e := backoff.NewExponential(100*time.Millisecond, time.Minute, 2.0, 0)

	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		got := e.Delay(attempt)
		if got < prev {
			t.Errorf("Delay(%d) = %v, less than Delay(%d) = %v", attempt, got, attempt-1, prev)
		}
		prev = got
	}
}

func TestExponential_CapsAtMax(t *testing.T) {
	e := backoff.NewExponential(time.Second, 10*time.Second, 2.0, 0)

	// Attempt 4 = 16s > 10s max → should return 10s.
	if got := e.Delay(4); got != 10*time.Second {
		t.Errorf("Delay(4) = %v, want %v (capped at Max)", got, 10*time.Second)
	}
	if got := e.Delay(20); got != 10*time.Second {
		t.Errorf("Delay(20) = %v, want %v (capped at Max)", got, 10*time.Second)
	}
}

func TestExponential_JitterWithinBounds(t *testing.T) {
	e := backoff.NewExponential(time.Second, 10*time.Second, 2.0, 0.1)

	for attempt := 1; attempt <= 5; attempt++ {
		base := backoff.NewExponential(time.Second, 10*time.Second, 2.0, 0).Delay(attempt)
		lo := time.Duration(float64(base) * 0.9)

		for range 100 {
			got := e.Delay(attempt)
			if got < lo {
				t.Errorf("Delay(%d) = %v, should be >= %v", attempt, got, lo)
			}
			// Jittered delay never exceeds Max.
			if got > 10*time.Second {
				t.Errorf("Delay(%d) = %v, should be <= %v", attempt, got, 10*time.Second)
			}
		}
	}
}

func TestExponential_JitterProducesVariance(t *testing.T) {
	e := backoff.NewExponential(time.Second, time.Minute, 2.0, 0.1)

	seen := make(map[time.Duration]bool)
	for range 100 {
		seen[e.Delay(3)] = true
	}

	if len(seen) < 2 {
		t.Errorf("expected variance in jitter, got only %d distinct values", len(seen))
	}
}

func TestFullJitter_WithinBounds(t *testing.T) {
	f := backoff.NewFullJitter(time.Second, 10*time.Second)

	for attempt := 1; attempt <= 5; attempt++ {
		maxDelay := 10 * time.Second // capped at Max

		for range 100 {
			got := f.Delay(attempt)
			if got < 0 {
				t.Errorf("Delay(%d) = %v, should be >= 0", attempt, got)
			}
			if got > maxDelay {
				t.Errorf("Delay(%d) = %v, should be <= %v", attempt, got, maxDelay)
			}
		}
	}
}

func TestFullJitter_ProducesVariance(t *testing.T) {
	f := backoff.NewFullJitter(time.Second, time.Minute)

	seen := make(map[time.Duration]bool)
	for range 100 {
		seen[f.Delay(3)] = true
	}

	if len(seen) < 2 {
		t.Errorf("expected variance in jitter, got only %d distinct values", len(seen))
	}
}

func TestDefaultStrategy_WithinPolicyBounds(t *testing.T) {
	s := backoff.DefaultStrategy()
	if s == nil {
		t.Fatal("DefaultStrategy() returned nil")
	}

	for attempt := 1; attempt <= 30; attempt++ {
		d := s.Delay(attempt)
		if d < 0 {
			t.Errorf("DefaultStrategy().Delay(%d) = %v, should be >= 0", attempt, d)
		}
		if d > time.Minute {
			t.Errorf("DefaultStrategy().Delay(%d) = %v, should be <= 1m", attempt, d)
		}
	}
}
