package transport

import (
	"context"
	"math"
	"time"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64 // 1.0 keeps the delay fixed
}

// DefaultProbeRetry is the startup probe policy: 8 attempts, 1s apart.
var DefaultProbeRetry = RetryConfig{
	MaxAttempts:     8,
	InitialDelay:    1000 * time.Millisecond,
	MaxDelay:        1000 * time.Millisecond,
	BackoffMultiple: 1.0,
}

// Backoff returns the delay to wait after the given zero-based failed attempt.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	multiple := c.BackoffMultiple
	if multiple < 1 {
		multiple = 1
	}
	delay := float64(c.InitialDelay) * math.Pow(multiple, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	return time.Duration(delay)
}

// Sleep waits d or until ctx is done, reporting whether the full delay elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
