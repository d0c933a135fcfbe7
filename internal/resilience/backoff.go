package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy computes delays for in-call fetch retries: exponential
// growth capped at Max with symmetric jitter.
type BackoffPolicy struct {
	// Base is the delay before the first retry.
	Base time.Duration
	// Factor scales the delay after each attempt.
	Factor float64
	// Max caps the computed delay.
	Max time.Duration
	// MaxAttempts is the total number of attempts (including the first).
	MaxAttempts int
	// JitterPct randomizes the delay by ±JitterPct (0.10 = ±10%).
	JitterPct float64

	// randFn allows test injection; defaults to rand.Float64.
	randFn func() float64
}

// DefaultBackoffPolicy returns a sensible policy for platform API calls.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Base:        1 * time.Second,
		Factor:      2.0,
		Max:         60 * time.Second,
		MaxAttempts: 3,
		JitterPct:   0.10,
	}
}

// Delay returns the backoff delay after the given attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.Base
	if base <= 0 {
		base = 1 * time.Second
	}
	factor := p.Factor
	if factor <= 0 {
		factor = 2.0
	}
	max := p.Max
	if max <= 0 {
		max = 60 * time.Second
	}

	delay := float64(base) * math.Pow(factor, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}

	if p.JitterPct > 0 {
		randFn := p.randFn
		if randFn == nil {
			randFn = rand.Float64
		}
		jitter := delay * p.JitterPct
		delay += (randFn()*2 - 1) * jitter // [-jitter, +jitter]
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
// Returns ctx.Err() on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
