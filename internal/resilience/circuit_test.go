package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBreakers_ClosedAllowsCalls(t *testing.T) {
	b := NewBreakers(DefaultBreakerConfig())

	if err := b.Allow("reddit"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.State("reddit"); got != CircuitClosed {
		t.Errorf("expected closed state, got %s", got)
	}
}

func TestBreakers_OpensAfterThreshold(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 3,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   2,
	}
	b := NewBreakers(cfg)

	for i := 0; i < 3; i++ {
		b.RecordFailure("youtube")
	}

	if got := b.State("youtube"); got != CircuitOpen {
		t.Errorf("expected open state after %d failures, got %s", cfg.FailureThreshold, got)
	}

	err := b.Allow("youtube")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakers_DenialDoesNotCountAsFailure(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 2,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   1,
	}
	b := NewBreakers(cfg)

	b.RecordFailure("tiktok")
	b.RecordFailure("tiktok")

	// Denials while open must not reinforce the breaker.
	for i := 0; i < 10; i++ {
		_ = b.Allow("tiktok")
	}

	snap := b.Snapshot()["tiktok"]
	if snap.Failures != 2 {
		t.Errorf("expected failure count 2 after denials, got %d", snap.Failures)
	}
}

func TestBreakers_SuccessResetsFailureCount(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 3,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   1,
	}
	b := NewBreakers(cfg)

	b.RecordFailure("instagram")
	b.RecordFailure("instagram")
	b.RecordSuccess("instagram")
	b.RecordFailure("instagram")
	b.RecordFailure("instagram")

	if got := b.State("instagram"); got != CircuitClosed {
		t.Errorf("expected closed state after interleaved success, got %s", got)
	}
}

func TestBreakers_HalfOpenAfterCooldown(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 1,
		OpenCooldown:     5 * time.Minute,
		HalfOpenProbes:   2,
	}
	b := NewBreakers(cfg)

	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.RecordFailure("reddit")
	if err := b.Allow("reddit"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen before cooldown, got %v", err)
	}

	now = now.Add(cfg.OpenCooldown + time.Second)

	// First probe admitted.
	if err := b.Allow("reddit"); err != nil {
		t.Fatalf("expected probe to be admitted, got %v", err)
	}
	if got := b.State("reddit"); got != CircuitHalfOpen {
		t.Errorf("expected half-open state, got %s", got)
	}

	// Second probe admitted, third denied.
	if err := b.Allow("reddit"); err != nil {
		t.Fatalf("expected second probe to be admitted, got %v", err)
	}
	if err := b.Allow("reddit"); !errors.Is(err, ErrProbesExhausted) {
		t.Errorf("expected ErrProbesExhausted, got %v", err)
	}
}

func TestBreakers_HalfOpenClosesAfterConsecutiveSuccesses(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 1,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   2,
	}
	b := NewBreakers(cfg)

	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.RecordFailure("x")
	now = now.Add(2 * time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Allow("x"); err != nil {
			t.Fatalf("probe %d denied: %v", i+1, err)
		}
		b.RecordSuccess("x")
	}

	if got := b.State("x"); got != CircuitClosed {
		t.Errorf("expected closed state after probe successes, got %s", got)
	}
	if err := b.Allow("x"); err != nil {
		t.Errorf("expected calls to flow after close, got %v", err)
	}
}

func TestBreakers_HalfOpenFailureReopens(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 1,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   3,
	}
	b := NewBreakers(cfg)

	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.RecordFailure("youtube")
	now = now.Add(2 * time.Minute)

	if err := b.Allow("youtube"); err != nil {
		t.Fatalf("probe denied: %v", err)
	}
	b.RecordFailure("youtube")

	if got := b.State("youtube"); got != CircuitOpen {
		t.Errorf("expected reopen after half-open failure, got %s", got)
	}
	if err := b.Allow("youtube"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen with restarted cooldown, got %v", err)
	}

	// Cooldown restarts from the half-open failure.
	now = now.Add(2 * time.Minute)
	if err := b.Allow("youtube"); err != nil {
		t.Errorf("expected probe after restarted cooldown, got %v", err)
	}
}

func TestBreakers_KeysAreIndependent(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 1,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   1,
	}
	b := NewBreakers(cfg)

	b.RecordFailure("reddit")

	if err := b.Allow("reddit"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected reddit open, got %v", err)
	}
	if err := b.Allow("youtube"); err != nil {
		t.Errorf("expected youtube unaffected, got %v", err)
	}
}

func TestBreakers_Reset(t *testing.T) {
	cfg := BreakerConfig{
		FailureThreshold: 1,
		OpenCooldown:     1 * time.Hour,
		HalfOpenProbes:   1,
	}
	b := NewBreakers(cfg)

	b.RecordFailure("instagram")
	if got := b.State("instagram"); got != CircuitOpen {
		t.Fatalf("expected open, got %s", got)
	}

	b.Reset("instagram")
	if got := b.State("instagram"); got != CircuitClosed {
		t.Errorf("expected closed after reset, got %s", got)
	}
	if err := b.Allow("instagram"); err != nil {
		t.Errorf("expected calls to flow after reset, got %v", err)
	}
}

func TestBreakers_ConcurrentAccess(t *testing.T) {
	b := NewBreakers(BreakerConfig{
		FailureThreshold: 50,
		OpenCooldown:     1 * time.Minute,
		HalfOpenProbes:   1,
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "reddit"
			if n%2 == 0 {
				key = "youtube"
			}
			for j := 0; j < 100; j++ {
				if err := b.Allow(key); err == nil {
					if j%3 == 0 {
						b.RecordFailure(key)
					} else {
						b.RecordSuccess(key)
					}
				}
				_ = b.Snapshot()
			}
		}(i)
	}
	wg.Wait()
}
