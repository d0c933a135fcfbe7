package resilience

import (
	"context"
	"testing"
	"time"
)

func TestBackoffPolicy_ExponentialGrowth(t *testing.T) {
	p := BackoffPolicy{
		Base:        1 * time.Second,
		Factor:      2.0,
		Max:         60 * time.Second,
		MaxAttempts: 5,
		JitterPct:   0, // deterministic
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffPolicy_CapsAtMax(t *testing.T) {
	p := BackoffPolicy{
		Base:      1 * time.Second,
		Factor:    2.0,
		Max:       10 * time.Second,
		JitterPct: 0,
	}

	if got := p.Delay(20); got != 10*time.Second {
		t.Errorf("Delay(20) = %v, want cap %v", got, 10*time.Second)
	}
}

func TestBackoffPolicy_JitterBounds(t *testing.T) {
	p := BackoffPolicy{
		Base:      4 * time.Second,
		Factor:    2.0,
		Max:       60 * time.Second,
		JitterPct: 0.10,
	}

	// Extremes of the rand range produce ±10%.
	p.randFn = func() float64 { return 0 }
	if got := p.Delay(1); got != 3600*time.Millisecond {
		t.Errorf("min jitter Delay(1) = %v, want 3.6s", got)
	}

	p.randFn = func() float64 { return 1 }
	if got := p.Delay(1); got != 4400*time.Millisecond {
		t.Errorf("max jitter Delay(1) = %v, want 4.4s", got)
	}

	p.randFn = func() float64 { return 0.5 }
	if got := p.Delay(1); got != 4*time.Second {
		t.Errorf("mid jitter Delay(1) = %v, want 4s", got)
	}
}

func TestBackoffPolicy_ZeroValueDefaults(t *testing.T) {
	var p BackoffPolicy

	got := p.Delay(1)
	if got != 1*time.Second {
		t.Errorf("zero-value Delay(1) = %v, want 1s", got)
	}
	if got := p.Delay(0); got != 1*time.Second {
		t.Errorf("Delay(0) = %v, want clamp to first attempt", got)
	}
}

func TestSleep_CompletesAfterDuration(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("slept %v, want at least 10ms", elapsed)
	}
}

func TestSleep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, 10*time.Second)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if elapsed := time.Since(start); elapsed > 1*time.Second {
		t.Errorf("sleep did not abort promptly, took %v", elapsed)
	}
}

func TestSleep_ZeroDuration(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
