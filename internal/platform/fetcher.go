package platform

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/resilience"
)

// FetchOutcome is the full result of one fetch call, including failure
// detail. Errors are captured here rather than returned so the orchestrator
// can persist them into the attempt record.
type FetchOutcome struct {
	Success     bool
	Metrics     model.PlatformMetrics
	Attempts    int
	RateLimited bool
	ErrorKind   ErrorKind
	Err         error
	// PartialMissing lists absent metric names on a partial success.
	PartialMissing []string
}

// FetcherConfig tunes the fetcher wrapper.
type FetcherConfig struct {
	// Backoff governs in-call retries for transient failures.
	Backoff resilience.BackoffPolicy
	// RatePerSecond and Burst bound outbound calls per integration.
	RatePerSecond float64
	Burst         int
	// CallTimeout bounds a single adapter call.
	CallTimeout time.Duration
}

// Fetcher wraps adapter calls with circuit breaking, local rate limiting,
// and backoff retries. The per-integration breaker state is shared across
// calls; the fetcher itself is safe for concurrent use.
type Fetcher struct {
	registry *Registry
	breakers *resilience.Breakers
	cfg      FetcherConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	log *zap.Logger

	// sleep allows test injection; defaults to resilience.Sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher over the given registry and breaker map.
func NewFetcher(registry *Registry, breakers *resilience.Breakers, cfg FetcherConfig) *Fetcher {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.Backoff.MaxAttempts <= 0 {
		cfg.Backoff = resilience.DefaultBackoffPolicy()
	}
	return &Fetcher{
		registry: registry,
		breakers: breakers,
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
		log:      zap.L().Named("fetcher"),
		sleep:    resilience.Sleep,
	}
}

func (f *Fetcher) limiter(integration string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[integration]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.cfg.RatePerSecond), f.cfg.Burst)
		f.limiters[integration] = l
	}
	return l
}

// Fetch retrieves platform metrics for url via the named integration. It
// never returns an error: every failure mode is captured in the outcome.
// Each attempt's result is reported to the circuit breaker exactly once; a
// breaker denial reports nothing and makes no attempt.
func (f *Fetcher) Fetch(ctx context.Context, integration, url string) FetchOutcome {
	adapter, err := f.registry.Get(integration)
	if err != nil {
		return FetchOutcome{ErrorKind: ErrorKindFetchError, Err: err}
	}

	if err := f.breakers.Allow(integration); err != nil {
		f.log.Warn("circuit breaker denied fetch",
			zap.String("integration", integration),
			zap.String("state", string(f.breakers.State(integration))))
		return FetchOutcome{ErrorKind: ErrorKindCircuitOpen, Err: err}
	}

	var (
		attempts    int
		rateLimited bool
		lastErr     error
		lastKind    ErrorKind
	)
	for attempts < f.cfg.Backoff.MaxAttempts {
		attempts++

		if err := f.limiter(integration).Wait(ctx); err != nil {
			f.breakers.RecordFailure(integration)
			return FetchOutcome{
				Attempts:    attempts,
				RateLimited: rateLimited,
				ErrorKind:   ErrorKindFetchError,
				Err:         err,
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
		metrics, err := adapter.FetchPostMetrics(callCtx, url)
		cancel()

		if err == nil {
			f.breakers.RecordSuccess(integration)
			out := FetchOutcome{
				Success:  true,
				Metrics:  metrics,
				Attempts: attempts,
			}
			if metrics.Present() < 3 {
				out.PartialMissing = metrics.Missing()
			}
			return out
		}

		f.breakers.RecordFailure(integration)
		lastErr = err
		lastKind = KindOf(err)
		if lastKind == ErrorKindRateLimited {
			rateLimited = true
		}

		f.log.Debug("fetch attempt failed",
			zap.String("integration", integration),
			zap.Int("attempt", attempts),
			zap.String("kind", string(lastKind)),
			zap.Error(err))

		if !lastKind.Retryable() {
			break
		}
		if attempts >= f.cfg.Backoff.MaxAttempts {
			break
		}
		if err := f.sleep(ctx, f.cfg.Backoff.Delay(attempts)); err != nil {
			break
		}
	}

	return FetchOutcome{
		Attempts:    attempts,
		RateLimited: rateLimited,
		ErrorKind:   lastKind,
		Err:         lastErr,
	}
}

// BreakerSnapshot exposes per-integration breaker state for diagnostics.
func (f *Fetcher) BreakerSnapshot() map[string]resilience.KeyState {
	return f.breakers.Snapshot()
}
