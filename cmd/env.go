package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/P4R1H/affiliate-platform/internal/platform"
	"github.com/P4R1H/affiliate-platform/internal/queue"
	"github.com/P4R1H/affiliate-platform/internal/reconcile"
	"github.com/P4R1H/affiliate-platform/internal/resilience"
	"github.com/P4R1H/affiliate-platform/internal/store"
	"github.com/P4R1H/affiliate-platform/internal/worker"
)

// pipelineEnv holds the initialized store, queue, fetcher, and engine
// shared by the serve/worker/reconcile commands.
type pipelineEnv struct {
	Store    store.Store
	Queue    *queue.Queue
	Fetcher  *platform.Fetcher
	Engine   *reconcile.Engine
	Worker   *worker.Worker
	Requeuer *worker.Requeuer
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Queue != nil {
		pe.Queue.Shutdown()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, store.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		zap.L().Info("store initialized", zap.String("driver", "postgres"))
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		zap.L().Info("store initialized", zap.String("driver", "sqlite"), zap.String("path", cfg.Store.DatabaseURL))
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv sets up the store, integration registry, resilient fetcher,
// queue, and orchestration engine. Callers should defer env.Close().
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var registry *platform.Registry
	if cfg.Integrations.ManifestPath != "" {
		manifest, err := platform.LoadManifest(cfg.Integrations.ManifestPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load integration manifest")
		}
		registry = manifest.BuildRegistry(cfg.Integrations.MockSeed)
		zap.L().Info("integrations loaded from manifest",
			zap.String("path", cfg.Integrations.ManifestPath),
			zap.Strings("integrations", registry.Names()),
		)
	} else {
		registry = platform.DefaultRegistry(cfg.Integrations.MockSeed, cfg.Integrations.MockFailureRate)
		zap.L().Info("using built-in mock integrations", zap.Strings("integrations", registry.Names()))
	}

	breakers := resilience.NewBreakers(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenCooldown:     time.Duration(cfg.Breaker.OpenCooldownSecs) * time.Second,
		HalfOpenProbes:   cfg.Breaker.HalfOpenProbes,
	})

	fetcher := platform.NewFetcher(registry, breakers, platform.FetcherConfig{
		Backoff: resilience.BackoffPolicy{
			Base:        time.Duration(cfg.Backoff.BaseSeconds * float64(time.Second)),
			Factor:      cfg.Backoff.Factor,
			Max:         time.Duration(cfg.Backoff.MaxSeconds * float64(time.Second)),
			MaxAttempts: cfg.Backoff.MaxAttempts,
			JitterPct:   cfg.Backoff.JitterPct,
		},
		RatePerSecond: cfg.Integrations.RatePerSecond,
		Burst:         cfg.Integrations.Burst,
		CallTimeout:   time.Duration(cfg.Integrations.TimeoutSecs) * time.Second,
	})

	q := queue.New(queue.Config{
		Priorities:  cfg.Queue.Priorities,
		WarnDepth:   cfg.Queue.WarnDepth,
		MaxCapacity: cfg.Queue.MaxInMemory,
	})

	engine := reconcile.NewEngine(st, fetcher, cfg)
	pollTimeout := time.Duration(cfg.Queue.PollTimeoutSecs) * time.Second

	return &pipelineEnv{
		Store:    st,
		Queue:    q,
		Fetcher:  fetcher,
		Engine:   engine,
		Worker:   worker.New(q, engine, pollTimeout),
		Requeuer: worker.NewRequeuer(st, q, cfg.Trust, 0),
	}, nil
}
