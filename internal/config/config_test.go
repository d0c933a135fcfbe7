package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.05, cfg.Reconciliation.BaseTolerancePct)
	assert.Equal(t, 0.10, cfg.Reconciliation.Tiers.LowMax)
	assert.Equal(t, 0.20, cfg.Reconciliation.Tiers.MediumMax)
	assert.Equal(t, 0.20, cfg.Reconciliation.OverclaimThresholdPct)
	assert.Equal(t, 0.50, cfg.Reconciliation.OverclaimCriticalPct)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 3, cfg.Breaker.HalfOpenProbes)
	assert.Equal(t, 3, cfg.Backoff.MaxAttempts)
	assert.Equal(t, 5, cfg.Retry.Missing.MaxAttempts)
	assert.Equal(t, map[string]int{"high": 0, "normal": 5, "low": 10}, cfg.Queue.Priorities)
	assert.Equal(t, 0.01, cfg.Trust.Events["perfect_match"])
	assert.Equal(t, -0.10, cfg.Trust.Events["overclaim"])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Reconciliation: ReconciliationConfig{
				BaseTolerancePct:      0.05,
				Tiers:                 Tiers{LowMax: 0.10, MediumMax: 0.20},
				OverclaimThresholdPct: 0.20,
				OverclaimCriticalPct:  0.50,
				GrowthPerHourPct:      0.10,
				GrowthCapHours:        24,
			},
			Trust: TrustConfig{MinScore: 0, MaxScore: 1},
			Queue: QueueConfig{
				Priorities:  map[string]int{"normal": 5},
				MaxInMemory: 100,
			},
			Breaker: BreakerConfig{FailureThreshold: 5, HalfOpenProbes: 3},
			Backoff: BackoffConfig{MaxAttempts: 3},
			Retry: RetryPolicyConfig{
				Missing: MissingRetryConfig{InitialDelayMinutes: 30, MaxAttempts: 5, WindowHours: 24},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"tiers not ascending", func(c *Config) { c.Reconciliation.Tiers.LowMax = 0.04 }, "tiers must ascend"},
		{"medium below low", func(c *Config) { c.Reconciliation.Tiers.MediumMax = 0.08 }, "tiers must ascend"},
		{"critical below threshold", func(c *Config) { c.Reconciliation.OverclaimCriticalPct = 0.10 }, "overclaim thresholds"},
		{"negative growth", func(c *Config) { c.Reconciliation.GrowthPerHourPct = -1 }, "growth allowance"},
		{"score bounds inverted", func(c *Config) { c.Trust.MinScore = 2 }, "trust score bounds"},
		{"empty priorities", func(c *Config) { c.Queue.Priorities = nil }, "priority map"},
		{"zero capacity", func(c *Config) { c.Queue.MaxInMemory = 0 }, "max_in_memory"},
		{"zero breaker threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }, "circuit breaker"},
		{"zero backoff attempts", func(c *Config) { c.Backoff.MaxAttempts = 0 }, "max_attempts"},
		{"zero retry delay", func(c *Config) { c.Retry.Missing.InitialDelayMinutes = 0 }, "retry policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
