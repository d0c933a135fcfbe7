// Package config centralizes every tunable governance rule of the
// reconciliation pipeline (tolerances, trust deltas, breaker/backoff,
// retry policy, queue priorities, alerting windows) plus process wiring.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store          StoreConfig          `yaml:"store" mapstructure:"store"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
	Queue          QueueConfig          `yaml:"queue" mapstructure:"queue"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation" mapstructure:"reconciliation"`
	Trust          TrustConfig          `yaml:"trust" mapstructure:"trust"`
	Breaker        BreakerConfig        `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Backoff        BackoffConfig        `yaml:"backoff" mapstructure:"backoff"`
	Retry          RetryPolicyConfig    `yaml:"retry" mapstructure:"retry"`
	Alerting       AlertingConfig       `yaml:"alerting" mapstructure:"alerting"`
	Quality        QualityConfig        `yaml:"data_quality" mapstructure:"data_quality"`
	Integrations   IntegrationsConfig   `yaml:"integrations" mapstructure:"integrations"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the submission API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// QueueConfig configures the priority/delay queue.
type QueueConfig struct {
	// Priorities maps priority labels to numeric values; lower = more urgent.
	Priorities      map[string]int `yaml:"priorities" mapstructure:"priorities"`
	WarnDepth       int            `yaml:"warn_depth" mapstructure:"warn_depth"`
	MaxInMemory     int            `yaml:"max_in_memory" mapstructure:"max_in_memory"`
	PollTimeoutSecs int            `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// ReconciliationConfig holds classification thresholds.
type ReconciliationConfig struct {
	// BaseTolerancePct: diffs within this are a match.
	BaseTolerancePct float64 `yaml:"base_tolerance_pct" mapstructure:"base_tolerance_pct"`
	Tiers            Tiers   `yaml:"discrepancy_tiers" mapstructure:"discrepancy_tiers"`
	// OverclaimThresholdPct: claimed significantly above platform.
	OverclaimThresholdPct float64 `yaml:"overclaim_threshold_pct" mapstructure:"overclaim_threshold_pct"`
	OverclaimCriticalPct  float64 `yaml:"overclaim_critical_pct" mapstructure:"overclaim_critical_pct"`
	// Allowance for organic growth between submission and fetch.
	GrowthPerHourPct float64 `yaml:"growth_per_hour_pct" mapstructure:"growth_per_hour_pct"`
	GrowthCapHours   float64 `yaml:"growth_cap_hours" mapstructure:"growth_cap_hours"`
}

// Tiers holds discrepancy tier upper bounds; above MediumMax is HIGH.
type Tiers struct {
	LowMax    float64 `yaml:"low_max" mapstructure:"low_max"`
	MediumMax float64 `yaml:"medium_max" mapstructure:"medium_max"`
}

// TrustConfig holds trust score bounds, per-event deltas, and the
// operational thresholds used for queue prioritisation.
type TrustConfig struct {
	MinScore float64            `yaml:"min_score" mapstructure:"min_score"`
	MaxScore float64            `yaml:"max_score" mapstructure:"max_score"`
	Events   map[string]float64 `yaml:"events" mapstructure:"events"`

	ReducedFrequencyThreshold    float64 `yaml:"reduced_frequency_threshold" mapstructure:"reduced_frequency_threshold"`
	IncreasedMonitoringThreshold float64 `yaml:"increased_monitoring_threshold" mapstructure:"increased_monitoring_threshold"`
	ManualReviewThreshold        float64 `yaml:"manual_review_threshold" mapstructure:"manual_review_threshold"`
}

// BreakerConfig configures the per-integration circuit breaker.
type BreakerConfig struct {
	FailureThreshold  int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	OpenCooldownSecs  int `yaml:"open_cooldown_seconds" mapstructure:"open_cooldown_seconds"`
	HalfOpenProbes    int `yaml:"half_open_probe_count" mapstructure:"half_open_probe_count"`
}

// BackoffConfig configures in-call fetch retries.
type BackoffConfig struct {
	BaseSeconds float64 `yaml:"base_seconds" mapstructure:"base_seconds"`
	Factor      float64 `yaml:"factor" mapstructure:"factor"`
	MaxSeconds  float64 `yaml:"max_seconds" mapstructure:"max_seconds"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	JitterPct   float64 `yaml:"jitter_pct" mapstructure:"jitter_pct"`
}

// RetryPolicyConfig configures cross-attempt retry scheduling.
type RetryPolicyConfig struct {
	Missing    MissingRetryConfig    `yaml:"missing_platform_data" mapstructure:"missing_platform_data"`
	Incomplete IncompleteRetryConfig `yaml:"incomplete_platform_data" mapstructure:"incomplete_platform_data"`
}

// MissingRetryConfig governs retries after fully missing platform data.
type MissingRetryConfig struct {
	InitialDelayMinutes int     `yaml:"initial_delay_minutes" mapstructure:"initial_delay_minutes"`
	MaxAttempts         int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	WindowHours         float64 `yaml:"window_hours" mapstructure:"window_hours"`
}

// IncompleteRetryConfig governs the optional second fetch for partial data.
type IncompleteRetryConfig struct {
	MaxAdditionalAttempts int `yaml:"max_additional_attempts" mapstructure:"max_additional_attempts"`
}

// AlertingConfig configures alert escalation.
type AlertingConfig struct {
	RepeatWindowHours float64 `yaml:"repeat_window_hours" mapstructure:"repeat_window_hours"`
}

// QualityConfig holds submission anomaly-detection thresholds.
type QualityConfig struct {
	MaxCTRPct              float64 `yaml:"max_ctr_pct" mapstructure:"max_ctr_pct"`
	MaxCVRPct              float64 `yaml:"max_cvr_pct" mapstructure:"max_cvr_pct"`
	MaxGrowthPct           float64 `yaml:"max_growth_pct" mapstructure:"max_growth_pct"`
	EvidenceRequiredViews  int64   `yaml:"evidence_required_views" mapstructure:"evidence_required_views"`
	MonotonicTolerance     float64 `yaml:"monotonic_tolerance" mapstructure:"monotonic_tolerance"`
	MinViewsForCTR         int64   `yaml:"min_views_for_ctr" mapstructure:"min_views_for_ctr"`
	MinClicksForCVR        int64   `yaml:"min_clicks_for_cvr" mapstructure:"min_clicks_for_cvr"`
}

// IntegrationsConfig configures platform adapters.
type IntegrationsConfig struct {
	// ManifestPath points at the YAML adapter manifest; empty uses the
	// built-in mock set.
	ManifestPath    string  `yaml:"manifest_path" mapstructure:"manifest_path"`
	RatePerSecond   float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
	MockFailureRate float64 `yaml:"mock_failure_rate" mapstructure:"mock_failure_rate"`
	MockSeed        int64   `yaml:"mock_seed" mapstructure:"mock_seed"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AFFILIATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "affiliate.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("queue.priorities", map[string]int{"high": 0, "normal": 5, "low": 10})
	v.SetDefault("queue.warn_depth", 1000)
	v.SetDefault("queue.max_in_memory", 5000)
	v.SetDefault("queue.poll_timeout_secs", 5)

	v.SetDefault("reconciliation.base_tolerance_pct", 0.05)
	v.SetDefault("reconciliation.discrepancy_tiers.low_max", 0.10)
	v.SetDefault("reconciliation.discrepancy_tiers.medium_max", 0.20)
	v.SetDefault("reconciliation.overclaim_threshold_pct", 0.20)
	v.SetDefault("reconciliation.overclaim_critical_pct", 0.50)
	v.SetDefault("reconciliation.growth_per_hour_pct", 0.10)
	v.SetDefault("reconciliation.growth_cap_hours", 24)

	v.SetDefault("trust.min_score", 0.0)
	v.SetDefault("trust.max_score", 1.0)
	v.SetDefault("trust.events", map[string]float64{
		"perfect_match":         +0.01,
		"minor_discrepancy":     -0.01,
		"medium_discrepancy":    -0.03,
		"high_discrepancy":      -0.05,
		"overclaim":             -0.10,
		"impossible_submission": -0.15,
	})
	v.SetDefault("trust.reduced_frequency_threshold", 0.75)
	v.SetDefault("trust.increased_monitoring_threshold", 0.50)
	v.SetDefault("trust.manual_review_threshold", 0.25)

	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.open_cooldown_seconds", 300)
	v.SetDefault("circuit_breaker.half_open_probe_count", 3)

	v.SetDefault("backoff.base_seconds", 1.0)
	v.SetDefault("backoff.factor", 2.0)
	v.SetDefault("backoff.max_seconds", 60.0)
	v.SetDefault("backoff.max_attempts", 3)
	v.SetDefault("backoff.jitter_pct", 0.10)

	v.SetDefault("retry.missing_platform_data.initial_delay_minutes", 30)
	v.SetDefault("retry.missing_platform_data.max_attempts", 5)
	v.SetDefault("retry.missing_platform_data.window_hours", 24)
	v.SetDefault("retry.incomplete_platform_data.max_additional_attempts", 1)

	v.SetDefault("alerting.repeat_window_hours", 6)

	v.SetDefault("data_quality.max_ctr_pct", 0.35)
	v.SetDefault("data_quality.max_cvr_pct", 0.60)
	v.SetDefault("data_quality.max_growth_pct", 5.0)
	v.SetDefault("data_quality.evidence_required_views", 50000)
	v.SetDefault("data_quality.monotonic_tolerance", 0.01)
	v.SetDefault("data_quality.min_views_for_ctr", 100)
	v.SetDefault("data_quality.min_clicks_for_cvr", 20)

	v.SetDefault("integrations.rate_per_second", 5.0)
	v.SetDefault("integrations.burst", 5)
	v.SetDefault("integrations.mock_failure_rate", 0.05)
	v.SetDefault("integrations.timeout_secs", 10)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces startup-time sanity on all numeric thresholds. A
// validation failure is fatal and prevents process start.
func (c *Config) Validate() error {
	r := c.Reconciliation
	if r.BaseTolerancePct < 0 || r.Tiers.LowMax <= r.BaseTolerancePct || r.Tiers.MediumMax <= r.Tiers.LowMax {
		return eris.Errorf(
			"config: discrepancy tiers must ascend: base_tolerance (%.3f) < low_max (%.3f) < medium_max (%.3f)",
			r.BaseTolerancePct, r.Tiers.LowMax, r.Tiers.MediumMax,
		)
	}
	if r.OverclaimThresholdPct <= 0 || r.OverclaimCriticalPct < r.OverclaimThresholdPct {
		return eris.Errorf(
			"config: overclaim thresholds must satisfy 0 < threshold (%.3f) <= critical (%.3f)",
			r.OverclaimThresholdPct, r.OverclaimCriticalPct,
		)
	}
	if r.GrowthPerHourPct < 0 || r.GrowthCapHours < 0 {
		return eris.New("config: growth allowance must be non-negative")
	}
	if c.Trust.MinScore >= c.Trust.MaxScore {
		return eris.Errorf(
			"config: trust score bounds invalid: min (%.3f) >= max (%.3f)",
			c.Trust.MinScore, c.Trust.MaxScore,
		)
	}
	if len(c.Queue.Priorities) == 0 {
		return eris.New("config: queue priority map must not be empty")
	}
	if c.Queue.MaxInMemory <= 0 {
		return eris.New("config: queue max_in_memory must be positive")
	}
	if c.Breaker.FailureThreshold <= 0 || c.Breaker.HalfOpenProbes <= 0 {
		return eris.New("config: circuit breaker thresholds must be positive")
	}
	if c.Backoff.MaxAttempts <= 0 {
		return eris.New("config: backoff max_attempts must be positive")
	}
	if c.Retry.Missing.MaxAttempts <= 0 || c.Retry.Missing.InitialDelayMinutes <= 0 {
		return eris.New("config: missing-data retry policy must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
