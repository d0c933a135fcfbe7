package model

import "time"

// ReconciliationLog is the persisted attempt record for one report. Exactly
// one live row exists per report; it is updated in place on every attempt.
// AttemptCount strictly increases across attempts.
type ReconciliationLog struct {
	ID               string               `json:"id"`
	ReportID         string               `json:"report_id"`
	Status           ReconciliationStatus `json:"status"`
	AttemptCount     int                  `json:"attempt_count"`
	LastAttemptAt    *time.Time           `json:"last_attempt_at,omitempty"`
	ScheduledRetryAt *time.Time           `json:"scheduled_retry_at,omitempty"`
	ElapsedHours     float64              `json:"elapsed_hours"`

	ViewsDiscrepancy       int64    `json:"views_discrepancy"`
	ClicksDiscrepancy      int64    `json:"clicks_discrepancy"`
	ConversionsDiscrepancy int64    `json:"conversions_discrepancy"`
	ViewsDiffPct           *float64 `json:"views_diff_pct,omitempty"`
	ClicksDiffPct          *float64 `json:"clicks_diff_pct,omitempty"`
	ConversionsDiffPct     *float64 `json:"conversions_diff_pct,omitempty"`
	MaxDiscrepancyPct      *float64 `json:"max_discrepancy_pct,omitempty"`

	DiscrepancyLevel *DiscrepancyLevel `json:"discrepancy_level,omitempty"`
	MissingFields    []string          `json:"missing_fields,omitempty"`
	ConfidenceRatio  *float64          `json:"confidence_ratio,omitempty"`
	TrustDelta       *float64          `json:"trust_delta,omitempty"`

	ErrorCode   string `json:"error_code,omitempty"`
	RateLimited bool   `json:"rate_limited"`
}

// PlatformObservation records one successful platform fetch for a post.
// A new row is written per attempt that returned at least one metric.
type PlatformObservation struct {
	ID          string          `json:"id"`
	PostID      string          `json:"post_id"`
	Integration string          `json:"integration"`
	Metrics     PlatformMetrics `json:"metrics"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

// Summary is the structured result of one orchestration run, returned to
// the API layer for client responses.
type Summary struct {
	ReportID          string               `json:"report_id"`
	Status            ReconciliationStatus `json:"status"`
	AttemptCount      int                  `json:"attempt_count"`
	ScheduledRetryAt  *time.Time           `json:"scheduled_retry_at,omitempty"`
	TrustDelta        float64              `json:"trust_delta"`
	NewTrustScore     float64              `json:"new_trust_score"`
	DiscrepancyLevel  *DiscrepancyLevel    `json:"discrepancy_level,omitempty"`
	MaxDiscrepancyPct *float64             `json:"max_discrepancy_pct,omitempty"`
	RateLimited       bool                 `json:"rate_limited"`
	ErrorCode         string               `json:"error_code,omitempty"`
	MissingFields     []string             `json:"missing_fields,omitempty"`
}
