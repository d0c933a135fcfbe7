package model

import "time"

// Metrics holds the three reconciled metrics as claimed or observed.
type Metrics struct {
	Views       int64 `json:"views"`
	Clicks      int64 `json:"clicks"`
	Conversions int64 `json:"conversions"`
}

// PlatformMetrics holds platform-reported metrics. Each value is nullable:
// a nil field means the integration did not return that metric.
type PlatformMetrics struct {
	Views       *int64 `json:"views"`
	Clicks      *int64 `json:"clicks"`
	Conversions *int64 `json:"conversions"`
}

// Present returns the number of non-nil metrics (0-3).
func (m PlatformMetrics) Present() int {
	n := 0
	if m.Views != nil {
		n++
	}
	if m.Clicks != nil {
		n++
	}
	if m.Conversions != nil {
		n++
	}
	return n
}

// Missing returns the names of absent metrics in canonical order.
func (m PlatformMetrics) Missing() []string {
	var missing []string
	if m.Views == nil {
		missing = append(missing, "views")
	}
	if m.Clicks == nil {
		missing = append(missing, "clicks")
	}
	if m.Conversions == nil {
		missing = append(missing, "conversions")
	}
	return missing
}

// Affiliate is the submitting party whose trust score the pipeline maintains.
type Affiliate struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	TrustScore          float64    `json:"trust_score"`
	AccurateSubmissions int        `json:"accurate_submissions"`
	LastTrustUpdate     *time.Time `json:"last_trust_update,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Post is a single tracked URL on one platform integration. A post is the
// reconciliation subject: reconciled once its latest report reaches a
// terminal verdict.
type Post struct {
	ID           string    `json:"id"`
	AffiliateID  string    `json:"affiliate_id"`
	Integration  string    `json:"integration"`
	URL          string    `json:"url"`
	IsReconciled bool      `json:"is_reconciled"`
	CreatedAt    time.Time `json:"created_at"`
}

// AffiliateReport is one claimed-metrics submission for a post.
type AffiliateReport struct {
	ID             string          `json:"id"`
	PostID         string          `json:"post_id"`
	Claimed        Metrics         `json:"claimed"`
	HasEvidence    bool            `json:"has_evidence"`
	SuspicionFlags map[string]Flag `json:"suspicion_flags,omitempty"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}

// Flag is a structured data-quality finding attached to a submission.
type Flag struct {
	Key       string  `json:"key"`
	Severity  string  `json:"severity"`
	Value     float64 `json:"value,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Previous  int64   `json:"previous,omitempty"`
	Current   int64   `json:"current,omitempty"`
	Message   string  `json:"message"`
}
