package model

import "time"

// Alert is a write-once row tied to exactly one reconciliation log. The
// store enforces uniqueness on LogID so repeated orchestration runs over
// the same record cannot produce duplicates.
type Alert struct {
	ID          string         `json:"id"`
	LogID       string         `json:"log_id"`
	AffiliateID string         `json:"affiliate_id"`
	Integration string         `json:"integration"`
	Type        AlertType      `json:"type"`
	Category    AlertCategory  `json:"category"`
	Severity    AlertSeverity  `json:"severity"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Context     map[string]any `json:"context,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
