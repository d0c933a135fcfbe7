// Package model defines the domain types shared across the reconciliation
// pipeline: affiliate submissions, platform metrics, reconciliation verdicts,
// trust events, and alerts.
package model

// ReconciliationStatus is the verdict for a single reconciliation attempt.
type ReconciliationStatus string

const (
	StatusPending            ReconciliationStatus = "PENDING"
	StatusMatched            ReconciliationStatus = "MATCHED"
	StatusDiscrepancyLow     ReconciliationStatus = "DISCREPANCY_LOW"
	StatusDiscrepancyMedium  ReconciliationStatus = "DISCREPANCY_MEDIUM"
	StatusDiscrepancyHigh    ReconciliationStatus = "DISCREPANCY_HIGH"
	StatusOverclaimed        ReconciliationStatus = "AFFILIATE_OVERCLAIMED"
	StatusIncompleteData     ReconciliationStatus = "INCOMPLETE_PLATFORM_DATA"
	StatusMissingPlatformData ReconciliationStatus = "MISSING_PLATFORM_DATA"
)

// Terminal reports whether no further automatic reconciliation attempt is
// ever scheduled for this status. INCOMPLETE and MISSING are non-terminal;
// they loop back through the retry scheduler until exhausted.
func (s ReconciliationStatus) Terminal() bool {
	switch s {
	case StatusMatched, StatusDiscrepancyLow, StatusDiscrepancyMedium,
		StatusDiscrepancyHigh, StatusOverclaimed:
		return true
	}
	return false
}

// TrustEvent names an outcome that maps to a fixed trust score adjustment.
type TrustEvent string

const (
	TrustPerfectMatch      TrustEvent = "perfect_match"
	TrustMinorDiscrepancy  TrustEvent = "minor_discrepancy"
	TrustMediumDiscrepancy TrustEvent = "medium_discrepancy"
	TrustHighDiscrepancy   TrustEvent = "high_discrepancy"
	TrustOverclaim         TrustEvent = "overclaim"
	TrustImpossibleClaim   TrustEvent = "impossible_submission"
)

// DiscrepancyLevel buckets the magnitude of a discrepancy.
type DiscrepancyLevel string

const (
	LevelLow      DiscrepancyLevel = "LOW"
	LevelMedium   DiscrepancyLevel = "MEDIUM"
	LevelHigh     DiscrepancyLevel = "HIGH"
	LevelCritical DiscrepancyLevel = "CRITICAL"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertHighDiscrepancy AlertType = "HIGH_DISCREPANCY"
	AlertMissingData     AlertType = "MISSING_DATA"
)

// AlertCategory groups alerts for routing.
type AlertCategory string

const (
	CategoryFraud        AlertCategory = "FRAUD"
	CategoryDataQuality  AlertCategory = "DATA_QUALITY"
	CategorySystemHealth AlertCategory = "SYSTEM_HEALTH"
)

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)
