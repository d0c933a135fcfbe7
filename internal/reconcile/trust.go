package reconcile

import (
	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
)

// ApplyTrustEvent adds the configured delta for event to current and clamps
// the result to the score bounds. The returned delta is the post-clamp
// difference, so a score already at the ceiling records 0, not the nominal
// event value. Unknown events are a no-op.
func ApplyTrustEvent(current float64, event model.TrustEvent, cfg config.TrustConfig) (newScore, delta float64) {
	nominal, ok := cfg.Events[string(event)]
	if !ok {
		return current, 0
	}
	newScore = current + nominal
	if newScore > cfg.MaxScore {
		newScore = cfg.MaxScore
	}
	if newScore < cfg.MinScore {
		newScore = cfg.MinScore
	}
	return newScore, newScore - current
}

// ComputePriority maps an affiliate's trust standing to a queue priority
// label. Suspicious submissions and low-trust affiliates get reconciled
// first; consistently accurate affiliates drop to low priority.
func ComputePriority(score float64, suspicious bool, cfg config.TrustConfig) string {
	if suspicious || score < cfg.IncreasedMonitoringThreshold {
		return "high"
	}
	if score >= cfg.ReducedFrequencyThreshold {
		return "low"
	}
	return "normal"
}

// NeedsManualReview reports whether the affiliate's score has fallen below
// the manual review threshold.
func NeedsManualReview(score float64, cfg config.TrustConfig) bool {
	return score < cfg.ManualReviewThreshold
}
