// Package reconcile implements the reconciliation core: discrepancy
// classification, trust scoring, retry scheduling, alert rules, and the
// orchestrating engine that ties them to the store and the platform fetcher.
package reconcile

import (
	"math"

	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
)

// MetricDiff holds the comparison of one metric after growth adjustment.
type MetricDiff struct {
	Name string
	// Claimed and Adjusted are the compared values; Adjusted includes the
	// organic growth allowance.
	Claimed  int64
	Adjusted float64
	// Diff is claimed minus adjusted, Pct is Diff over Adjusted. Positive
	// means the affiliate claimed more than the platform shows.
	Diff int64
	Pct  float64
}

// Classification is the verdict for one attempt. It is a pure function of
// its inputs: same claimed metrics, platform metrics, elapsed hours, and
// config always produce the same Classification.
type Classification struct {
	Status model.ReconciliationStatus
	// TrustEvent is nil for missing/incomplete outcomes.
	TrustEvent *model.TrustEvent
	Level      *model.DiscrepancyLevel
	// ConfidenceRatio is present-metrics/3.
	ConfidenceRatio float64
	MissingFields   []string
	// Diffs covers present metrics only, in views/clicks/conversions order.
	Diffs []MetricDiff
	// MaxPct is the signed pct diff with the largest magnitude.
	MaxPct *float64
}

// Classify compares claimed metrics against platform metrics.
//
// All-null platform data yields MISSING_PLATFORM_DATA; one or two present
// metrics yield INCOMPLETE_PLATFORM_DATA with diffs over what is present
// and no trust event. With all three present, each platform value gets a
// growth allowance for the time elapsed since submission, then the signed
// percentage differences drive the verdict: overclaim past the threshold,
// match within tolerance, or a LOW/MEDIUM/HIGH discrepancy tier.
func Classify(claimed model.Metrics, platform model.PlatformMetrics, elapsedHours float64, cfg config.ReconciliationConfig) Classification {
	n := platform.Present()
	if n == 0 {
		return Classification{
			Status:        model.StatusMissingPlatformData,
			MissingFields: platform.Missing(),
		}
	}

	growth := 1.0
	if elapsedHours > 0 {
		capped := math.Min(elapsedHours, cfg.GrowthCapHours)
		growth = 1.0 + cfg.GrowthPerHourPct*capped
	}

	diffs := make([]MetricDiff, 0, 3)
	for _, m := range []struct {
		name     string
		claimed  int64
		platform *int64
	}{
		{"views", claimed.Views, platform.Views},
		{"clicks", claimed.Clicks, platform.Clicks},
		{"conversions", claimed.Conversions, platform.Conversions},
	} {
		if m.platform == nil {
			continue
		}
		adjusted := float64(*m.platform) * growth
		diff := m.claimed - int64(math.Round(adjusted))
		var pct float64
		switch {
		case adjusted > 0:
			pct = (float64(m.claimed) - adjusted) / adjusted
		case m.claimed > 0:
			pct = 1.0
		}
		diffs = append(diffs, MetricDiff{
			Name:     m.name,
			Claimed:  m.claimed,
			Adjusted: adjusted,
			Diff:     diff,
			Pct:      pct,
		})
	}

	if n < 3 {
		out := Classification{
			Status:          model.StatusIncompleteData,
			ConfidenceRatio: float64(n) / 3.0,
			MissingFields:   platform.Missing(),
			Diffs:           diffs,
		}
		out.MaxPct = maxAbsPct(diffs)
		return out
	}

	out := Classification{
		ConfidenceRatio: 1.0,
		Diffs:           diffs,
	}
	out.MaxPct = maxAbsPct(diffs)

	var maxSigned float64
	overclaim := false
	for _, d := range diffs {
		if d.Pct >= cfg.OverclaimThresholdPct {
			overclaim = true
		}
		if d.Pct > maxSigned {
			maxSigned = d.Pct
		}
	}

	if overclaim {
		out.Status = model.StatusOverclaimed
		level := model.LevelHigh
		if maxSigned >= cfg.OverclaimCriticalPct {
			level = model.LevelCritical
		}
		out.Level = &level
		event := model.TrustOverclaim
		out.TrustEvent = &event
		return out
	}

	maxAbs := math.Abs(*out.MaxPct)
	if maxAbs <= cfg.BaseTolerancePct {
		out.Status = model.StatusMatched
		event := model.TrustPerfectMatch
		out.TrustEvent = &event
		return out
	}

	var (
		level model.DiscrepancyLevel
		event model.TrustEvent
	)
	switch {
	case maxAbs <= cfg.Tiers.LowMax:
		level, event = model.LevelLow, model.TrustMinorDiscrepancy
		out.Status = model.StatusDiscrepancyLow
	case maxAbs <= cfg.Tiers.MediumMax:
		level, event = model.LevelMedium, model.TrustMediumDiscrepancy
		out.Status = model.StatusDiscrepancyMedium
	default:
		level, event = model.LevelHigh, model.TrustHighDiscrepancy
		out.Status = model.StatusDiscrepancyHigh
	}
	out.Level = &level
	out.TrustEvent = &event
	return out
}

// maxAbsPct returns the signed pct with the largest magnitude, or nil when
// there are no diffs.
func maxAbsPct(diffs []MetricDiff) *float64 {
	if len(diffs) == 0 {
		return nil
	}
	best := diffs[0].Pct
	for _, d := range diffs[1:] {
		if math.Abs(d.Pct) > math.Abs(best) {
			best = d.Pct
		}
	}
	return &best
}

// DiffFor returns the metric diff by name, or nil.
func (c Classification) DiffFor(name string) *MetricDiff {
	for i := range c.Diffs {
		if c.Diffs[i].Name == name {
			return &c.Diffs[i]
		}
	}
	return nil
}
