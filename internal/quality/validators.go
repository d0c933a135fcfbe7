// Package quality runs anomaly-detection rules against incoming affiliate
// submissions. Each rule is a pure function producing zero or more
// structured suspicion flags; the flags are stored on the report and feed
// queue prioritisation.
package quality

import (
	"fmt"
	"math"

	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
)

// Submission is the input to the validators: the newly claimed metrics plus
// the latest prior report for the same post, if any.
type Submission struct {
	Claimed     model.Metrics
	HasEvidence bool
	// Previous is the latest prior report's claimed metrics; nil for a
	// first submission.
	Previous *model.Metrics
}

// Evaluate runs every rule and returns the flags keyed by rule name. An
// empty map means a clean submission.
func Evaluate(s Submission, cfg config.QualityConfig) map[string]model.Flag {
	flags := make(map[string]model.Flag)

	add := func(f *model.Flag) {
		if f != nil {
			flags[f.Key] = *f
		}
	}
	add(highCTR(s.Claimed, cfg))
	add(highCVR(s.Claimed, cfg))
	add(metricOrder(s.Claimed))
	add(evidenceRequired(s.Claimed, s.HasEvidence, cfg))

	if s.Previous != nil {
		for _, f := range nonMonotonic(s.Claimed, *s.Previous, cfg) {
			flags[f.Key] = f
		}
		for _, f := range spike(s.Claimed, *s.Previous, cfg) {
			flags[f.Key] = f
		}
	}
	return flags
}

// Suspicious reports whether any flag is MEDIUM or HIGH severity. These are
// the flags that escalate queue priority and apply the impossible
// submission trust event.
func Suspicious(flags map[string]model.Flag) bool {
	for _, f := range flags {
		if f.Severity == "MEDIUM" || f.Severity == "HIGH" {
			return true
		}
	}
	return false
}

func ratio(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// severityFromExcess buckets how far past a threshold the measured value
// landed: 3x or more is HIGH, 1.5x is MEDIUM, anything else LOW.
func severityFromExcess(excess float64) string {
	if excess >= 3 {
		return "HIGH"
	}
	if excess >= 1.5 {
		return "MEDIUM"
	}
	return "LOW"
}

func highCTR(claimed model.Metrics, cfg config.QualityConfig) *model.Flag {
	if claimed.Views < cfg.MinViewsForCTR {
		return nil
	}
	ctr := ratio(claimed.Clicks, claimed.Views)
	if ctr <= cfg.MaxCTRPct {
		return nil
	}
	return &model.Flag{
		Key:       "high_ctr",
		Severity:  severityFromExcess(ctr / cfg.MaxCTRPct),
		Value:     ctr,
		Threshold: cfg.MaxCTRPct,
		Message:   fmt.Sprintf("CTR %.2f%% exceeds %.0f%% threshold", ctr*100, cfg.MaxCTRPct*100),
	}
}

func highCVR(claimed model.Metrics, cfg config.QualityConfig) *model.Flag {
	if claimed.Clicks < cfg.MinClicksForCVR {
		return nil
	}
	cvr := ratio(claimed.Conversions, claimed.Clicks)
	if cvr <= cfg.MaxCVRPct {
		return nil
	}
	return &model.Flag{
		Key:       "high_cvr",
		Severity:  severityFromExcess(cvr / cfg.MaxCVRPct),
		Value:     cvr,
		Threshold: cfg.MaxCVRPct,
		Message:   fmt.Sprintf("CVR %.2f%% exceeds %.0f%% threshold", cvr*100, cfg.MaxCVRPct*100),
	}
}

func metricOrder(claimed model.Metrics) *model.Flag {
	if claimed.Views >= claimed.Clicks && claimed.Clicks >= claimed.Conversions {
		return nil
	}
	return &model.Flag{
		Key:      "metric_order_violation",
		Severity: "MEDIUM",
		Message:  "expected views >= clicks >= conversions",
	}
}

func evidenceRequired(claimed model.Metrics, hasEvidence bool, cfg config.QualityConfig) *model.Flag {
	if claimed.Views < cfg.EvidenceRequiredViews || hasEvidence {
		return nil
	}
	return &model.Flag{
		Key:      "missing_evidence",
		Severity: "MEDIUM",
		Message:  fmt.Sprintf("views %d exceed %d but no evidence provided", claimed.Views, cfg.EvidenceRequiredViews),
	}
}

// nonMonotonic flags metrics that shrank versus the previous report beyond
// a small tolerance. Cumulative metrics should never decrease.
func nonMonotonic(claimed, prev model.Metrics, cfg config.QualityConfig) []model.Flag {
	var flags []model.Flag
	check := func(name string, current, old int64) {
		if old <= 0 {
			return
		}
		if current+int64(float64(old)*cfg.MonotonicTolerance) < old {
			flags = append(flags, model.Flag{
				Key:      name + "_decrease",
				Severity: "LOW",
				Previous: old,
				Current:  current,
				Message:  fmt.Sprintf("%s decreased from %d to %d", name, old, current),
			})
		}
	}
	check("views", claimed.Views, prev.Views)
	check("clicks", claimed.Clicks, prev.Clicks)
	check("conversions", claimed.Conversions, prev.Conversions)
	return flags
}

// spike flags implausible growth versus the previous report.
func spike(claimed, prev model.Metrics, cfg config.QualityConfig) []model.Flag {
	var flags []model.Flag
	check := func(name string, current, old int64) {
		if old <= 0 {
			return
		}
		growth := (float64(current) - float64(old)) / float64(old)
		if math.IsInf(growth, 0) || growth <= cfg.MaxGrowthPct {
			return
		}
		flags = append(flags, model.Flag{
			Key:       name + "_spike",
			Severity:  "HIGH",
			Value:     growth,
			Threshold: cfg.MaxGrowthPct,
			Message:   fmt.Sprintf("%s grew %.0f%% vs previous, over the %.0f%% threshold", name, growth*100, cfg.MaxGrowthPct*100),
		})
	}
	check("views", claimed.Views, prev.Views)
	check("clicks", claimed.Clicks, prev.Clicks)
	check("conversions", claimed.Conversions, prev.Conversions)
	return flags
}
