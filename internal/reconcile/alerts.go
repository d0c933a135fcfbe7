package reconcile

import (
	"fmt"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

// AlertInput bundles everything the alert rules evaluate for one attempt.
type AlertInput struct {
	Log            model.ReconciliationLog
	Post           model.Post
	Classification Classification
	// RetryScheduled is true when the retry scheduler produced a next
	// attempt; a missing-data verdict only alerts once retries run out.
	RetryScheduled bool
	// PriorHighAlert is true when the same affiliate already triggered a
	// high-discrepancy alert inside the repeat window.
	PriorHighAlert bool
}

// BuildAlert evaluates the alert rules and returns the alert to create, or
// nil when the verdict does not warrant one. The engine fills ID and
// CreatedAt; one-alert-per-log uniqueness is enforced by the store.
func BuildAlert(in AlertInput) *model.Alert {
	c := in.Classification

	switch c.Status {
	case model.StatusOverclaimed:
		severity := model.SeverityHigh
		if c.Level != nil && *c.Level == model.LevelCritical {
			severity = model.SeverityCritical
		}
		return &model.Alert{
			LogID:       in.Log.ID,
			AffiliateID: in.Post.AffiliateID,
			Integration: in.Post.Integration,
			Type:        model.AlertHighDiscrepancy,
			Category:    model.CategoryFraud,
			Severity:    severity,
			Title:       "Affiliate overclaim detected",
			Message: fmt.Sprintf("claimed metrics exceed platform data by %.0f%% on %s",
				pctOrZero(c.MaxPct)*100, in.Post.Integration),
			Context: alertContext(in),
		}

	case model.StatusDiscrepancyHigh:
		severity := model.SeverityHigh
		if in.PriorHighAlert {
			severity = model.SeverityCritical
		}
		return &model.Alert{
			LogID:       in.Log.ID,
			AffiliateID: in.Post.AffiliateID,
			Integration: in.Post.Integration,
			Type:        model.AlertHighDiscrepancy,
			Category:    model.CategoryDataQuality,
			Severity:    severity,
			Title:       "High metric discrepancy",
			Message: fmt.Sprintf("metrics diverge from platform data by %.0f%% on %s",
				pctOrZero(c.MaxPct)*100, in.Post.Integration),
			Context: alertContext(in),
		}

	case model.StatusMissingPlatformData:
		if in.RetryScheduled {
			return nil
		}
		return &model.Alert{
			LogID:       in.Log.ID,
			AffiliateID: in.Post.AffiliateID,
			Integration: in.Post.Integration,
			Type:        model.AlertMissingData,
			Category:    model.CategorySystemHealth,
			Severity:    model.SeverityMedium,
			Title:       "Platform data unavailable",
			Message: fmt.Sprintf("no platform data for %s after %d attempts",
				in.Post.Integration, in.Log.AttemptCount),
			Context: alertContext(in),
		}
	}
	return nil
}

func alertContext(in AlertInput) map[string]any {
	ctx := map[string]any{
		"post_id":       in.Post.ID,
		"report_id":     in.Log.ReportID,
		"attempt_count": in.Log.AttemptCount,
		"status":        string(in.Classification.Status),
	}
	if in.Classification.MaxPct != nil {
		ctx["max_discrepancy_pct"] = *in.Classification.MaxPct
	}
	if in.Log.ErrorCode != "" {
		ctx["error_code"] = in.Log.ErrorCode
	}
	return ctx
}

func pctOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
