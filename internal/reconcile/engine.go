package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/platform"
	"github.com/P4R1H/affiliate-platform/internal/store"
)

// MetricsFetcher retrieves platform metrics for a post. *platform.Fetcher
// is the production implementation.
type MetricsFetcher interface {
	Fetch(ctx context.Context, integration, url string) platform.FetchOutcome
}

// Engine runs one reconciliation attempt end to end: load the report
// bundle, fetch platform data, classify, score trust, decide the next
// attempt, evaluate alerts, and persist every mutation in one store
// transaction. The engine never enqueues retries itself; the summary's
// ScheduledRetryAt signals the requeue loop.
type Engine struct {
	store   store.Store
	fetcher MetricsFetcher
	cfg     *config.Config
	log     *zap.Logger

	// nowFunc and newID allow test injection.
	nowFunc func() time.Time
	newID   func() string
}

// NewEngine creates an engine over the given store and fetcher.
func NewEngine(st store.Store, fetcher MetricsFetcher, cfg *config.Config) *Engine {
	return &Engine{
		store:   st,
		fetcher: fetcher,
		cfg:     cfg,
		log:     zap.L().Named("engine"),
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
}

// Run performs one reconciliation attempt for the job's report. The store
// transaction is retried once on contention; a second conflict is returned
// as a fatal error for this job.
func (e *Engine) Run(ctx context.Context, job model.ReconciliationJob) (model.Summary, error) {
	report, err := e.store.GetReport(ctx, job.ReportID)
	if err != nil {
		return model.Summary{}, eris.Wrapf(err, "load report %s", job.ReportID)
	}
	post, err := e.store.GetPost(ctx, report.PostID)
	if err != nil {
		return model.Summary{}, eris.Wrapf(err, "load post %s", report.PostID)
	}
	affiliate, err := e.store.GetAffiliate(ctx, post.AffiliateID)
	if err != nil {
		return model.Summary{}, eris.Wrapf(err, "load affiliate %s", post.AffiliateID)
	}

	prev, err := e.store.GetLogByReport(ctx, report.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.Summary{}, eris.Wrapf(err, "load log for report %s", report.ID)
	}
	if prev != nil && prev.Status.Terminal() {
		// Already reconciled; re-running the same job is a no-op.
		return summarize(prev, affiliate.TrustScore, 0), nil
	}

	now := e.nowFunc()
	outcome := e.fetcher.Fetch(ctx, post.Integration, post.URL)

	metrics := model.PlatformMetrics{}
	if outcome.Success {
		metrics = outcome.Metrics
	}
	elapsed := now.Sub(report.SubmittedAt).Hours()
	cls := Classify(report.Claimed, metrics, elapsed, e.cfg.Reconciliation)

	attemptCount := 1
	if prev != nil {
		attemptCount = prev.AttemptCount + 1
	}
	retryAt := NextAttempt(cls.Status, attemptCount, report.SubmittedAt, now, e.cfg.Retry)
	terminal := cls.Status.Terminal() || retryAt == nil

	newScore, delta := affiliate.TrustScore, 0.0
	if cls.TrustEvent != nil {
		newScore, delta = ApplyTrustEvent(affiliate.TrustScore, *cls.TrustEvent, e.cfg.Trust)
	}

	row := e.buildLog(prev, report.ID, cls, outcome, now, elapsed, attemptCount, retryAt, delta)

	var alert *model.Alert
	if a := e.evaluateAlert(ctx, row, *post, cls, retryAt != nil, now); a != nil {
		alert = a
	}

	persist := func(tx store.Store) error {
		// Re-read inside the transaction so a conflict retry merges with
		// whatever committed in between.
		existing, err := tx.GetLogByReport(ctx, report.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := tx.CreateLog(ctx, row); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			row.ID = existing.ID
			if existing.AttemptCount >= row.AttemptCount {
				row.AttemptCount = existing.AttemptCount + 1
			}
			if err := tx.UpdateLog(ctx, row); err != nil {
				return err
			}
		}

		if outcome.Success {
			obs := &model.PlatformObservation{
				ID:          e.newID(),
				PostID:      post.ID,
				Integration: post.Integration,
				Metrics:     outcome.Metrics,
				FetchedAt:   now,
			}
			if err := tx.CreateObservation(ctx, obs); err != nil {
				return err
			}
		}

		if cls.TrustEvent != nil {
			accurate := affiliate.AccurateSubmissions
			if *cls.TrustEvent == model.TrustPerfectMatch {
				accurate++
			}
			if err := tx.UpdateAffiliateTrust(ctx, affiliate.ID, newScore, accurate, now); err != nil {
				return err
			}
		}

		if terminal {
			if err := tx.MarkPostReconciled(ctx, post.ID); err != nil {
				return err
			}
		}

		if alert != nil {
			alert.LogID = row.ID
			if err := tx.CreateAlert(ctx, alert); err != nil {
				// A previous run already alerted on this log.
				if errors.Is(err, store.ErrDuplicate) {
					return nil
				}
				return err
			}
		}
		return nil
	}

	if err := e.store.WithTx(ctx, persist); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return model.Summary{}, eris.Wrapf(err, "persist attempt for report %s", report.ID)
		}
		e.log.Warn("transaction conflict, retrying once",
			zap.String("report_id", report.ID),
			zap.String("correlation_id", job.CorrelationID))
		if err := e.store.WithTx(ctx, persist); err != nil {
			return model.Summary{}, eris.Wrapf(err, "persist attempt for report %s after conflict retry", report.ID)
		}
	}

	e.log.Info("reconciliation attempt complete",
		zap.String("report_id", report.ID),
		zap.String("integration", post.Integration),
		zap.String("status", string(row.Status)),
		zap.Int("attempt", row.AttemptCount),
		zap.Bool("terminal", terminal),
		zap.Float64("trust_delta", delta),
		zap.String("correlation_id", job.CorrelationID))

	return summarize(row, newScore, delta), nil
}

// buildLog assembles the attempt record for this run, reusing the previous
// row's identity when one exists.
func (e *Engine) buildLog(prev *model.ReconciliationLog, reportID string, cls Classification, outcome platform.FetchOutcome, now time.Time, elapsed float64, attemptCount int, retryAt *time.Time, delta float64) *model.ReconciliationLog {
	row := &model.ReconciliationLog{
		ID:               e.newID(),
		ReportID:         reportID,
		Status:           cls.Status,
		AttemptCount:     attemptCount,
		LastAttemptAt:    &now,
		ScheduledRetryAt: retryAt,
		ElapsedHours:     elapsed,
		MissingFields:    cls.MissingFields,
		ErrorCode:        string(outcome.ErrorKind),
		RateLimited:      outcome.RateLimited,
	}
	if prev != nil {
		row.ID = prev.ID
	}

	confidence := cls.ConfidenceRatio
	row.ConfidenceRatio = &confidence
	if cls.Level != nil {
		level := *cls.Level
		row.DiscrepancyLevel = &level
	}
	if cls.MaxPct != nil {
		pct := *cls.MaxPct
		row.MaxDiscrepancyPct = &pct
	}
	if cls.TrustEvent != nil {
		d := delta
		row.TrustDelta = &d
	}

	if d := cls.DiffFor("views"); d != nil {
		row.ViewsDiscrepancy = d.Diff
		pct := d.Pct
		row.ViewsDiffPct = &pct
	}
	if d := cls.DiffFor("clicks"); d != nil {
		row.ClicksDiscrepancy = d.Diff
		pct := d.Pct
		row.ClicksDiffPct = &pct
	}
	if d := cls.DiffFor("conversions"); d != nil {
		row.ConversionsDiscrepancy = d.Diff
		pct := d.Pct
		row.ConversionsDiffPct = &pct
	}
	return row
}

// evaluateAlert runs the alert rules, consulting recent alert history for
// the escalation check.
func (e *Engine) evaluateAlert(ctx context.Context, row *model.ReconciliationLog, post model.Post, cls Classification, retryScheduled bool, now time.Time) *model.Alert {
	priorHigh := false
	if cls.Status == model.StatusDiscrepancyHigh {
		since := now.Add(-time.Duration(e.cfg.Alerting.RepeatWindowHours * float64(time.Hour)))
		found, err := e.store.HasRecentAlert(ctx, post.AffiliateID, model.AlertHighDiscrepancy, since)
		if err != nil {
			e.log.Warn("alert history lookup failed", zap.String("affiliate_id", post.AffiliateID), zap.Error(err))
		}
		priorHigh = found
	}

	alert := BuildAlert(AlertInput{
		Log:            *row,
		Post:           post,
		Classification: cls,
		RetryScheduled: retryScheduled,
		PriorHighAlert: priorHigh,
	})
	if alert == nil {
		return nil
	}
	alert.ID = e.newID()
	alert.CreatedAt = now
	return alert
}

func summarize(row *model.ReconciliationLog, newScore, delta float64) model.Summary {
	return model.Summary{
		ReportID:          row.ReportID,
		Status:            row.Status,
		AttemptCount:      row.AttemptCount,
		ScheduledRetryAt:  row.ScheduledRetryAt,
		TrustDelta:        delta,
		NewTrustScore:     newScore,
		DiscrepancyLevel:  row.DiscrepancyLevel,
		MaxDiscrepancyPct: row.MaxDiscrepancyPct,
		RateLimited:       row.RateLimited,
		ErrorCode:         row.ErrorCode,
		MissingFields:     row.MissingFields,
	}
}
