package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/queue"
	"github.com/P4R1H/affiliate-platform/internal/reconcile"
	"github.com/P4R1H/affiliate-platform/internal/store"
)

// Requeuer periodically claims reconciliation logs whose scheduled retry
// time has passed and enqueues them. Claiming clears the retry timestamp
// atomically, so each due retry is enqueued at most once.
type Requeuer struct {
	store     store.Store
	queue     *queue.Queue
	trust     config.TrustConfig
	interval  time.Duration
	batchSize int
	log       *zap.Logger

	nowFunc func() time.Time
}

// NewRequeuer creates a requeue loop with the given poll interval.
func NewRequeuer(st store.Store, q *queue.Queue, trust config.TrustConfig, interval time.Duration) *Requeuer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Requeuer{
		store:     st,
		queue:     q,
		trust:     trust,
		interval:  interval,
		batchSize: 100,
		log:       zap.L().Named("requeuer"),
		nowFunc:   time.Now,
	}
}

// Run polls for due retries until the context is cancelled.
func (r *Requeuer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("requeuer started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("requeuer exiting")
			return nil
		case <-ticker.C:
			if n := r.Tick(ctx); n > 0 {
				r.log.Info("requeued due retries", zap.Int("count", n))
			}
		}
	}
}

// Tick claims and enqueues one batch of due retries, returning how many
// jobs were enqueued.
func (r *Requeuer) Tick(ctx context.Context) int {
	now := r.nowFunc()
	due, err := r.store.ClaimDueRetries(ctx, now, r.batchSize)
	if err != nil {
		r.log.Error("claim due retries failed", zap.Error(err))
		return 0
	}

	enqueued := 0
	for _, l := range due {
		job := model.ReconciliationJob{
			ReportID:      l.ReportID,
			CorrelationID: uuid.NewString(),
		}
		if err := r.queue.Enqueue(job, r.priorityFor(ctx, l.ReportID), 0); err != nil {
			if errors.Is(err, queue.ErrQueueClosed) {
				return enqueued
			}
			r.log.Warn("requeue failed, restoring retry schedule",
				zap.String("report_id", l.ReportID),
				zap.Error(err))
			l.ScheduledRetryAt = &now
			if err := r.store.UpdateLog(ctx, &l); err != nil {
				r.log.Error("restore retry schedule failed",
					zap.String("report_id", l.ReportID),
					zap.Error(err))
			}
			continue
		}
		enqueued++
	}
	return enqueued
}

// priorityFor derives the queue priority from the affiliate's current trust
// standing, falling back to normal when the lookup fails.
func (r *Requeuer) priorityFor(ctx context.Context, reportID string) string {
	report, err := r.store.GetReport(ctx, reportID)
	if err != nil {
		return "normal"
	}
	post, err := r.store.GetPost(ctx, report.PostID)
	if err != nil {
		return "normal"
	}
	affiliate, err := r.store.GetAffiliate(ctx, post.AffiliateID)
	if err != nil {
		return "normal"
	}
	suspicious := len(report.SuspicionFlags) > 0
	return reconcile.ComputePriority(affiliate.TrustScore, suspicious, r.trust)
}
