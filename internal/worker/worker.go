// Package worker runs the queue consumers: the single reconciliation worker
// draining the priority queue, and the requeue loop that turns scheduled
// retries back into queue jobs.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/queue"
)

// Orchestrator runs one reconciliation attempt. *reconcile.Engine is the
// production implementation.
type Orchestrator interface {
	Run(ctx context.Context, job model.ReconciliationJob) (model.Summary, error)
}

// Worker is the single consumer of the reconciliation queue. Job failures
// are logged and recorded but never crash the loop.
type Worker struct {
	queue       *queue.Queue
	engine      Orchestrator
	pollTimeout time.Duration
	log         *zap.Logger
}

// New creates a worker. pollTimeout bounds each blocking dequeue so the
// loop can observe context cancellation.
func New(q *queue.Queue, engine Orchestrator, pollTimeout time.Duration) *Worker {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Worker{
		queue:       q,
		engine:      engine,
		pollTimeout: pollTimeout,
		log:         zap.L().Named("worker"),
	}
}

// Run consumes jobs until the context is cancelled or the queue is closed
// and drained. The current job always finishes before shutdown is observed.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started")
	for {
		job, err := w.queue.Dequeue(true, w.pollTimeout)
		switch {
		case errors.Is(err, queue.ErrQueueClosed):
			w.log.Info("queue closed, worker exiting")
			return nil
		case errors.Is(err, queue.ErrQueueEmpty):
			if ctx.Err() != nil {
				w.log.Info("context cancelled, worker exiting")
				return nil
			}
			continue
		case err != nil:
			return err
		}

		w.process(ctx, job)

		if ctx.Err() != nil {
			w.log.Info("context cancelled, worker exiting")
			return nil
		}
	}
}

// process runs one job, containing panics so a bad job cannot take the
// loop down.
func (w *Worker) process(ctx context.Context, job model.ReconciliationJob) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic during reconciliation",
				zap.String("report_id", job.ReportID),
				zap.String("correlation_id", job.CorrelationID),
				zap.Any("panic", r))
		}
	}()

	if _, err := w.engine.Run(ctx, job); err != nil {
		w.log.Error("reconciliation failed",
			zap.String("report_id", job.ReportID),
			zap.String("correlation_id", job.CorrelationID),
			zap.Error(err))
	}
}
