// Package store defines the persistence interface for the reconciliation
// pipeline and its SQLite and Postgres implementations.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = eris.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = eris.New("duplicate row")
	// ErrConflict is returned on transaction contention; the caller may
	// retry the whole transaction once.
	ErrConflict = eris.New("store conflict")
)

// StatusCounts aggregates reconciliation logs by status for diagnostics.
type StatusCounts map[model.ReconciliationStatus]int

// AlertFilter specifies criteria for listing alerts.
type AlertFilter struct {
	AffiliateID string              `json:"affiliate_id,omitempty"`
	Category    model.AlertCategory `json:"category,omitempty"`
	Limit       int                 `json:"limit,omitempty"`
}

// Store defines persistence for affiliates, posts, reports, reconciliation
// logs, platform observations, and alerts. All orchestration mutations for
// one attempt go through WithTx so they commit or roll back together.
type Store interface {
	// Affiliates
	CreateAffiliate(ctx context.Context, a *model.Affiliate) error
	GetAffiliate(ctx context.Context, id string) (*model.Affiliate, error)
	UpdateAffiliateTrust(ctx context.Context, id string, score float64, accurate int, at time.Time) error

	// Posts
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	MarkPostReconciled(ctx context.Context, id string) error

	// Reports
	CreateReport(ctx context.Context, r *model.AffiliateReport) error
	GetReport(ctx context.Context, id string) (*model.AffiliateReport, error)

	// Reconciliation logs: one live row per report, updated in place.
	CreateLog(ctx context.Context, l *model.ReconciliationLog) error
	UpdateLog(ctx context.Context, l *model.ReconciliationLog) error
	GetLogByReport(ctx context.Context, reportID string) (*model.ReconciliationLog, error)
	// ClaimDueRetries atomically clears scheduled_retry_at on logs whose
	// retry time has passed and returns them, so a claimed retry cannot be
	// enqueued twice.
	ClaimDueRetries(ctx context.Context, now time.Time, limit int) ([]model.ReconciliationLog, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)

	// Platform observations
	CreateObservation(ctx context.Context, o *model.PlatformObservation) error

	// Alerts: at most one per reconciliation log, enforced by the store.
	CreateAlert(ctx context.Context, a *model.Alert) error
	GetAlertByLog(ctx context.Context, logID string) (*model.Alert, error)
	HasRecentAlert(ctx context.Context, affiliateID string, typ model.AlertType, since time.Time) (bool, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error)

	// WithTx runs fn against a transactional view of the store. fn's
	// mutations commit when it returns nil and roll back otherwise.
	// Contention surfaces as ErrConflict.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
