package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

// pgxQuerier is the query surface shared by a pool and a transaction.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is the subset of *pgxpool.Pool the store needs. Tests substitute
// a pgxmock pool through the same interface.
type PgxPool interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig tunes the Postgres connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// DefaultPoolConfig returns sizing suitable for a single worker process.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
	}
}

// preparedStatements are warmed on every new connection so the hot
// orchestration paths skip the parse step.
var preparedStatements = map[string]string{
	"get_log_by_report": `SELECT ` + logColumns + ` FROM reconciliation_logs WHERE report_id = $1`,
	"get_report":        `SELECT id, post_id, claimed_views, claimed_clicks, claimed_conversions, has_evidence, suspicion_flags, submitted_at FROM affiliate_reports WHERE id = $1`,
	"get_affiliate":     `SELECT id, name, trust_score, accurate_submissions, last_trust_update, created_at FROM affiliates WHERE id = $1`,
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool PgxPool
	q    pgxQuerier
}

// NewPostgres connects to Postgres and configures the pool.
func NewPostgres(ctx context.Context, dsn string, cfg PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, q: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS affiliates (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	trust_score          DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	accurate_submissions INTEGER NOT NULL DEFAULT 0,
	last_trust_update    TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id            TEXT PRIMARY KEY,
	affiliate_id  TEXT NOT NULL REFERENCES affiliates(id),
	integration   TEXT NOT NULL,
	url           TEXT NOT NULL,
	is_reconciled BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS affiliate_reports (
	id                  TEXT PRIMARY KEY,
	post_id             TEXT NOT NULL REFERENCES posts(id),
	claimed_views       BIGINT NOT NULL,
	claimed_clicks      BIGINT NOT NULL,
	claimed_conversions BIGINT NOT NULL,
	has_evidence        BOOLEAN NOT NULL DEFAULT FALSE,
	suspicion_flags     JSONB,
	submitted_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reconciliation_logs (
	id                      TEXT PRIMARY KEY,
	report_id               TEXT NOT NULL UNIQUE REFERENCES affiliate_reports(id),
	status                  TEXT NOT NULL,
	attempt_count           INTEGER NOT NULL DEFAULT 0,
	last_attempt_at         TIMESTAMPTZ,
	scheduled_retry_at      TIMESTAMPTZ,
	elapsed_hours           DOUBLE PRECISION NOT NULL DEFAULT 0,
	views_discrepancy       BIGINT NOT NULL DEFAULT 0,
	clicks_discrepancy      BIGINT NOT NULL DEFAULT 0,
	conversions_discrepancy BIGINT NOT NULL DEFAULT 0,
	views_diff_pct          DOUBLE PRECISION,
	clicks_diff_pct         DOUBLE PRECISION,
	conversions_diff_pct    DOUBLE PRECISION,
	max_discrepancy_pct     DOUBLE PRECISION,
	discrepancy_level       TEXT,
	missing_fields          JSONB,
	confidence_ratio        DOUBLE PRECISION,
	trust_delta             DOUBLE PRECISION,
	error_code              TEXT NOT NULL DEFAULT '',
	rate_limited            BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS platform_observations (
	id          TEXT PRIMARY KEY,
	post_id     TEXT NOT NULL REFERENCES posts(id),
	integration TEXT NOT NULL,
	views       BIGINT,
	clicks      BIGINT,
	conversions BIGINT,
	fetched_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id           TEXT PRIMARY KEY,
	log_id       TEXT NOT NULL UNIQUE REFERENCES reconciliation_logs(id),
	affiliate_id TEXT NOT NULL,
	integration  TEXT NOT NULL,
	type         TEXT NOT NULL,
	category     TEXT NOT NULL,
	severity     TEXT NOT NULL,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	context      JSONB,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_affiliate_id ON posts(affiliate_id);
CREATE INDEX IF NOT EXISTS idx_reports_post_id ON affiliate_reports(post_id);
CREATE INDEX IF NOT EXISTS idx_logs_status ON reconciliation_logs(status);
CREATE INDEX IF NOT EXISTS idx_logs_retry_at ON reconciliation_logs(scheduled_retry_at) WHERE scheduled_retry_at IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_observations_post_id ON platform_observations(post_id);
CREATE INDEX IF NOT EXISTS idx_alerts_affiliate ON alerts(affiliate_id, type, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.q.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// WithTx runs fn inside a transaction. Serialization failures and
// deadlocks surface as ErrConflict.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	pgTx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapPgErr(err, "begin")
	}
	txStore := &PostgresStore{pool: s.pool, q: pgTx}
	if err := fn(txStore); err != nil {
		_ = pgTx.Rollback(ctx)
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return mapPgErr(err, "commit")
	}
	return nil
}

func mapPgErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return eris.Wrapf(ErrDuplicate, "postgres: %s: %v", op, err)
		case "40001", "40P01":
			return eris.Wrapf(ErrConflict, "postgres: %s: %v", op, err)
		}
	}
	return eris.Wrapf(err, "postgres: %s", op)
}

func (s *PostgresStore) CreateAffiliate(ctx context.Context, a *model.Affiliate) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.Exec(ctx,
		`INSERT INTO affiliates (id, name, trust_score, accurate_submissions, last_trust_update, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, a.TrustScore, a.AccurateSubmissions, a.LastTrustUpdate, a.CreatedAt,
	)
	return mapPgErr(err, "insert affiliate")
}

func (s *PostgresStore) GetAffiliate(ctx context.Context, id string) (*model.Affiliate, error) {
	var a model.Affiliate
	err := s.q.QueryRow(ctx,
		`SELECT id, name, trust_score, accurate_submissions, last_trust_update, created_at
		 FROM affiliates WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.TrustScore, &a.AccurateSubmissions, &a.LastTrustUpdate, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "affiliate %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get affiliate %s", id)
	}
	return &a, nil
}

func (s *PostgresStore) UpdateAffiliateTrust(ctx context.Context, id string, score float64, accurate int, at time.Time) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE affiliates SET trust_score = $1, accurate_submissions = $2, last_trust_update = $3 WHERE id = $4`,
		score, accurate, at, id,
	)
	if err != nil {
		return mapPgErr(err, "update affiliate trust")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "affiliate %s", id)
	}
	return nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, p *model.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.Exec(ctx,
		`INSERT INTO posts (id, affiliate_id, integration, url, is_reconciled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.AffiliateID, p.Integration, p.URL, p.IsReconciled, p.CreatedAt,
	)
	return mapPgErr(err, "insert post")
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := s.q.QueryRow(ctx,
		`SELECT id, affiliate_id, integration, url, is_reconciled, created_at FROM posts WHERE id = $1`, id,
	).Scan(&p.ID, &p.AffiliateID, &p.Integration, &p.URL, &p.IsReconciled, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "post %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get post %s", id)
	}
	return &p, nil
}

func (s *PostgresStore) MarkPostReconciled(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `UPDATE posts SET is_reconciled = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapPgErr(err, "mark post reconciled")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "post %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, r *model.AffiliateReport) error {
	flags, err := jsonbValue(r.SuspicionFlags, len(r.SuspicionFlags) == 0)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal suspicion flags")
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	_, err = s.q.Exec(ctx,
		`INSERT INTO affiliate_reports (id, post_id, claimed_views, claimed_clicks, claimed_conversions, has_evidence, suspicion_flags, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.PostID, r.Claimed.Views, r.Claimed.Clicks, r.Claimed.Conversions, r.HasEvidence, flags, r.SubmittedAt,
	)
	return mapPgErr(err, "insert report")
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.AffiliateReport, error) {
	var (
		r     model.AffiliateReport
		flags []byte
	)
	err := s.q.QueryRow(ctx, preparedStatements["get_report"], id).Scan(
		&r.ID, &r.PostID, &r.Claimed.Views, &r.Claimed.Clicks, &r.Claimed.Conversions,
		&r.HasEvidence, &flags, &r.SubmittedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "report %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", id)
	}
	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &r.SuspicionFlags); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal suspicion flags")
		}
	}
	return &r, nil
}

func (s *PostgresStore) CreateLog(ctx context.Context, l *model.ReconciliationLog) error {
	missing, err := jsonbValue(l.MissingFields, len(l.MissingFields) == 0)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal missing fields")
	}
	_, err = s.q.Exec(ctx,
		`INSERT INTO reconciliation_logs (`+logColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		l.ID, l.ReportID, string(l.Status), l.AttemptCount, l.LastAttemptAt, l.ScheduledRetryAt, l.ElapsedHours,
		l.ViewsDiscrepancy, l.ClicksDiscrepancy, l.ConversionsDiscrepancy,
		l.ViewsDiffPct, l.ClicksDiffPct, l.ConversionsDiffPct, l.MaxDiscrepancyPct,
		levelValue(l.DiscrepancyLevel), missing, l.ConfidenceRatio, l.TrustDelta, l.ErrorCode, l.RateLimited,
	)
	return mapPgErr(err, "insert log")
}

func (s *PostgresStore) UpdateLog(ctx context.Context, l *model.ReconciliationLog) error {
	missing, err := jsonbValue(l.MissingFields, len(l.MissingFields) == 0)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal missing fields")
	}
	tag, err := s.q.Exec(ctx,
		`UPDATE reconciliation_logs SET
			status = $1, attempt_count = $2, last_attempt_at = $3, scheduled_retry_at = $4, elapsed_hours = $5,
			views_discrepancy = $6, clicks_discrepancy = $7, conversions_discrepancy = $8,
			views_diff_pct = $9, clicks_diff_pct = $10, conversions_diff_pct = $11, max_discrepancy_pct = $12,
			discrepancy_level = $13, missing_fields = $14, confidence_ratio = $15, trust_delta = $16,
			error_code = $17, rate_limited = $18
		 WHERE id = $19`,
		string(l.Status), l.AttemptCount, l.LastAttemptAt, l.ScheduledRetryAt, l.ElapsedHours,
		l.ViewsDiscrepancy, l.ClicksDiscrepancy, l.ConversionsDiscrepancy,
		l.ViewsDiffPct, l.ClicksDiffPct, l.ConversionsDiffPct, l.MaxDiscrepancyPct,
		levelValue(l.DiscrepancyLevel), missing, l.ConfidenceRatio, l.TrustDelta,
		l.ErrorCode, l.RateLimited, l.ID,
	)
	if err != nil {
		return mapPgErr(err, "update log")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "log %s", l.ID)
	}
	return nil
}

func (s *PostgresStore) GetLogByReport(ctx context.Context, reportID string) (*model.ReconciliationLog, error) {
	row := s.q.QueryRow(ctx, preparedStatements["get_log_by_report"], reportID)
	l, err := scanPgLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "log for report %s", reportID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get log for report %s", reportID)
	}
	return l, nil
}

func (s *PostgresStore) ClaimDueRetries(ctx context.Context, now time.Time, limit int) ([]model.ReconciliationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx,
		`UPDATE reconciliation_logs SET scheduled_retry_at = NULL
		 WHERE id IN (
			SELECT id FROM reconciliation_logs
			WHERE scheduled_retry_at IS NOT NULL AND scheduled_retry_at <= $1
			ORDER BY scheduled_retry_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+logColumns, now, limit)
	if err != nil {
		return nil, mapPgErr(err, "claim due retries")
	}
	defer rows.Close()

	var out []model.ReconciliationLog
	for rows.Next() {
		l, err := scanPgLog(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan due retry")
		}
		out = append(out, *l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: claim due retries")
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	rows, err := s.q.Query(ctx, `SELECT status, COUNT(*) FROM reconciliation_logs GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(StatusCounts)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.ReconciliationStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status")
}

func (s *PostgresStore) CreateObservation(ctx context.Context, o *model.PlatformObservation) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO platform_observations (id, post_id, integration, views, clicks, conversions, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.PostID, o.Integration, o.Metrics.Views, o.Metrics.Clicks, o.Metrics.Conversions, o.FetchedAt,
	)
	return mapPgErr(err, "insert observation")
}

func (s *PostgresStore) CreateAlert(ctx context.Context, a *model.Alert) error {
	contextJSON, err := jsonbValue(a.Context, len(a.Context) == 0)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal alert context")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err = s.q.Exec(ctx,
		`INSERT INTO alerts (id, log_id, affiliate_id, integration, type, category, severity, title, message, context, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.LogID, a.AffiliateID, a.Integration, string(a.Type), string(a.Category), string(a.Severity),
		a.Title, a.Message, contextJSON, a.CreatedAt,
	)
	return mapPgErr(err, "insert alert")
}

func (s *PostgresStore) GetAlertByLog(ctx context.Context, logID string) (*model.Alert, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE log_id = $1`, logID)
	a, err := scanPgAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "alert for log %s", logID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get alert for log %s", logID)
	}
	return a, nil
}

func (s *PostgresStore) HasRecentAlert(ctx context.Context, affiliateID string, typ model.AlertType, since time.Time) (bool, error) {
	var n int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE affiliate_id = $1 AND type = $2 AND created_at > $3`,
		affiliateID, string(typ), since,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "postgres: recent alert lookup")
	}
	return n > 0, nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	var args []any
	if filter.AffiliateID != "" {
		args = append(args, filter.AffiliateID)
		query += ` AND affiliate_id = $` + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alerts")
	}
	defer rows.Close()

	var out []model.Alert
	for rows.Next() {
		a, err := scanPgAlert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list alerts")
}

func scanPgLog(row pgx.Row) (*model.ReconciliationLog, error) {
	var (
		l       model.ReconciliationLog
		status  string
		level   *string
		missing []byte
	)
	err := row.Scan(
		&l.ID, &l.ReportID, &status, &l.AttemptCount, &l.LastAttemptAt, &l.ScheduledRetryAt, &l.ElapsedHours,
		&l.ViewsDiscrepancy, &l.ClicksDiscrepancy, &l.ConversionsDiscrepancy,
		&l.ViewsDiffPct, &l.ClicksDiffPct, &l.ConversionsDiffPct, &l.MaxDiscrepancyPct,
		&level, &missing, &l.ConfidenceRatio, &l.TrustDelta, &l.ErrorCode, &l.RateLimited,
	)
	if err != nil {
		return nil, err
	}
	l.Status = model.ReconciliationStatus(status)
	if level != nil {
		lv := model.DiscrepancyLevel(*level)
		l.DiscrepancyLevel = &lv
	}
	if len(missing) > 0 {
		if err := json.Unmarshal(missing, &l.MissingFields); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

func scanPgAlert(row pgx.Row) (*model.Alert, error) {
	var (
		a                       model.Alert
		typ, category, severity string
		contextJSON             []byte
	)
	err := row.Scan(&a.ID, &a.LogID, &a.AffiliateID, &a.Integration, &typ, &category, &severity,
		&a.Title, &a.Message, &contextJSON, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = model.AlertType(typ)
	a.Category = model.AlertCategory(category)
	a.Severity = model.AlertSeverity(severity)
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &a.Context); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// jsonbValue serializes v for a JSONB column, mapping empty values to NULL.
func jsonbValue(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

func levelValue(l *model.DiscrepancyLevel) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

