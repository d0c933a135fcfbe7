package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

// querier is satisfied by *sql.DB and *sql.Tx so the same store methods
// serve both direct and transactional access.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
	q  querier
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode with a busy timeout.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// WAL writes are single-writer; more connections just contend.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, q: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS affiliates (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	trust_score          REAL NOT NULL DEFAULT 0.5,
	accurate_submissions INTEGER NOT NULL DEFAULT 0,
	last_trust_update    DATETIME,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS posts (
	id            TEXT PRIMARY KEY,
	affiliate_id  TEXT NOT NULL REFERENCES affiliates(id),
	integration   TEXT NOT NULL,
	url           TEXT NOT NULL,
	is_reconciled INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS affiliate_reports (
	id                  TEXT PRIMARY KEY,
	post_id             TEXT NOT NULL REFERENCES posts(id),
	claimed_views       INTEGER NOT NULL,
	claimed_clicks      INTEGER NOT NULL,
	claimed_conversions INTEGER NOT NULL,
	has_evidence        INTEGER NOT NULL DEFAULT 0,
	suspicion_flags     TEXT,
	submitted_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reconciliation_logs (
	id                      TEXT PRIMARY KEY,
	report_id               TEXT NOT NULL UNIQUE REFERENCES affiliate_reports(id),
	status                  TEXT NOT NULL,
	attempt_count           INTEGER NOT NULL DEFAULT 0,
	last_attempt_at         DATETIME,
	scheduled_retry_at      DATETIME,
	elapsed_hours           REAL NOT NULL DEFAULT 0,
	views_discrepancy       INTEGER NOT NULL DEFAULT 0,
	clicks_discrepancy      INTEGER NOT NULL DEFAULT 0,
	conversions_discrepancy INTEGER NOT NULL DEFAULT 0,
	views_diff_pct          REAL,
	clicks_diff_pct         REAL,
	conversions_diff_pct    REAL,
	max_discrepancy_pct     REAL,
	discrepancy_level       TEXT,
	missing_fields          TEXT,
	confidence_ratio        REAL,
	trust_delta             REAL,
	error_code              TEXT NOT NULL DEFAULT '',
	rate_limited            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS platform_observations (
	id          TEXT PRIMARY KEY,
	post_id     TEXT NOT NULL REFERENCES posts(id),
	integration TEXT NOT NULL,
	views       INTEGER,
	clicks      INTEGER,
	conversions INTEGER,
	fetched_at  DATETIME NOT NULL
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
	context      TEXT,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_affiliate_id ON posts(affiliate_id);
CREATE INDEX IF NOT EXISTS idx_reports_post_id ON affiliate_reports(post_id);
CREATE INDEX IF NOT EXISTS idx_logs_status ON reconciliation_logs(status);
CREATE INDEX IF NOT EXISTS idx_logs_retry_at ON reconciliation_logs(scheduled_retry_at);
CREATE INDEX IF NOT EXISTS idx_observations_post_id ON platform_observations(post_id);
CREATE INDEX IF NOT EXISTS idx_alerts_affiliate ON alerts(affiliate_id, type, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction. Lock contention surfaces as
// ErrConflict so the engine can retry once.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteErr(err, "begin")
	}
	txStore := &SQLiteStore{db: s.db, q: sqlTx}
	if err := fn(txStore); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapSQLiteErr(err, "commit")
	}
	return nil
}

// mapSQLiteErr translates driver errors into the store taxonomy.
func mapSQLiteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked"):
		return eris.Wrapf(ErrConflict, "sqlite: %s: %v", op, err)
	case strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT"):
		return eris.Wrapf(ErrDuplicate, "sqlite: %s: %v", op, err)
	}
	return eris.Wrapf(err, "sqlite: %s", op)
}

func (s *SQLiteStore) CreateAffiliate(ctx context.Context, a *model.Affiliate) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO affiliates (id, name, trust_score, accurate_submissions, last_trust_update, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.TrustScore, a.AccurateSubmissions, a.LastTrustUpdate, a.CreatedAt,
	)
	return mapSQLiteErr(err, "insert affiliate")
}

func (s *SQLiteStore) GetAffiliate(ctx context.Context, id string) (*model.Affiliate, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, name, trust_score, accurate_submissions, last_trust_update, created_at
		 FROM affiliates WHERE id = ?`, id)

	var a model.Affiliate
	var lastUpdate sql.NullTime
	err := row.Scan(&a.ID, &a.Name, &a.TrustScore, &a.AccurateSubmissions, &lastUpdate, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "affiliate %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get affiliate %s", id)
	}
	if lastUpdate.Valid {
		a.LastTrustUpdate = &lastUpdate.Time
	}
	return &a, nil
}

func (s *SQLiteStore) UpdateAffiliateTrust(ctx context.Context, id string, score float64, accurate int, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE affiliates SET trust_score = ?, accurate_submissions = ?, last_trust_update = ? WHERE id = ?`,
		score, accurate, at, id,
	)
	if err != nil {
		return mapSQLiteErr(err, "update affiliate trust")
	}
	return checkRowsAffected(res, "affiliate", id)
}

func (s *SQLiteStore) CreatePost(ctx context.Context, p *model.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO posts (id, affiliate_id, integration, url, is_reconciled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.AffiliateID, p.Integration, p.URL, p.IsReconciled, p.CreatedAt,
	)
	return mapSQLiteErr(err, "insert post")
}

func (s *SQLiteStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, affiliate_id, integration, url, is_reconciled, created_at FROM posts WHERE id = ?`, id)

	var p model.Post
	err := row.Scan(&p.ID, &p.AffiliateID, &p.Integration, &p.URL, &p.IsReconciled, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "post %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get post %s", id)
	}
	return &p, nil
}

func (s *SQLiteStore) MarkPostReconciled(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE posts SET is_reconciled = 1 WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteErr(err, "mark post reconciled")
	}
	return checkRowsAffected(res, "post", id)
}

func (s *SQLiteStore) CreateReport(ctx context.Context, r *model.AffiliateReport) error {
	flags, err := marshalJSON(r.SuspicionFlags)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal suspicion flags")
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO affiliate_reports (id, post_id, claimed_views, claimed_clicks, claimed_conversions, has_evidence, suspicion_flags, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PostID, r.Claimed.Views, r.Claimed.Clicks, r.Claimed.Conversions, r.HasEvidence, flags, r.SubmittedAt,
	)
	return mapSQLiteErr(err, "insert report")
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.AffiliateReport, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, post_id, claimed_views, claimed_clicks, claimed_conversions, has_evidence, suspicion_flags, submitted_at
		 FROM affiliate_reports WHERE id = ?`, id)

	var r model.AffiliateReport
	var flags sql.NullString
	err := row.Scan(&r.ID, &r.PostID, &r.Claimed.Views, &r.Claimed.Clicks, &r.Claimed.Conversions, &r.HasEvidence, &flags, &r.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "report %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", id)
	}
	if flags.Valid && flags.String != "" {
		if err := json.Unmarshal([]byte(flags.String), &r.SuspicionFlags); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal suspicion flags")
		}
	}
	return &r, nil
}

const logColumns = `id, report_id, status, attempt_count, last_attempt_at, scheduled_retry_at, elapsed_hours,
	views_discrepancy, clicks_discrepancy, conversions_discrepancy,
	views_diff_pct, clicks_diff_pct, conversions_diff_pct, max_discrepancy_pct,
	discrepancy_level, missing_fields, confidence_ratio, trust_delta, error_code, rate_limited`

func (s *SQLiteStore) CreateLog(ctx context.Context, l *model.ReconciliationLog) error {
	missing, err := marshalJSON(l.MissingFields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal missing fields")
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO reconciliation_logs (`+logColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ReportID, string(l.Status), l.AttemptCount, l.LastAttemptAt, l.ScheduledRetryAt, l.ElapsedHours,
		l.ViewsDiscrepancy, l.ClicksDiscrepancy, l.ConversionsDiscrepancy,
		l.ViewsDiffPct, l.ClicksDiffPct, l.ConversionsDiffPct, l.MaxDiscrepancyPct,
		levelString(l.DiscrepancyLevel), missing, l.ConfidenceRatio, l.TrustDelta, l.ErrorCode, l.RateLimited,
	)
	return mapSQLiteErr(err, "insert log")
}

func (s *SQLiteStore) UpdateLog(ctx context.Context, l *model.ReconciliationLog) error {
	missing, err := marshalJSON(l.MissingFields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal missing fields")
	}
	res, err := s.q.ExecContext(ctx,
		`UPDATE reconciliation_logs SET
			status = ?, attempt_count = ?, last_attempt_at = ?, scheduled_retry_at = ?, elapsed_hours = ?,
			views_discrepancy = ?, clicks_discrepancy = ?, conversions_discrepancy = ?,
			views_diff_pct = ?, clicks_diff_pct = ?, conversions_diff_pct = ?, max_discrepancy_pct = ?,
			discrepancy_level = ?, missing_fields = ?, confidence_ratio = ?, trust_delta = ?,
			error_code = ?, rate_limited = ?
		 WHERE id = ?`,
		string(l.Status), l.AttemptCount, l.LastAttemptAt, l.ScheduledRetryAt, l.ElapsedHours,
		l.ViewsDiscrepancy, l.ClicksDiscrepancy, l.ConversionsDiscrepancy,
		l.ViewsDiffPct, l.ClicksDiffPct, l.ConversionsDiffPct, l.MaxDiscrepancyPct,
		levelString(l.DiscrepancyLevel), missing, l.ConfidenceRatio, l.TrustDelta,
		l.ErrorCode, l.RateLimited, l.ID,
	)
	if err != nil {
		return mapSQLiteErr(err, "update log")
	}
	return checkRowsAffected(res, "log", l.ID)
}

func (s *SQLiteStore) GetLogByReport(ctx context.Context, reportID string) (*model.ReconciliationLog, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM reconciliation_logs WHERE report_id = ?`, reportID)
	l, err := scanLog(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "log for report %s", reportID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get log for report %s", reportID)
	}
	return l, nil
}

func (s *SQLiteStore) ClaimDueRetries(ctx context.Context, now time.Time, limit int) ([]model.ReconciliationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.QueryContext(ctx,
		`UPDATE reconciliation_logs SET scheduled_retry_at = NULL
		 WHERE id IN (
			SELECT id FROM reconciliation_logs
			WHERE scheduled_retry_at IS NOT NULL AND scheduled_retry_at <= ?
			ORDER BY scheduled_retry_at LIMIT ?
		 )
		 RETURNING `+logColumns, now, limit)
	if err != nil {
		return nil, mapSQLiteErr(err, "claim due retries")
	}
	defer rows.Close()

	var out []model.ReconciliationLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan due retry")
		}
		out = append(out, *l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: claim due retries")
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM reconciliation_logs GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := make(StatusCounts)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.ReconciliationStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status")
}

func (s *SQLiteStore) CreateObservation(ctx context.Context, o *model.PlatformObservation) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO platform_observations (id, post_id, integration, views, clicks, conversions, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.PostID, o.Integration, o.Metrics.Views, o.Metrics.Clicks, o.Metrics.Conversions, o.FetchedAt,
	)
	return mapSQLiteErr(err, "insert observation")
}

func (s *SQLiteStore) CreateAlert(ctx context.Context, a *model.Alert) error {
	contextJSON, err := marshalJSON(a.Context)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal alert context")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO alerts (id, log_id, affiliate_id, integration, type, category, severity, title, message, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.LogID, a.AffiliateID, a.Integration, string(a.Type), string(a.Category), string(a.Severity),
		a.Title, a.Message, contextJSON, a.CreatedAt,
	)
	return mapSQLiteErr(err, "insert alert")
}

const alertColumns = `id, log_id, affiliate_id, integration, type, category, severity, title, message, context, created_at`

func (s *SQLiteStore) GetAlertByLog(ctx context.Context, logID string) (*model.Alert, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE log_id = ?`, logID)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "alert for log %s", logID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get alert for log %s", logID)
	}
	return a, nil
}

func (s *SQLiteStore) HasRecentAlert(ctx context.Context, affiliateID string, typ model.AlertType, since time.Time) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE affiliate_id = ? AND type = ? AND created_at > ?`,
		affiliateID, string(typ), since,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: recent alert lookup")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	var args []any
	if filter.AffiliateID != "" {
		query += ` AND affiliate_id = ?`
		args = append(args, filter.AffiliateID)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alerts")
	}
	defer rows.Close()

	var out []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list alerts")
}

// scannable abstracts *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanLog(row scannable) (*model.ReconciliationLog, error) {
	var (
		l           model.ReconciliationLog
		status      string
		lastAttempt sql.NullTime
		retryAt     sql.NullTime
		level       sql.NullString
		missing     sql.NullString
	)
	err := row.Scan(
		&l.ID, &l.ReportID, &status, &l.AttemptCount, &lastAttempt, &retryAt, &l.ElapsedHours,
		&l.ViewsDiscrepancy, &l.ClicksDiscrepancy, &l.ConversionsDiscrepancy,
		&l.ViewsDiffPct, &l.ClicksDiffPct, &l.ConversionsDiffPct, &l.MaxDiscrepancyPct,
		&level, &missing, &l.ConfidenceRatio, &l.TrustDelta, &l.ErrorCode, &l.RateLimited,
	)
	if err != nil {
		return nil, err
	}
	l.Status = model.ReconciliationStatus(status)
	if lastAttempt.Valid {
		l.LastAttemptAt = &lastAttempt.Time
	}
	if retryAt.Valid {
		l.ScheduledRetryAt = &retryAt.Time
	}
	if level.Valid && level.String != "" {
		lv := model.DiscrepancyLevel(level.String)
		l.DiscrepancyLevel = &lv
	}
	if missing.Valid && missing.String != "" {
		if err := json.Unmarshal([]byte(missing.String), &l.MissingFields); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

func scanAlert(row scannable) (*model.Alert, error) {
	var (
		a                       model.Alert
		typ, category, severity string
		contextJSON             sql.NullString
	)
	err := row.Scan(&a.ID, &a.LogID, &a.AffiliateID, &a.Integration, &typ, &category, &severity,
		&a.Title, &a.Message, &contextJSON, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = model.AlertType(typ)
	a.Category = model.AlertCategory(category)
	a.Severity = model.AlertSeverity(severity)
	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &a.Context); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// levelString maps an optional discrepancy level to a nullable column.
func levelString(l *model.DiscrepancyLevel) sql.NullString {
	if l == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*l), Valid: true}
}

// marshalJSON serializes v for a TEXT column, mapping empty values to NULL.
func marshalJSON(v any) (sql.NullString, error) {
	switch t := v.(type) {
	case map[string]model.Flag:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case map[string]any:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
