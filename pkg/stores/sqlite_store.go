package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore keeps validation run history in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	cfg    Config
	logger zerolog.Logger
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config, logger zerolog.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	// every connection to :memory: sees its own database
	if cfg.Path == MemoryPath {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}

	return &SQLiteStore{
		cfg:    cfg,
		logger: logger.With().Str("component", "stores").Logger(),
	}, nil
}

// Open creates, initializes and migrates a store.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*SQLiteStore, error) {
	s, err := NewSQLiteStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Init opens the database connection.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := s.cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if s.cfg.Path != MemoryPath {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	s.logger.Debug().Uint("version", version).Msg("Database migrated")
	return nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

// SaveRun stores a run and all its rows in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *RunRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	run := rec.Run
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, status, started_at, duration_ms, points, sources, inputs, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Status,
		run.StartedAt,
		run.Duration.Milliseconds(),
		run.Points,
		run.Sources,
		run.Inputs,
		run.Error,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for _, r := range rec.Rules {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO rule_results (run_id, rule, skipped, flagged, duration_ms)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, r.Rule, r.Skipped, r.Flagged, r.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to save rule %s: %w", r.Rule, err)
		}
	}

	for _, d := range rec.Diagnostics {
		for seq, line := range d.Info {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO diagnostics (run_id, rule, kks, seq, info)
				VALUES (?, ?, ?, ?, ?)
			`, run.ID, d.Rule, d.KKS, seq, line); err != nil {
				return fmt.Errorf("failed to save diagnostic %s/%s: %w", d.Rule, d.KKS, err)
			}
		}
	}

	for _, fs := range rec.Severities {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO field_severities (run_id, rule, kks, field, severity)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, fs.Rule, fs.KKS, fs.Field, fs.Severity); err != nil {
			return fmt.Errorf("failed to save severity %s/%s/%s: %w", fs.Rule, fs.KKS, fs.Field, err)
		}
	}

	for _, b := range rec.Background {
		issues, mErr := json.Marshal(b.Issues)
		if mErr != nil {
			err = mErr
			return fmt.Errorf("failed to encode background issues: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO background_issues (run_id, file, line, issues)
			VALUES (?, ?, ?, ?)
		`, run.ID, b.File, b.Line, string(issues)); err != nil {
			return fmt.Errorf("failed to save background issue %s:%d: %w", b.File, b.Line, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("diagnostics", len(rec.Diagnostics)).
		Msg("Saved run")
	return nil
}

const runColumns = `id, status, started_at, duration_ms, points, sources, inputs, error, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var durationMs int64
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.StartedAt,
		&durationMs,
		&run.Points,
		&run.Sources,
		&run.Inputs,
		&run.Error,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently started run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return runs[0], nil
}

// ListRuns lists runs with pagination, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run and everything recorded for it.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}

// PruneRuns deletes every run but the newest keep ones.
func (s *SQLiteStore) PruneRuns(ctx context.Context, keep int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, created_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

// ListRuleResults returns the per-rule summaries of a run in rule order.
func (s *SQLiteStore) ListRuleResults(ctx context.Context, runID string) ([]RuleResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, skipped, flagged, duration_ms
		FROM rule_results
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule results: %w", err)
	}
	defer rows.Close()

	var results []RuleResult
	for rows.Next() {
		r := RuleResult{RunID: runID}
		var durationMs int64
		if err := rows.Scan(&r.Rule, &r.Skipped, &r.Flagged, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan rule result: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListDiagnostics returns the explanation lines of a run, grouped per tag.
// An empty rule lists every rule.
func (s *SQLiteStore) ListDiagnostics(ctx context.Context, runID, rule string) ([]Diagnostic, error) {
	query := `SELECT rule, kks, info FROM diagnostics WHERE run_id = ?`
	args := []any{runID}
	if rule != "" {
		query += ` AND rule = ?`
		args = append(args, rule)
	}
	query += ` ORDER BY rule, kks, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	defer rows.Close()

	var result []Diagnostic
	for rows.Next() {
		var r, kks, info string
		if err := rows.Scan(&r, &kks, &info); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		if n := len(result); n > 0 && result[n-1].Rule == r && result[n-1].KKS == kks {
			result[n-1].Info = append(result[n-1].Info, info)
			continue
		}
		result = append(result, Diagnostic{RunID: runID, Rule: r, KKS: kks, Info: []string{info}})
	}
	return result, rows.Err()
}

// ListFieldSeverities returns the field annotations of a run. An empty
// rule lists every rule.
func (s *SQLiteStore) ListFieldSeverities(ctx context.Context, runID, rule string) ([]FieldSeverity, error) {
	query := `SELECT rule, kks, field, severity FROM field_severities WHERE run_id = ?`
	args := []any{runID}
	if rule != "" {
		query += ` AND rule = ?`
		args = append(args, rule)
	}
	query += ` ORDER BY rule, kks, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list field severities: %w", err)
	}
	defer rows.Close()

	var result []FieldSeverity
	for rows.Next() {
		fs := FieldSeverity{RunID: runID}
		if err := rows.Scan(&fs.Rule, &fs.KKS, &fs.Field, &fs.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan field severity: %w", err)
		}
		result = append(result, fs)
	}
	return result, rows.Err()
}

// ListBackgroundIssues returns the background-integrity lines of a run.
func (s *SQLiteStore) ListBackgroundIssues(ctx context.Context, runID string) ([]BackgroundIssue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file, line, issues
		FROM background_issues
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list background issues: %w", err)
	}
	defer rows.Close()

	var result []BackgroundIssue
	for rows.Next() {
		b := BackgroundIssue{RunID: runID}
		var issues string
		if err := rows.Scan(&b.File, &b.Line, &issues); err != nil {
			return nil, fmt.Errorf("failed to scan background issue: %w", err)
		}
		if err := json.Unmarshal([]byte(issues), &b.Issues); err != nil {
			return nil, fmt.Errorf("failed to decode background issues: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
