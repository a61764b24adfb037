package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/scan"
	"github.com/pointaudit/pointaudit/pkg/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(context.Background(), Config{Path: MemoryPath}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(t *testing.T, runID string, startedAt time.Time) *RunRecord {
	t.Helper()
	d := validation.NewDiagnostics()
	d.AddInfo("10LAB01CP001XQ01", validation.RuleScale, "OPERATING_RANGE_LOW and MINIMUM_SCALE do not match")
	d.AddInfo("10LAB01CP001XQ01", validation.RuleScale, "0 != 5")
	d.AddSeverity("10LAB01CP001XQ01", validation.RuleScale, point.MinimumScale, validation.SeverityError)
	d.AddSeverity("10LAB01CP001XQ01", validation.RuleScale, point.OperatingRangeLow, validation.SeverityError)
	d.AddInfo("10LAB01CP002XQ01", validation.RuleNotInDbid, "point is absent from DBID but referenced in a.src")
	d.AddInfo("10LAB01CP003XQ01", validation.RuleLimits, "not recorded, rule skipped")

	report := &ingest.Report{
		RunID:     runID,
		StartedAt: startedAt,
		Duration:  1500 * time.Millisecond,
		Inputs:    ingest.Inputs{Dbid: "/export/DBID.imp"},
		Sources:   validation.Sources{DBID: true, Source: true},
		Points:    3,
		Validation: &validation.Result{Rules: []validation.RuleResult{
			{ID: validation.RuleNotInDbid, Flagged: 1},
			{ID: validation.RuleScale, Flagged: 1, Duration: 2 * time.Millisecond},
			{ID: validation.RuleLimits, Skipped: true},
		}},
		Background: scan.BackgroundIssues{
			{File: "a.src", Line: 4, Issues: []string{"Macro 12", `Definition \T\`}},
		},
	}
	rec, err := NewRunRecord(report, d)
	require.NoError(t, err)
	return rec
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(Config{Path: MemoryPath}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.HealthCheck(ctx))
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrating twice is a no-op")
	require.NoError(t, store.Close())
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(Config{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	for _, table := range []string{"runs", "rule_results", "diagnostics", "field_severities", "background_issues"} {
		var count int
		err := store.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&count)
		assert.NoError(t, err, table)
	}
}

func TestNewRunRecord(t *testing.T) {
	rec := testRecord(t, "run-1", time.Now())

	assert.Equal(t, RunStatusCompleted, rec.Run.Status)
	assert.JSONEq(t, `{"dbid":true,"src":true,"xml":false,"ophxml":false}`, rec.Run.Sources)
	assert.Len(t, rec.Rules, 3)
	assert.Equal(t, []Diagnostic{
		{RunID: "run-1", Rule: "NOT_IN_DBID", KKS: "10LAB01CP002XQ01", Info: []string{"point is absent from DBID but referenced in a.src"}},
		{RunID: "run-1", Rule: "SCALE_ERRORS", KKS: "10LAB01CP001XQ01", Info: []string{"OPERATING_RANGE_LOW and MINIMUM_SCALE do not match", "0 != 5"}},
	}, rec.Diagnostics, "skipped rules are not recorded")
	require.Len(t, rec.Severities, 2)
	assert.Equal(t, "OPERATING_RANGE_LOW", rec.Severities[0].Field, "fields in parameter order")
	assert.Equal(t, "MINIMUM_SCALE", rec.Severities[1].Field)
	assert.Equal(t, "error", rec.Severities[0].Severity)
}

func TestSaveAndReadRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := testRecord(t, "run-1", started)
	require.NoError(t, store.SaveRun(ctx, rec))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.True(t, started.Equal(run.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.Equal(t, 3, run.Points)
	assert.Nil(t, run.Error)

	rules, err := store.ListRuleResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, RuleResult{RunID: "run-1", Rule: "SCALE_ERRORS", Flagged: 1, Duration: 2 * time.Millisecond}, rules[1])
	assert.True(t, rules[2].Skipped)

	diags, err := store.ListDiagnostics(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Equal(t, rec.Diagnostics, diags)

	diags, err = store.ListDiagnostics(ctx, "run-1", "SCALE_ERRORS")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"OPERATING_RANGE_LOW and MINIMUM_SCALE do not match", "0 != 5"}, diags[0].Info)

	severities, err := store.ListFieldSeverities(ctx, "run-1", "SCALE_ERRORS")
	require.NoError(t, err)
	assert.Equal(t, rec.Severities, severities)

	background, err := store.ListBackgroundIssues(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Background, background)
}

func TestSaveRunIsAtomic(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	rec := testRecord(t, "run-1", time.Now())
	rec.Severities = append(rec.Severities, FieldSeverity{Rule: "SCALE_ERRORS", KKS: "X", Field: "DROP", Severity: "fatal"})

	require.Error(t, store.SaveRun(ctx, rec))
	_, err := store.GetRun(ctx, "run-1")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListPruneDeleteRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(ctx, testRecord(t, id, base.Add(time.Duration(i)*time.Hour))))
	}
	failed, err := NewFailedRun(base.Add(4*time.Hour), ingest.Inputs{Dbid: "/x"}, errors.New("DBID does not parse"))
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, failed))

	runs, err := store.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
	assert.Equal(t, "DBID does not parse", *runs[0].Error)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[1].ID, runs[2].ID, runs[3].ID})

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, failed.Run.ID, latest.ID)

	pruned, err := store.PruneRuns(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pruned)
	diags, err := store.ListDiagnostics(ctx, "a", "")
	require.NoError(t, err)
	assert.Empty(t, diags, "rows of pruned runs are deleted")

	require.NoError(t, store.DeleteRun(ctx, "c"))
	assert.True(t, errors.Is(store.DeleteRun(ctx, "c"), ErrRunNotFound))
	_, err = store.GetRun(ctx, "c")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestLatestRunEmpty(t *testing.T) {
	_, err := setupTestStore(t).LatestRun(context.Background())
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(ctx, Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, testRecord(t, "run-1", time.Now())))
	require.NoError(t, store.Close())

	store, err = Open(ctx, Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
}
