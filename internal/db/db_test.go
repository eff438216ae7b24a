package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lu-metrics/internal/stats"
	"github.com/banshee-data/lu-metrics/internal/timeutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	return database
}

func sampleRun(name string, withTotals bool) stats.Run {
	breakdown := map[string]stats.LabelStat{
		"Add":    {TP: 2, FP: 1, FN: 0, NExamples: 2, Precision: 2.0 / 3, Recall: 1, F1: 0.8},
		"Delete": {TP: 0, FP: 0, FN: 1, NExamples: 1},
		"Extra":  {TP: 1, NExamples: 1, Precision: 1, Recall: 1, F1: 1},
	}
	st := &stats.AggregateStat{Breakdown: breakdown}
	if withTotals {
		st.Total = stats.MicroMacro(breakdown)
	}
	return stats.Run{Name: name, Task: "intent", Mode: "pooled", Order: []string{"Delete", "Add", "Missing"}, Stat: st}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("mysql", "x")
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	_, err = Open(DriverSQLite, "")
	if err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestRebind(t *testing.T) {
	sqliteDB := &DB{driver: DriverSQLite}
	pgDB := &DB{driver: DriverPgx}
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := sqliteDB.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	if got, want := pgDB.rebind(q), "SELECT * FROM t WHERE a = $1 AND b = $2"; got != want {
		t.Errorf("pgx rebind = %q, want %q", got, want)
	}
}

func TestMigrations(t *testing.T) {
	database := setupTestDB(t)

	status, err := database.MigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(2), status.LatestVersion)
	assert.Equal(t, uint(2), status.CurrentVersion)
	assert.False(t, status.Dirty)
	assert.False(t, status.Pending())

	require.NoError(t, database.MigrateDown())
	version, _, err := database.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, database.MigrateUp())
	require.NoError(t, database.MigrateUp(), "no change is not an error")
}

func TestLatestMigrationVersion_PerDriver(t *testing.T) {
	for _, dir := range []string{"migrations/sqlite", "migrations/postgres"} {
		v, err := latestMigrationVersion(migrationsFS, dir)
		require.NoError(t, err, dir)
		assert.Equal(t, uint(2), v, dir)
	}
	_, err := latestMigrationVersion(migrationsFS, "migrations/none")
	assert.Error(t, err)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	database := setupTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	database.SetClock(clock)
	ctx := context.Background()

	in := sampleRun("intent", true)
	run, err := database.RecordRun(ctx, in)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, clock.Now(), run.CreatedAt)

	got, err := database.GetRun(ctx, run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}

	rows, err := database.LabelStats(ctx, run.ID)
	require.NoError(t, err)
	var labels []string
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{"Delete", "Add", "Extra"}, labels, "order first, then remaining labels sorted")

	st, order, err := database.Stat(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, labels, order)
	if diff := cmp.Diff(in.Stat, st); diff != "" {
		t.Errorf("Stat mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRun_WithoutTotals(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	run, err := database.RecordRun(ctx, sampleRun("entity", false))
	require.NoError(t, err)
	total, err := database.Totals(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, total)

	_, err = database.RecordRun(ctx, stats.Run{Name: "empty"})
	assert.Error(t, err)
}

func TestListRuns(t *testing.T) {
	database := setupTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	database.SetClock(clock)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := database.RecordRun(ctx, sampleRun(name, false))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	runs, err := database.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].Name)
	assert.Equal(t, "first", runs[2].Name)

	runs, err = database.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetRun_NotFound(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	_, err := database.GetRun(ctx, "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	_, err = database.LabelStats(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, _, err = database.Stat(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestAttachAdminRoutes(t *testing.T) {
	database := setupTestDB(t)
	_, err := database.RecordRun(context.Background(), sampleRun("intent", true))
	require.NoError(t, err)

	mux := http.NewServeMux()
	require.NoError(t, database.AttachAdminRoutes(mux))

	// debug routes may answer 403 to non-tailnet callers, but must exist
	for _, endpoint := range []string{"/debug/backup", "/debug/db-stats", "/debug/tailsql/"} {
		req := httptest.NewRequest(http.MethodGet, endpoint, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusNotFound, rec.Code, endpoint)
	}
}

func TestDatabaseStats(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	_, err := database.RecordRun(ctx, sampleRun("intent", true))
	require.NoError(t, err)

	got, err := database.DatabaseStats(ctx)
	require.NoError(t, err)
	want := &Stats{Driver: DriverSQLite, Tables: []TableCount{
		{Table: "stat_runs", Rows: 1},
		{Table: "label_stats", Rows: 3},
		{Table: "run_totals", Rows: 1},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DatabaseStats mismatch (-want +got):\n%s", diff)
	}
}
