package db

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/lu-metrics/internal/httputil"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

// TableCount is the row count of one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Stats describes the store for the debug pages.
type Stats struct {
	Driver string       `json:"driver"`
	Tables []TableCount `json:"tables"`
}

var statTables = []string{"stat_runs", "label_stats", "run_totals"}

// DatabaseStats counts the rows of every run table.
func (db *DB) DatabaseStats(ctx context.Context) (*Stats, error) {
	st := &Stats{Driver: db.driver}
	for _, table := range statTables {
		var n int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		st.Tables = append(st.Tables, TableCount{Table: table, Rows: n})
	}
	return st, nil
}

// AttachAdminRoutes mounts the debug index on mux with a tailsql console
// over the store and, for SQLite, a gzipped backup download.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB(db.driver+"://lumetrics", db.DB, &tailsql.DBOptions{
		Label: "LU metrics runs",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	debug.Handle("db-stats", "Row counts of the run tables", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := db.DatabaseStats(r.Context())
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, st)
	}))

	if db.driver == DriverSQLite {
		debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.serveBackup))
	}
	return nil
}

func (db *DB) serveBackup(w http.ResponseWriter, r *http.Request) {
	dir, err := os.MkdirTemp("", "lumetrics-backup-")
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup directory: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	name := fmt.Sprintf("backup-%d.db", db.clock.Now().Unix())
	backupPath := filepath.Join(dir, name)
	if _, err := db.ExecContext(r.Context(), "VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", name))
	w.Header().Set("Content-Type", "application/gzip")

	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := io.Copy(gz, backupFile); err != nil {
		monitoring.Logf("backup copy failed: %v", err)
	}
}
