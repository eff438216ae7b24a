package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lu-metrics/internal/stats"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is the header row of a stored aggregation.
type Run struct {
	ID        string    `json:"run_id"`
	Name      string    `json:"name"`
	Task      string    `json:"task"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// LabelRow is one stored label of a run, in display position order.
type LabelRow struct {
	Label string `json:"label"`
	stats.LabelStat
}

// RecordRun stores one aggregation with a fresh run id. Labels are stored
// in r.Order first, then any remaining breakdown labels in sorted order.
func (db *DB) RecordRun(ctx context.Context, r stats.Run) (*Run, error) {
	if r.Stat == nil {
		return nil, fmt.Errorf("record run %q: no aggregation", r.Name)
	}
	run := &Run{
		ID:        uuid.New().String(),
		Name:      r.Name,
		Task:      r.Task,
		Mode:      r.Mode,
		CreatedAt: db.clock.Now().UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.rebind(`
		INSERT INTO stat_runs (run_id, name, task, mode, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		run.ID, run.Name, run.Task, run.Mode, run.CreatedAt.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	insertLabel := db.rebind(`
		INSERT INTO label_stats (
			run_id, position, label, tp, fp, fn, n_examples, precision, recall, f1
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, label := range r.Labels() {
		ls := r.Stat.Breakdown[label]
		if _, err := tx.ExecContext(ctx, insertLabel,
			run.ID, i, label, ls.TP, ls.FP, ls.FN, ls.NExamples, ls.Precision, ls.Recall, ls.F1,
		); err != nil {
			return nil, fmt.Errorf("insert label %s: %w", label, err)
		}
	}

	if t := r.Stat.Total; t != nil {
		if _, err := tx.ExecContext(ctx, db.rebind(`
			INSERT INTO run_totals (
				run_id, tp, fp, fn, n_examples,
				micro_precision, micro_recall, micro_f1,
				macro_precision, macro_recall, macro_f1
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			run.ID, t.TP, t.FP, t.FN, t.NExamples,
			t.MicroPrecision, t.MicroRecall, t.MicroF1,
			t.MacroPrecision, t.MacroRecall, t.MacroF1,
		); err != nil {
			return nil, fmt.Errorf("insert totals: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, name, task, mode, created_at FROM stat_runs ORDER BY created_at DESC, name`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run header, or ErrRunNotFound.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := db.QueryRowContext(ctx, db.rebind(`
		SELECT run_id, name, task, mode, created_at FROM stat_runs WHERE run_id = ?`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run       Run
		createdAt int64
	)
	if err := s.Scan(&run.ID, &run.Name, &run.Task, &run.Mode, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return &run, nil
}

// LabelStats returns the stored labels of a run in display order.
func (db *DB) LabelStats(ctx context.Context, id string) ([]LabelRow, error) {
	if _, err := db.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT label, tp, fp, fn, n_examples, precision, recall, f1
		FROM label_stats WHERE run_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("query label stats: %w", err)
	}
	defer rows.Close()

	var out []LabelRow
	for rows.Next() {
		var lr LabelRow
		if err := rows.Scan(&lr.Label, &lr.TP, &lr.FP, &lr.FN, &lr.NExamples, &lr.Precision, &lr.Recall, &lr.F1); err != nil {
			return nil, fmt.Errorf("scan label stat: %w", err)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

// Totals returns the stored totals of a run, or nil when the run was
// aggregated without totals.
func (db *DB) Totals(ctx context.Context, id string) (*stats.Totals, error) {
	var t stats.Totals
	err := db.QueryRowContext(ctx, db.rebind(`
		SELECT tp, fp, fn, n_examples,
		       micro_precision, micro_recall, micro_f1,
		       macro_precision, macro_recall, macro_f1
		FROM run_totals WHERE run_id = ?`), id).Scan(
		&t.TP, &t.FP, &t.FN, &t.NExamples,
		&t.MicroPrecision, &t.MicroRecall, &t.MicroF1,
		&t.MacroPrecision, &t.MacroRecall, &t.MacroF1,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan totals: %w", err)
	}
	return &t, nil
}

// Stat rebuilds the aggregation of a stored run together with its label
// display order.
func (db *DB) Stat(ctx context.Context, id string) (*stats.AggregateStat, []string, error) {
	rows, err := db.LabelStats(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	total, err := db.Totals(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	st := &stats.AggregateStat{Breakdown: make(map[string]stats.LabelStat, len(rows)), Total: total}
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		st.Breakdown[r.Label] = r.LabelStat
		order = append(order, r.Label)
	}
	return st, order, nil
}
