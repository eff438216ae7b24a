// Package export writes aggregation runs to spreadsheets, Parquet files and
// the SQL store.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

const maxSheetName = 31

var labelHeader = []interface{}{"Label", "TP", "FP", "FN", "NExamples", "Precision", "Recall", "F1"}

// XLSX writes every run to its own sheet of one workbook.
type XLSX struct {
	FS   fsutil.FileSystem
	Path string
}

// NewXLSX returns an XLSX exporter writing path through fsys.
func NewXLSX(fsys fsutil.FileSystem, path string) *XLSX {
	return &XLSX{FS: fsys, Path: path}
}

// Export implements stats.Exporter.
func (x *XLSX) Export(_ context.Context, runs []stats.Run) error {
	if len(runs) == 0 {
		return nil
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	used := make(map[string]bool, len(runs))
	for i, r := range runs {
		sheet := sheetName(r.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("xlsx sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx sheet %q: %w", sheet, err)
		}
		if err := writeRunSheet(f, sheet, r, bold); err != nil {
			return fmt.Errorf("xlsx sheet %q: %w", sheet, err)
		}
	}

	w, err := x.FS.Create(x.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", x.Path, err)
	}
	if _, err := f.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", x.Path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", x.Path, err)
	}
	monitoring.Written(x.Path)
	return nil
}

func writeRunSheet(f *excelize.File, sheet string, r stats.Run, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Run", r.Name, "Task", r.Task, "Mode", r.Mode}); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A3", &labelHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A3", "H3", headerStyle); err != nil {
		return err
	}

	row := 4
	for _, label := range r.Labels() {
		ls := r.Stat.Breakdown[label]
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{
			label, ls.TP, ls.FP, ls.FN, ls.NExamples, ls.Precision, ls.Recall, ls.F1,
		}); err != nil {
			return err
		}
		row++
	}

	t := r.Stat.Total
	if t == nil {
		return nil
	}
	micro, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, micro, &[]interface{}{
		"MICRO", t.TP, t.FP, t.FN, t.NExamples, t.MicroPrecision, t.MicroRecall, t.MicroF1,
	}); err != nil {
		return err
	}
	macro, _ := excelize.CoordinatesToCellName(1, row+1)
	if err := f.SetSheetRow(sheet, macro, &[]interface{}{
		"MACRO", nil, nil, nil, nil, t.MacroPrecision, t.MacroRecall, t.MacroF1,
	}); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(1, row+1)
	return f.SetCellStyle(sheet, micro, last, headerStyle)
}

// sheetName turns a run name into a unique Excel sheet name. Excel
// compares sheet names case-insensitively, so used is keyed by lower case.
func sheetName(name string, index int, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(name, "'"))
	if clean == "" {
		clean = "run"
	}
	s := truncateRunes(clean, maxSheetName)
	for n := index + 1; used[strings.ToLower(s)]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		s = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(s)] = true
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
