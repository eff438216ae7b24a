package export

import (
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// Row kinds in the Parquet output.
const (
	KindLabel = "label"
	KindMicro = "micro"
	KindMacro = "macro"
)

// LabelRecord is one flattened row of the Parquet export. Totals are
// written as rows of kind micro and macro with an empty label.
type LabelRecord struct {
	Run       string  `parquet:"run"`
	Task      string  `parquet:"task"`
	Mode      string  `parquet:"mode"`
	Kind      string  `parquet:"kind"`
	Label     string  `parquet:"label,optional"`
	TP        int64   `parquet:"tp"`
	FP        int64   `parquet:"fp"`
	FN        int64   `parquet:"fn"`
	NExamples int64   `parquet:"n_examples"`
	Precision float64 `parquet:"precision"`
	Recall    float64 `parquet:"recall"`
	F1        float64 `parquet:"f1"`
}

// Parquet writes all runs as flattened label rows into one file.
type Parquet struct {
	FS   fsutil.FileSystem
	Path string
}

// NewParquet returns a Parquet exporter writing path through fsys.
func NewParquet(fsys fsutil.FileSystem, path string) *Parquet {
	return &Parquet{FS: fsys, Path: path}
}

// Records flattens runs into Parquet rows in run and label display order.
func Records(runs []stats.Run) []LabelRecord {
	var rows []LabelRecord
	for _, r := range runs {
		if r.Stat == nil {
			continue
		}
		base := LabelRecord{Run: r.Name, Task: r.Task, Mode: r.Mode}
		for _, label := range r.Labels() {
			ls := r.Stat.Breakdown[label]
			row := base
			row.Kind = KindLabel
			row.Label = label
			row.TP, row.FP, row.FN, row.NExamples = int64(ls.TP), int64(ls.FP), int64(ls.FN), int64(ls.NExamples)
			row.Precision, row.Recall, row.F1 = ls.Precision, ls.Recall, ls.F1
			rows = append(rows, row)
		}
		if t := r.Stat.Total; t != nil {
			micro := base
			micro.Kind = KindMicro
			micro.TP, micro.FP, micro.FN, micro.NExamples = int64(t.TP), int64(t.FP), int64(t.FN), int64(t.NExamples)
			micro.Precision, micro.Recall, micro.F1 = t.MicroPrecision, t.MicroRecall, t.MicroF1
			macro := micro
			macro.Kind = KindMacro
			macro.Precision, macro.Recall, macro.F1 = t.MacroPrecision, t.MacroRecall, t.MacroF1
			rows = append(rows, micro, macro)
		}
	}
	return rows
}

// Export implements stats.Exporter.
func (p *Parquet) Export(_ context.Context, runs []stats.Run) error {
	rows := Records(runs)
	if len(rows) == 0 {
		return nil
	}
	file, err := p.FS.Create(p.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.Path, err)
	}
	writer := parquet.NewGenericWriter[LabelRecord](file)
	if _, err := writer.Write(rows); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", p.Path, err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("flush %s: %w", p.Path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p.Path, err)
	}
	monitoring.Written(p.Path)
	return nil
}
