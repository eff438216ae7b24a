// Package pipeline runs the metrics stages over result directories:
// collecting label statistics, drawing charts and producing metrics from a
// predictions file.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/export"
	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/report"
	"github.com/banshee-data/lu-metrics/internal/security"
	"github.com/banshee-data/lu-metrics/internal/stats"
	"github.com/banshee-data/lu-metrics/internal/timeutil"
)

// Source is one result directory holding report files, with the
// description used to label it in outputs.
type Source struct {
	Description string
	Dir         string
}

// ParseSource parses "description=dir". A bare directory is described by
// its base name.
func ParseSource(s string) (Source, error) {
	desc, dir, ok := strings.Cut(s, "=")
	if !ok {
		dir = s
		desc = filepath.Base(filepath.Clean(s))
	}
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(desc) == "" {
		return Source{}, fmt.Errorf("invalid source %q: want description=dir", s)
	}
	return Source{Description: desc, Dir: dir}, nil
}

// checkSources rejects an empty list and descriptions shared by two
// directories, since outputs are keyed by description.
func checkSources(sources []Source) error {
	if len(sources) == 0 {
		return errors.New("no sources")
	}
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if dir, dup := seen[src.Description]; dup {
			return fmt.Errorf("sources %s and %s share the description %q; name them with description=dir", dir, src.Dir, src.Description)
		}
		seen[src.Description] = src.Dir
	}
	return nil
}

// Pipeline carries what every stage needs.
type Pipeline struct {
	FS        fsutil.FileSystem
	Options   *config.Options
	Clock     timeutil.Clock
	Exporters []stats.Exporter
}

// New returns a pipeline over fsys with the real clock and no exporters.
func New(fsys fsutil.FileSystem, opts *config.Options) *Pipeline {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	return &Pipeline{FS: fsys, Options: opts, Clock: timeutil.RealClock{}}
}

// BuildExporters returns the exporters enabled in opts. The SQL exporter
// is added only when store is non-nil; opening the store is left to the
// caller.
func BuildExporters(fsys fsutil.FileSystem, opts *config.Options, store export.RunRecorder) []stats.Exporter {
	var out []stats.Exporter
	if path := opts.GetXLSXPath(); path != "" {
		out = append(out, export.NewXLSX(fsys, path))
	}
	if path := opts.GetParquetPath(); path != "" {
		out = append(out, export.NewParquet(fsys, path))
	}
	if store != nil {
		out = append(out, export.NewSQL(store))
	}
	return out
}

func (p *Pipeline) statConfig(t *config.TaskOptions) stats.Config {
	cfg := stats.Config{LabelSet: t.LabelSet, LabelKey: t.LabelKey}
	if p.Options.GetTotals() {
		cfg.Totals = stats.MicroMacro
	}
	return cfg
}

// readReport loads one report file of a source. The file must resolve
// inside the source directory.
func (p *Pipeline) readReport(src Source, file string) ([]lu.Record, error) {
	path := filepath.Join(src.Dir, file)
	if err := security.ValidatePathWithinDirectory(path, src.Dir); err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Description, err)
	}
	return report.ReadRecords(p.FS, path)
}

// sourceStat pools every report file of one source.
func (p *Pipeline) sourceStat(src Source, t *config.TaskOptions) (*stats.AggregateStat, error) {
	batches := make([][]lu.Record, 0, len(t.Files))
	for _, file := range t.Files {
		recs, err := p.readReport(src, file)
		if err != nil {
			return nil, err
		}
		batches = append(batches, recs)
	}
	st, err := stats.Aggregate(p.statConfig(t), batches...)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Description, err)
	}
	return st, nil
}
