package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

// ExamplePath is the checked-in example options file.
const ExamplePath = "config/lumetrics.example.yaml"

// Aggregation modes for collect-stats.
const (
	ModePooled    = "pooled"
	ModePerSource = "per_source"
)

// Task names.
const (
	TaskIntent = "intent"
	TaskEntity = "entity"
)

// Options is the root configuration of a metrics run. Pointer fields are
// optional; the Get* methods supply the defaults for anything left unset,
// so partial files are safe.
type Options struct {
	CollectStat *CollectStatOptions `json:"collect_stat,omitempty" yaml:"collect_stat,omitempty"`
	Plot        *PlotOptions        `json:"plot,omitempty" yaml:"plot,omitempty"`
	Export      *ExportOptions      `json:"export,omitempty" yaml:"export,omitempty"`
}

// TaskOptions configures aggregation of one task's report files.
type TaskOptions struct {
	Files           []string `json:"files,omitempty" yaml:"files,omitempty"`
	LabelSet        []string `json:"label_set,omitempty" yaml:"label_set,omitempty"`
	LabelKey        string   `json:"label_key,omitempty" yaml:"label_key,omitempty"`
	PrintLabelOrder []string `json:"print_label_order,omitempty" yaml:"print_label_order,omitempty"`
}

// CollectStatOptions configures the collect-stats stage.
type CollectStatOptions struct {
	Enable    *bool        `json:"enable,omitempty" yaml:"enable,omitempty"`
	Mode      *string      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Totals    *bool        `json:"totals,omitempty" yaml:"totals,omitempty"`
	Counts    *bool        `json:"counts,omitempty" yaml:"counts,omitempty"`
	Timestamp *bool        `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Intent    *TaskOptions `json:"intent,omitempty" yaml:"intent,omitempty"`
	Entity    *TaskOptions `json:"entity,omitempty" yaml:"entity,omitempty"`
}

// PlotOptions switches the individual charts of the plot stage.
type PlotOptions struct {
	Bars       *bool     `json:"bars,omitempty" yaml:"bars,omitempty"`
	Curves     *bool     `json:"curves,omitempty" yaml:"curves,omitempty"`
	Confusion  *bool     `json:"confusion,omitempty" yaml:"confusion,omitempty"`
	Dashboard  *bool     `json:"dashboard,omitempty" yaml:"dashboard,omitempty"`
	Thresholds []float64 `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	XAxis      *string   `json:"x_axis,omitempty" yaml:"x_axis,omitempty"`
	YAxis      *string   `json:"y_axis,omitempty" yaml:"y_axis,omitempty"`
}

// ExportOptions names optional export targets. An empty path disables the
// corresponding exporter.
type ExportOptions struct {
	XLSX     *string          `json:"xlsx,omitempty" yaml:"xlsx,omitempty"`
	Parquet  *string          `json:"parquet,omitempty" yaml:"parquet,omitempty"`
	Database *DatabaseOptions `json:"database,omitempty" yaml:"database,omitempty"`
}

// DatabaseOptions selects the results store.
type DatabaseOptions struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// Load reads options from a .json, .yaml or .yml file and validates them.
func Load(path string) (*Options, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	opts := &Options{}
	if ext == ".json" {
		err = json.Unmarshal(data, opts)
	} else {
		err = yaml.Unmarshal(data, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}

// Validate checks the values that are set.
func (o *Options) Validate() error {
	if cs := o.CollectStat; cs != nil {
		if cs.Mode != nil && *cs.Mode != ModePooled && *cs.Mode != ModePerSource {
			return fmt.Errorf("collect_stat.mode must be %q or %q, got %q", ModePooled, ModePerSource, *cs.Mode)
		}
		for name, task := range map[string]*TaskOptions{TaskIntent: cs.Intent, TaskEntity: cs.Entity} {
			if task == nil {
				continue
			}
			if task.LabelKey != "" && task.LabelKey != lu.LabelKeyIntent && task.LabelKey != lu.LabelKeyEntity {
				return fmt.Errorf("collect_stat.%s.label_key must be %q or %q, got %q", name, lu.LabelKeyIntent, lu.LabelKeyEntity, task.LabelKey)
			}
		}
	}
	if p := o.Plot; p != nil {
		for _, t := range p.Thresholds {
			if t < 0 || t > 1 {
				return fmt.Errorf("plot.thresholds must be between 0 and 1, got %v", t)
			}
		}
		for name, axis := range map[string]*string{"x_axis": p.XAxis, "y_axis": p.YAxis} {
			if axis != nil && !validAxis(*axis) {
				return fmt.Errorf("plot.%s must be Precision, Recall or F1, got %q", name, *axis)
			}
		}
	}
	if e := o.Export; e != nil && e.Database != nil {
		if e.Database.Driver != "sqlite" && e.Database.Driver != "pgx" {
			return fmt.Errorf("export.database.driver must be sqlite or pgx, got %q", e.Database.Driver)
		}
		if e.Database.DSN == "" {
			return fmt.Errorf("export.database.dsn is required")
		}
	}
	return nil
}

func validAxis(a string) bool {
	return a == "Precision" || a == "Recall" || a == "F1"
}

// GetCollectStatEnable reports whether collect-stats runs. Default true.
func (o *Options) GetCollectStatEnable() bool {
	if o.CollectStat == nil || o.CollectStat.Enable == nil {
		return true
	}
	return *o.CollectStat.Enable
}

// GetMode returns the aggregation mode. Default pooled.
func (o *Options) GetMode() string {
	if o.CollectStat == nil || o.CollectStat.Mode == nil {
		return ModePooled
	}
	return *o.CollectStat.Mode
}

// GetTotals reports whether micro/macro totals are computed. Default true.
func (o *Options) GetTotals() bool {
	if o.CollectStat == nil || o.CollectStat.Totals == nil {
		return true
	}
	return *o.CollectStat.Totals
}

// GetCounts reports whether the text table carries Tp/Fp/Fn. Default true.
func (o *Options) GetCounts() bool {
	if o.CollectStat == nil || o.CollectStat.Counts == nil {
		return true
	}
	return *o.CollectStat.Counts
}

// GetTimestamp reports whether the text table carries a Timestamp column.
// Default false.
func (o *Options) GetTimestamp() bool {
	if o.CollectStat == nil || o.CollectStat.Timestamp == nil {
		return false
	}
	return *o.CollectStat.Timestamp
}

// Task returns the options of the named task, or nil when it is not
// configured. The files default to the task's report file, the label key
// defaults from the task name and the print order defaults to the sorted
// label set.
func (o *Options) Task(name string) *TaskOptions {
	if o.CollectStat == nil {
		return nil
	}
	var t *TaskOptions
	switch name {
	case TaskIntent:
		t = o.CollectStat.Intent
	case TaskEntity:
		t = o.CollectStat.Entity
	}
	if t == nil {
		return nil
	}
	out := *t
	if len(out.Files) == 0 {
		out.Files = []string{IntentReportFile}
		if name == TaskEntity {
			out.Files = []string{EntityReportFile}
		}
	}
	if out.LabelKey == "" {
		out.LabelKey = lu.LabelKeyIntent
		if name == TaskEntity {
			out.LabelKey = lu.LabelKeyEntity
		}
	}
	if len(out.PrintLabelOrder) == 0 {
		out.PrintLabelOrder = append([]string(nil), out.LabelSet...)
		sort.Strings(out.PrintLabelOrder)
	}
	return &out
}

func (o *Options) plotFlag(get func(*PlotOptions) *bool) bool {
	if o.Plot == nil {
		return true
	}
	if v := get(o.Plot); v != nil {
		return *v
	}
	return true
}

// GetBars reports whether precision/recall/F1 bar charts are drawn. Default true.
func (o *Options) GetBars() bool { return o.plotFlag(func(p *PlotOptions) *bool { return p.Bars }) }

// GetCurves reports whether threshold curves are drawn. Default true.
func (o *Options) GetCurves() bool { return o.plotFlag(func(p *PlotOptions) *bool { return p.Curves }) }

// GetConfusion reports whether the confusion heatmap is drawn. Default true.
func (o *Options) GetConfusion() bool {
	return o.plotFlag(func(p *PlotOptions) *bool { return p.Confusion })
}

// GetDashboard reports whether the HTML dashboard is rendered. Default true.
func (o *Options) GetDashboard() bool {
	return o.plotFlag(func(p *PlotOptions) *bool { return p.Dashboard })
}

// GetThresholds returns the sweep thresholds. Default 0, 0.5, 0.8, 0.9.
func (o *Options) GetThresholds() []float64 {
	if o.Plot == nil || len(o.Plot.Thresholds) == 0 {
		return []float64{0, 0.5, 0.8, 0.9}
	}
	return o.Plot.Thresholds
}

// GetXAxis returns the curve x metric. Default Precision.
func (o *Options) GetXAxis() string {
	if o.Plot == nil || o.Plot.XAxis == nil {
		return "Precision"
	}
	return *o.Plot.XAxis
}

// GetYAxis returns the curve y metric. Default Recall.
func (o *Options) GetYAxis() string {
	if o.Plot == nil || o.Plot.YAxis == nil {
		return "Recall"
	}
	return *o.Plot.YAxis
}

// GetXLSXPath returns the spreadsheet export path, empty when disabled.
func (o *Options) GetXLSXPath() string {
	if o.Export == nil || o.Export.XLSX == nil {
		return ""
	}
	return *o.Export.XLSX
}

// GetParquetPath returns the parquet export path, empty when disabled.
func (o *Options) GetParquetPath() string {
	if o.Export == nil || o.Export.Parquet == nil {
		return ""
	}
	return *o.Export.Parquet
}

// GetDatabase returns the results store settings, nil when disabled.
func (o *Options) GetDatabase() *DatabaseOptions {
	if o.Export == nil {
		return nil
	}
	return o.Export.Database
}
