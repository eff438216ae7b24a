package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/banshee-data/lu-metrics/internal/chart"
	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/luis"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/report"
	"github.com/banshee-data/lu-metrics/internal/security"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// Chart output names.
const (
	ConfusionPage = "confusion_intent.html"
	DashboardPage = "dashboard.html"
)

// BarsFile names the bar chart of one task and metric.
func BarsFile(task, metric string) string {
	return fmt.Sprintf("bars_%s_%s.png", task, strings.ToLower(metric))
}

// CurveFile names the threshold curve of one intent.
func CurveFile(label string) string {
	return "curve_intent_" + security.SanitizeFilename(label) + ".png"
}

// Plot draws the charts enabled in the plot options into outDir: per-task
// bar charts comparing the sources, per-intent threshold curves from each
// source's predictions.json, the intent confusion heatmaps and a dashboard
// page.
func (p *Pipeline) Plot(ctx context.Context, sources []Source, outDir string) error {
	if err := checkSources(sources); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := p.FS.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outDir, err)
	}

	series := make(map[string][]chart.Series, len(Tasks))
	for _, task := range Tasks {
		t := p.Options.Task(task)
		if t == nil {
			continue
		}
		for _, src := range sources {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := p.sourceStat(src, t)
			if err != nil {
				return fmt.Errorf("plot %s: %w", task, err)
			}
			series[task] = append(series[task], chart.Series{Name: src.Description, Stat: st})
		}
	}

	if p.Options.GetBars() {
		if err := p.plotBars(outDir, series); err != nil {
			return err
		}
	}
	if p.Options.GetCurves() {
		if err := p.plotCurves(ctx, sources, outDir); err != nil {
			return err
		}
	}
	if p.Options.GetConfusion() {
		if err := p.plotConfusion(sources, outDir); err != nil {
			return err
		}
	}
	if p.Options.GetDashboard() {
		if err := p.plotDashboard(outDir, series); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) plotBars(outDir string, series map[string][]chart.Series) error {
	for _, task := range Tasks {
		t := p.Options.Task(task)
		if t == nil || len(t.PrintLabelOrder) == 0 {
			continue
		}
		for _, metric := range stats.Metrics {
			plt, err := chart.BarPlot(task+" "+metric, metric, t.PrintLabelOrder, series[task])
			if err != nil {
				return err
			}
			if err := chart.SavePNG(p.FS, plt, filepath.Join(outDir, BarsFile(task, metric))); err != nil {
				return err
			}
		}
	}
	return nil
}

// plotCurves sweeps the intent thresholds of every source that carries a
// predictions file. Sources without one are skipped.
func (p *Pipeline) plotCurves(ctx context.Context, sources []Source, outDir string) error {
	t := p.Options.Task(config.TaskIntent)
	if t == nil {
		return nil
	}
	var sweeps []chart.SweepSeries
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(src.Dir, luis.PredictionsFile)
		if !p.FS.Exists(path) {
			monitoring.Skipped(src.Description, "no "+luis.PredictionsFile+" for threshold curves")
			continue
		}
		preds, err := report.ReadPredictions(p.FS, path)
		if err != nil {
			return err
		}
		points, err := stats.Sweep(preds.Utterances, p.Options.GetThresholds(), p.statConfig(t))
		if err != nil {
			return fmt.Errorf("sweep %s: %w", src.Description, err)
		}
		sweeps = append(sweeps, chart.SweepSeries{Name: src.Description, Points: points})
	}
	if len(sweeps) == 0 {
		return nil
	}
	for _, label := range t.PrintLabelOrder {
		plt, err := chart.CurvePlot(label, p.Options.GetXAxis(), p.Options.GetYAxis(), sweeps)
		if err != nil {
			return err
		}
		if err := chart.SavePNG(p.FS, plt, filepath.Join(outDir, CurveFile(label))); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) plotConfusion(sources []Source, outDir string) error {
	t := p.Options.Task(config.TaskIntent)
	if t == nil {
		return nil
	}
	var items []components.Charter
	for _, src := range sources {
		for _, file := range t.Files {
			recs, err := p.readReport(src, file)
			if err != nil {
				return err
			}
			m, err := stats.IntentConfusion(recs)
			if err != nil {
				return fmt.Errorf("confusion %s: %w", src.Description, err)
			}
			items = append(items, chart.ConfusionHeatmap(fmt.Sprintf("%s, %s, %s", src.Description, config.TaskIntent, file), m))
		}
	}
	if len(items) == 0 {
		return nil
	}
	return p.renderPage(filepath.Join(outDir, ConfusionPage), "Intent confusion", items)
}

func (p *Pipeline) plotDashboard(outDir string, series map[string][]chart.Series) error {
	var items []components.Charter
	for _, task := range Tasks {
		t := p.Options.Task(task)
		if t == nil {
			continue
		}
		for _, s := range series[task] {
			items = append(items, chart.StatBar(s.Name, task, s.Stat, t.PrintLabelOrder))
		}
	}
	if len(items) == 0 {
		return nil
	}
	return p.renderPage(filepath.Join(outDir, DashboardPage), "LU metrics", items)
}

func (p *Pipeline) renderPage(path, title string, items []components.Charter) error {
	w, err := p.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := chart.RenderPage(w, title, items...); err != nil {
		w.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	monitoring.Written(path)
	return nil
}
