// Package chart draws metric charts: PNG bar charts and threshold curves
// with gonum/plot, and HTML confusion heatmaps and dashboards with
// go-echarts.
package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// Series is one named aggregation drawn alongside others, typically one per
// source directory.
type Series struct {
	Name string
	Stat *stats.AggregateStat
}

// BarPlot builds a grouped bar chart of one metric: a group per label and a
// bar per series. Labels missing from a series draw as zero.
func BarPlot(title, metric string, labels []string, series []Series) (*plot.Plot, error) {
	if len(labels) == 0 || len(series) == 0 {
		return nil, fmt.Errorf("bar plot %q: no labels or series", title)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = metric
	p.Y.Min, p.Y.Max = 0, 1
	p.NominalX(labels...)

	width := vg.Points(40 / float64(len(series)))
	colors := palette(len(series))
	for i, s := range series {
		vals := make(plotter.Values, len(labels))
		for j, l := range labels {
			v, ok := s.Stat.Breakdown[l].Metric(metric)
			if !ok {
				return nil, fmt.Errorf("bar plot %q: unknown metric %q", title, metric)
			}
			vals[j] = v
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return nil, err
		}
		bars.Color = colors[i]
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(len(series)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePNG renders p into path through fsys.
func SavePNG(fsys fsutil.FileSystem, p *plot.Plot, path string) error {
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	monitoring.Written(path)
	return nil
}
