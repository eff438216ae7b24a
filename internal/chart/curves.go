package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lu-metrics/internal/stats"
)

// SweepSeries is one source's threshold sweep.
type SweepSeries struct {
	Name   string
	Points []stats.SweepPoint
}

// CurvePlot draws, for one label, the xMetric/yMetric pair of every sweep
// point, one line per source, in threshold order.
func CurvePlot(label, xMetric, yMetric string, series []SweepSeries) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = label
	p.X.Label.Text = xMetric
	p.Y.Label.Text = yMetric
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	colors := palette(len(series))
	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, len(s.Points))
		for _, sp := range s.Points {
			ls := sp.Stat.Breakdown[label]
			x, okX := ls.Metric(xMetric)
			y, okY := ls.Metric(yMetric)
			if !okX || !okY {
				return nil, fmt.Errorf("curve %q: unknown metric %q/%q", label, xMetric, yMetric)
			}
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
		line, marks, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		marks.Color = colors[i]
		p.Add(line, marks)
		p.Legend.Add(s.Name+" threshold", line, marks)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}
