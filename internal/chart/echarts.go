package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lu-metrics/internal/stats"
)

// AssetsHost serves the echarts javascript for rendered pages.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var heatColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ConfusionHeatmap renders an intent confusion matrix with gold intents on
// the y axis and predicted intents on the x axis.
func ConfusionHeatmap(title string, m *stats.Matrix) *charts.HeatMap {
	data := make([]opts.HeatMapData, 0, len(m.Rows)*len(m.Cols))
	maxCount := 0
	for i := range m.Rows {
		for j := range m.Cols {
			n := m.Counts[i][j]
			if n > maxCount {
				maxCount = n
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, n}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "700px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("gold=%d predicted=%d", len(m.Rows), len(m.Cols))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Predicted", NameLocation: "middle", NameGap: 30, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: m.Rows, Name: "Gold", NameLocation: "middle", NameGap: 120, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			InRange:    &opts.VisualMapInRange{Color: heatColors},
		}),
	)
	hm.SetXAxis(m.Cols).AddSeries("confusion", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return hm
}

// StatBar renders precision, recall and F1 per label of one aggregation as
// grouped bars. Labels absent from the breakdown are left out.
func StatBar(title, subtitle string, st *stats.AggregateStat, order []string) *charts.Bar {
	var labels []string
	series := make(map[string][]opts.BarData, len(stats.Metrics))
	for _, l := range order {
		ls, ok := st.Breakdown[l]
		if !ok {
			continue
		}
		labels = append(labels, l)
		for _, name := range stats.Metrics {
			v, _ := ls.Metric(name)
			series[name] = append(series[name], opts.BarData{Value: v})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(labels)
	for _, name := range stats.Metrics {
		bar.AddSeries(name, series[name])
	}
	return bar
}

// RenderPage writes the charts as one HTML page.
func RenderPage(w io.Writer, title string, items ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(items...)
	return page.Render(w)
}
