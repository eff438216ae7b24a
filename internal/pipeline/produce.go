package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/luis"
	"github.com/banshee-data/lu-metrics/internal/report"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// MetricsSource describes outDir when ProduceMetrics aggregates it.
const MetricsSource = "metrics"

// ImportPredictions builds predictions.json in outDir from a LUIS model,
// the gold test set and the prediction log, and returns its path.
func (p *Pipeline) ImportPredictions(modelPath, goldPath, logPath, outDir string) (string, error) {
	model, err := luis.LoadModel(p.FS, modelPath)
	if err != nil {
		return "", err
	}
	gold, err := luis.LoadGold(p.FS, goldPath)
	if err != nil {
		return "", err
	}
	entries, err := luis.LoadLog(p.FS, logPath)
	if err != nil {
		return "", err
	}
	return luis.WritePredictions(p.FS, outDir, luis.BuildPredictions(model, gold, entries))
}

// ProduceMetrics converts predictionsPath into the two confusion reports in
// outDir and collects their statistics with label sets taken from the
// model at modelPath. Export settings of the pipeline options are kept.
func (p *Pipeline) ProduceMetrics(ctx context.Context, predictionsPath, outDir, modelPath string) ([]stats.Run, error) {
	model, err := luis.LoadModel(p.FS, modelPath)
	if err != nil {
		return nil, fmt.Errorf("produce metrics: %w", err)
	}
	if _, err := report.Convert(p.FS, predictionsPath, outDir, report.Targets{}); err != nil {
		return nil, fmt.Errorf("produce metrics: %w", err)
	}

	opts := config.ForModel(luis.ModelIntents(model), luis.ModelEntities(model))
	opts.Export = p.Options.Export
	q := *p
	q.Options = opts
	return q.CollectStats(ctx, []Source{{Description: MetricsSource, Dir: outDir}}, outDir)
}
