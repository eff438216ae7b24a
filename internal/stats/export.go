package stats

import "context"

// Run describes one finished aggregation handed to exporters.
type Run struct {
	// Name identifies the aggregation, e.g. "intent" in pooled mode or
	// "baseline, intent, ClassificationErrorAnalysisReport.json" per source.
	Name string
	Task string
	Mode string
	// Order is the display order of labels.
	Order []string
	Stat  *AggregateStat
}

// Exporter receives every aggregation produced by a collect-stats pass.
type Exporter interface {
	Export(ctx context.Context, runs []Run) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(ctx context.Context, runs []Run) error

// Export calls f.
func (f ExporterFunc) Export(ctx context.Context, runs []Run) error { return f(ctx, runs) }

// Labels returns the run's labels for display: those of Order present in
// the breakdown, then the remaining breakdown labels sorted.
func (r Run) Labels() []string {
	if r.Stat == nil {
		return nil
	}
	seen := make(map[string]bool, len(r.Stat.Breakdown))
	labels := make([]string, 0, len(r.Stat.Breakdown))
	for _, l := range r.Order {
		if _, ok := r.Stat.Breakdown[l]; ok && !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	for _, l := range r.Stat.Labels() {
		if !seen[l] {
			labels = append(labels, l)
		}
	}
	return labels
}
