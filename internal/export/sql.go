package export

import (
	"context"
	"fmt"

	"github.com/banshee-data/lu-metrics/internal/db"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// RunRecorder stores one run. *db.DB implements it.
type RunRecorder interface {
	RecordRun(ctx context.Context, r stats.Run) (*db.Run, error)
}

// SQL records every run in the store.
type SQL struct {
	Store RunRecorder
}

// NewSQL returns an exporter over store.
func NewSQL(store RunRecorder) *SQL {
	return &SQL{Store: store}
}

// Export implements stats.Exporter. Runs are stored one by one; the first
// failure stops the export.
func (s *SQL) Export(ctx context.Context, runs []stats.Run) error {
	for _, r := range runs {
		stored, err := s.Store.RecordRun(ctx, r)
		if err != nil {
			return fmt.Errorf("store run %q: %w", r.Name, err)
		}
		monitoring.Logf("run %s stored as %s", r.Name, stored.ID)
	}
	return nil
}
