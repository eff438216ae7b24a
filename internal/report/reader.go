package report

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
)

// ReadPredictions loads a predictions.json dataset.
func ReadPredictions(fsys fsutil.FileSystem, path string) (*lu.Predictions, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	var p lu.Predictions
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse predictions %s: %w", path, err)
	}
	return &p, nil
}

// ReadRecords loads a confusion report JSON array as loosely-typed records
// so that the aggregator can detect missing fields.
func ReadRecords(fsys fsutil.FileSystem, path string) ([]lu.Record, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var recs []lu.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return recs, nil
}
