package report

import (
	"fmt"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
)

// Targets restricts which labels the reporters consider. A nil set means
// every label.
type Targets struct {
	Intents  map[string]bool
	Entities map[string]bool
}

// Result holds both reports produced by Convert.
type Result struct {
	Intents  []lu.IntentRow
	Entities []lu.EntityRow
}

// Convert reads predictionsPath, builds the intent and entity reports and
// writes all four report files into outDir. Both reports are fully built
// and encoded before any file is written, so a failure leaves outDir
// untouched.
func Convert(fsys fsutil.FileSystem, predictionsPath, outDir string, targets Targets) (*Result, error) {
	preds, err := ReadPredictions(fsys, predictionsPath)
	if err != nil {
		return nil, err
	}
	res, err := Build(preds.Utterances, targets)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", predictionsPath, err)
	}

	intentArts, err := encodeIntentReport(res.Intents)
	if err != nil {
		return nil, err
	}
	entityArts, err := encodeEntityReport(res.Entities)
	if err != nil {
		return nil, err
	}
	if err := writeArtifacts(fsys, outDir, append(intentArts, entityArts...)); err != nil {
		return nil, err
	}
	return res, nil
}

// Build runs both reporters over utts without touching the filesystem.
func Build(utts []lu.Utterance, targets Targets) (*Result, error) {
	intents, err := IntentReport(utts, targets.Intents)
	if err != nil {
		return nil, err
	}
	return &Result{
		Intents:  intents,
		Entities: EntityReport(utts, targets.Entities),
	}, nil
}
