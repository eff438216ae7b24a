package stats

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

func sweepUtterances() []lu.Utterance {
	return []lu.Utterance{
		{Query: "add task", GoldIntent: lu.Str("Add"), PredIntent: lu.Str("Add"), PredIntentScore: lu.Float(0.8)},
		{Query: "add action", GoldIntent: lu.Str("Add"), PredIntent: lu.Str("Update"), PredIntentScore: lu.Float(0.9947372)},
		{Query: "remove it", GoldIntent: lu.Str("Delete"), PredIntent: lu.Str("Delete"), PredIntentScore: lu.Float(0.4)},
	}
}

func TestSweep_ZeroThresholdMatchesUnthresholded(t *testing.T) {
	t.Parallel()
	cfg := Config{LabelSet: []string{"Add", "Update", "Delete"}, LabelKey: lu.LabelKeyIntent}
	points, err := Sweep(sweepUtterances(), []float64{0}, cfg)
	require.NoError(t, err)
	require.Len(t, points, 1)

	var recs []lu.Record
	for _, u := range sweepUtterances() {
		gold, pred := *u.GoldIntent, *u.PredIntent
		if gold == pred {
			recs = append(recs, rec(gold, "TruePositive"))
			continue
		}
		recs = append(recs, rec(gold, "FalseNegative"), rec(pred, "FalsePositive"))
	}
	want, err := Aggregate(cfg, recs)
	require.NoError(t, err)
	if diff := cmp.Diff(want, points[0].Stat); diff != "" {
		t.Errorf("t=0 sweep differs from plain aggregation (-want +got):\n%s", diff)
	}
}

func TestSweep_RejectsLowScores(t *testing.T) {
	t.Parallel()
	cfg := Config{LabelSet: []string{"Add", "Update", "Delete"}, LabelKey: lu.LabelKeyIntent}
	points, err := Sweep(sweepUtterances(), []float64{0.9, 0.5}, cfg)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0.5, points[0].Threshold, "points sorted by threshold")
	assert.Equal(t, 0.9, points[1].Threshold)

	at05 := points[0].Stat.Breakdown
	assert.Equal(t, LabelStat{TP: 1, FN: 1, NExamples: 2, Precision: 1, Recall: 0.5, F1: 2.0 / 3}, at05["Add"])
	assert.Equal(t, 1, at05["Delete"].FN, "0.4 rejected at 0.5")
	assert.Equal(t, 1, at05["Update"].FP)

	at09 := points[1].Stat.Breakdown
	assert.Equal(t, 0, at09["Add"].TP, "0.8 rejected at 0.9")
	assert.Equal(t, 2, at09["Add"].FN)
	assert.Equal(t, 1, at09["Update"].FP, "0.9947372 accepted at 0.9")

	precision, recall := Curve(points, "Add")
	assert.Equal(t, []float64{1, 0}, precision)
	assert.Equal(t, []float64{0.5, 0}, recall)
}

func TestSweep_MissingIntent(t *testing.T) {
	t.Parallel()
	utts := append(sweepUtterances(), lu.Utterance{Query: "x", PredIntent: lu.Str("Add")})
	_, err := Sweep(utts, []float64{0.5}, Config{LabelSet: []string{"Add"}, LabelKey: "Class"})
	var mf *lu.MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, 3, mf.Index)
}
