package stats

import (
	"fmt"
	"sort"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

// SweepPoint is the aggregation of intent judgements at one score
// threshold.
type SweepPoint struct {
	Threshold float64        `json:"threshold"`
	Stat      *AggregateStat `json:"stat"`
}

// Sweep re-judges the intents of utts at each threshold. A prediction whose
// score is at least the threshold is judged as usual; a lower-scoring one is
// rejected and counts only as a FalseNegative for the gold intent.
// Utterances without a score carry -1 and are rejected at any threshold
// above it. Points are returned in ascending threshold order.
func Sweep(utts []lu.Utterance, thresholds []float64, cfg Config) ([]SweepPoint, error) {
	ts := append([]float64(nil), thresholds...)
	sort.Float64s(ts)

	points := make([]SweepPoint, 0, len(ts))
	for _, t := range ts {
		recs, err := thresholdRecords(utts, t)
		if err != nil {
			return nil, err
		}
		st, err := Aggregate(cfg, recs)
		if err != nil {
			return nil, fmt.Errorf("threshold %v: %w", t, err)
		}
		points = append(points, SweepPoint{Threshold: t, Stat: st})
	}
	return points, nil
}

func thresholdRecords(utts []lu.Utterance, t float64) ([]lu.Record, error) {
	recs := make([]lu.Record, 0, len(utts))
	for i, u := range utts {
		if u.GoldIntent == nil {
			return nil, &lu.MissingFieldError{Index: i, Field: "gold_intent", Context: u.Query}
		}
		if u.PredIntent == nil {
			return nil, &lu.MissingFieldError{Index: i, Field: "pred_intent", Context: u.Query}
		}
		id := fmt.Sprint(i)
		score := lu.Float(u.IntentScore())
		gold, pred := *u.GoldIntent, *u.PredIntent
		row := func(ct lu.ConfusionType, class string) lu.Record {
			return lu.IntentRow{DocumentId: id, ConfusionType: ct, Class: class, Score: score, Text: u.Query}.Record()
		}
		switch {
		case *score < t:
			recs = append(recs, row(lu.FalseNegative, gold))
		case gold == pred:
			recs = append(recs, row(lu.TruePositive, gold))
		default:
			recs = append(recs, row(lu.FalseNegative, gold), row(lu.FalsePositive, pred))
		}
	}
	return recs, nil
}

// Curve extracts one label's precision and recall across sweep points, in
// point order.
func Curve(points []SweepPoint, label string) (precision, recall []float64) {
	for _, p := range points {
		ls := p.Stat.Breakdown[label]
		precision = append(precision, ls.Precision)
		recall = append(recall, ls.Recall)
	}
	return precision, recall
}
