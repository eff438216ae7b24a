// Package stats aggregates confusion reports into per-label precision,
// recall and F1 with optional micro and macro totals.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

// LabelStat holds the confusion counts of one label and the metrics derived
// from them. Values are only produced by newLabelStat so the derived fields
// always agree with the counts.
type LabelStat struct {
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	TP        int     `json:"tp"`
	NExamples int     `json:"n_examples"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Metric returns the named metric: "Precision", "Recall" or "F1".
func (l LabelStat) Metric(name string) (float64, bool) {
	switch name {
	case "Precision":
		return l.Precision, true
	case "Recall":
		return l.Recall, true
	case "F1":
		return l.F1, true
	}
	return 0, false
}

// Metrics lists the names accepted by LabelStat.Metric in display order.
var Metrics = []string{"Precision", "Recall", "F1"}

func newLabelStat(tp, fp, fn int) LabelStat {
	p := ratio(float64(tp), float64(tp+fp))
	r := ratio(float64(tp), float64(tp+fn))
	return LabelStat{
		FP:        fp,
		FN:        fn,
		TP:        tp,
		NExamples: tp + fn,
		Precision: p,
		Recall:    r,
		F1:        f1(p, r),
	}
}

// ratio returns a/b, or 0 when b is zero.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0.0
	}
	return a / b
}

func f1(p, r float64) float64 {
	return ratio(2*p*r, p+r)
}

// Totals summarises a breakdown across labels. Micro metrics come from the
// pooled counts; macro precision and recall are the means of the per-label
// values and macro F1 is computed from those means.
type Totals struct {
	TP             int     `json:"tp"`
	FP             int     `json:"fp"`
	FN             int     `json:"fn"`
	NExamples      int     `json:"n_examples"`
	MicroPrecision float64 `json:"micro_precision"`
	MicroRecall    float64 `json:"micro_recall"`
	MicroF1        float64 `json:"micro_f1"`
	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`
	MacroF1        float64 `json:"macro_f1"`
}

// TotalsFunc derives a totals block from a finished breakdown. A nil
// TotalsFunc means no totals are reported.
type TotalsFunc func(breakdown map[string]LabelStat) *Totals

// MicroMacro computes micro and macro averages over every label of the
// breakdown, including labels with no data.
func MicroMacro(breakdown map[string]LabelStat) *Totals {
	labels := sortedKeys(breakdown)
	t := &Totals{}
	precisions := make([]float64, 0, len(labels))
	recalls := make([]float64, 0, len(labels))
	for _, l := range labels {
		ls := breakdown[l]
		t.TP += ls.TP
		t.FP += ls.FP
		t.FN += ls.FN
		precisions = append(precisions, ls.Precision)
		recalls = append(recalls, ls.Recall)
	}
	micro := newLabelStat(t.TP, t.FP, t.FN)
	t.NExamples = micro.NExamples
	t.MicroPrecision, t.MicroRecall, t.MicroF1 = micro.Precision, micro.Recall, micro.F1
	if len(labels) > 0 {
		t.MacroPrecision = stat.Mean(precisions, nil)
		t.MacroRecall = stat.Mean(recalls, nil)
		t.MacroF1 = f1(t.MacroPrecision, t.MacroRecall)
	}
	return t
}

// AggregateStat is the result of one aggregation pass. It is built fresh
// by Aggregate and is not updated afterwards; combining results means
// replaying the original records through a new pass.
type AggregateStat struct {
	Breakdown map[string]LabelStat `json:"breakdown"`
	Total     *Totals              `json:"total,omitempty"`
}

// Labels returns the breakdown labels in sorted order.
func (a *AggregateStat) Labels() []string {
	return sortedKeys(a.Breakdown)
}

// Config selects which labels are counted and which record field names them.
type Config struct {
	LabelSet []string
	// LabelKey is lu.LabelKeyIntent for intent reports and
	// lu.LabelKeyEntity for entity reports.
	LabelKey string
	Totals   TotalsFunc
}

// Aggregate counts TruePositive, FalsePositive and FalseNegative records per
// label across every batch. Labels in LabelSet always appear in the
// breakdown; records for other labels are ignored. A record missing the
// label or confusion type field, or carrying an unknown confusion type,
// fails the whole pass.
func Aggregate(cfg Config, batches ...[]lu.Record) (*AggregateStat, error) {
	if cfg.LabelKey == "" {
		return nil, fmt.Errorf("aggregate: label key is required")
	}

	type counts struct{ tp, fp, fn int }
	byLabel := make(map[string]*counts, len(cfg.LabelSet))
	for _, l := range cfg.LabelSet {
		byLabel[l] = &counts{}
	}

	for b, batch := range batches {
		for i, rec := range batch {
			label, ok := rec.String(cfg.LabelKey)
			if !ok {
				return nil, &lu.MissingFieldError{Index: i, Field: cfg.LabelKey, Context: fmt.Sprintf("batch %d", b)}
			}
			ct, ok := rec.String("ConfusionType")
			if !ok {
				return nil, &lu.MissingFieldError{Index: i, Field: "ConfusionType", Context: fmt.Sprintf("batch %d", b)}
			}
			c, tracked := byLabel[label]
			if !tracked {
				continue
			}
			switch lu.ConfusionType(ct) {
			case lu.TruePositive:
				c.tp++
			case lu.FalsePositive:
				c.fp++
			case lu.FalseNegative:
				c.fn++
			default:
				return nil, &lu.UnknownConfusionTypeError{Index: i, Value: ct}
			}
		}
	}

	st := &AggregateStat{Breakdown: make(map[string]LabelStat, len(byLabel))}
	for l, c := range byLabel {
		st.Breakdown[l] = newLabelStat(c.tp, c.fp, c.fn)
	}
	if cfg.Totals != nil {
		st.Total = cfg.Totals(st.Breakdown)
	}
	return st, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
