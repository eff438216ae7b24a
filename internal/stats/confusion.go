package stats

import (
	"github.com/banshee-data/lu-metrics/internal/lu"
)

// NoneLabel names the column for gold intents that received no accepted
// prediction and the row for predictions with no gold intent. The
// parentheses keep it apart from a real intent such as LUIS's "None".
const NoneLabel = "(none)"

// Matrix is an intent confusion matrix. Counts[i][j] is the number of
// documents with gold intent Rows[i] predicted as Cols[j].
type Matrix struct {
	Rows   []string `json:"rows"`
	Cols   []string `json:"cols"`
	Counts [][]int  `json:"counts"`
}

// At returns the count for a gold/predicted pair, or 0 if either label is
// unknown.
func (m *Matrix) At(gold, pred string) int {
	for i, r := range m.Rows {
		if r != gold {
			continue
		}
		for j, c := range m.Cols {
			if c == pred {
				return m.Counts[i][j]
			}
		}
	}
	return 0
}

// IntentConfusion builds a confusion matrix from intent report records
// grouped by DocumentId. A TruePositive contributes (class, class), a
// FalseNegative/FalsePositive pair contributes (gold, predicted) and a lone
// FalseNegative contributes (gold, NoneLabel). A lone FalsePositive is
// counted under a NoneLabel row. Rows are sorted gold classes; columns are
// sorted predicted classes with NoneLabel last.
func IntentConfusion(recs []lu.Record) (*Matrix, error) {
	type judgement struct{ gold, pred string }
	type doc struct{ gold, pred string }

	var order []string
	docs := map[string]*doc{}
	for i, r := range recs {
		id, ok := r.String("DocumentId")
		if !ok {
			return nil, &lu.MissingFieldError{Index: i, Field: "DocumentId"}
		}
		class, ok := r.String(lu.LabelKeyIntent)
		if !ok {
			return nil, &lu.MissingFieldError{Index: i, Field: lu.LabelKeyIntent}
		}
		ct, ok := r.String("ConfusionType")
		if !ok {
			return nil, &lu.MissingFieldError{Index: i, Field: "ConfusionType"}
		}
		d, seen := docs[id]
		if !seen {
			d = &doc{}
			docs[id] = d
			order = append(order, id)
		}
		switch lu.ConfusionType(ct) {
		case lu.TruePositive:
			d.gold, d.pred = class, class
		case lu.FalseNegative:
			d.gold = class
		case lu.FalsePositive:
			d.pred = class
		default:
			return nil, &lu.UnknownConfusionTypeError{Index: i, Value: ct}
		}
	}

	var pairs []judgement
	rowSet, colSet := map[string]bool{}, map[string]bool{}
	for _, id := range order {
		d := docs[id]
		j := judgement{gold: d.gold, pred: d.pred}
		if j.gold == "" {
			j.gold = NoneLabel
		}
		if j.pred == "" {
			j.pred = NoneLabel
		}
		pairs = append(pairs, j)
		rowSet[j.gold] = true
		if j.pred != NoneLabel {
			colSet[j.pred] = true
		}
	}

	m := &Matrix{Rows: sortedKeys(rowSet), Cols: append(sortedKeys(colSet), NoneLabel)}
	rowIdx := indexOf(m.Rows)
	colIdx := indexOf(m.Cols)
	m.Counts = make([][]int, len(m.Rows))
	for i := range m.Counts {
		m.Counts[i] = make([]int, len(m.Cols))
	}
	for _, p := range pairs {
		m.Counts[rowIdx[p.gold]][colIdx[p.pred]]++
	}
	return m, nil
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
