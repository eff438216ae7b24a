// Package report turns a normalized prediction dataset into intent and
// entity confusion reports.
package report

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

// IntentReport judges the predicted intent of every utterance against its
// gold intent. A match yields one TruePositive row; a mismatch yields a
// FalseNegative row for the gold class followed by a FalsePositive row for
// the predicted class, both carrying the prediction score.
//
// When targetIntents is non-nil, utterances whose gold intent is not in it
// are skipped and do not consume a DocumentId. A missing gold or predicted
// intent fails the whole batch.
func IntentReport(utts []lu.Utterance, targetIntents map[string]bool) ([]lu.IntentRow, error) {
	rows := make([]lu.IntentRow, 0, len(utts))
	docID := 0
	for i, u := range utts {
		if u.GoldIntent == nil {
			return nil, &lu.MissingFieldError{Index: i, Field: "gold_intent", Context: u.Query}
		}
		if u.PredIntent == nil {
			return nil, &lu.MissingFieldError{Index: i, Field: "pred_intent", Context: u.Query}
		}
		gold, pred := *u.GoldIntent, *u.PredIntent
		if targetIntents != nil && !targetIntents[gold] {
			monitoring.Skipped(fmt.Sprintf("utterance %d %q", i, u.Query), fmt.Sprintf("intent %q not targeted", gold))
			continue
		}

		id := strconv.Itoa(docID)
		docID++
		score := u.IntentScore()
		if gold == pred {
			rows = append(rows, intentRow(id, lu.TruePositive, gold, score, u.Query))
			continue
		}
		rows = append(rows,
			intentRow(id, lu.FalseNegative, gold, score, u.Query),
			intentRow(id, lu.FalsePositive, pred, score, u.Query),
		)
	}
	return rows, nil
}

func intentRow(id string, ct lu.ConfusionType, class string, score float64, text string) lu.IntentRow {
	return lu.IntentRow{
		DocumentId:    id,
		ConfusionType: ct,
		Class:         class,
		Score:         lu.Float(score),
		Text:          text,
	}
}
