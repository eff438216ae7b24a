package report

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

// EntityReport matches predicted entity spans against gold spans by exact
// (startPos, endPos, label) key. Each gold span yields a TruePositive row
// when an identical predicted key exists and a FalseNegative row otherwise;
// each remaining predicted span yields a FalsePositive row.
//
// Utterances with no spans on either side are skipped and do not consume a
// DocumentId. Spans that start outside the utterance or end before they
// start are logged and skipped; a span running past the end keeps its
// reported Length while its Phrase is clipped to the text.
// targetEntities is accepted for parity with IntentReport but does not
// filter matching.
func EntityReport(utts []lu.Utterance, targetEntities map[string]bool) []lu.EntityRow {
	var rows []lu.EntityRow
	docID := 0
	for i, u := range utts {
		if !u.HasEntities() {
			continue
		}
		id := strconv.Itoa(docID)
		docID++

		query := []rune(u.Query)
		gold := collectSpans(i, query, u.GoldEntities)
		pred := collectSpans(i, query, u.PredEntities)

		for _, k := range gold.order {
			if p, ok := pred.byKey[k]; ok {
				rows = append(rows, entityRow(id, lu.TruePositive, query, k, p.ScoreOr(lu.NoScore)))
				continue
			}
			rows = append(rows, entityRow(id, lu.FalseNegative, query, k, lu.NoScore))
		}
		for _, k := range pred.order {
			if _, ok := gold.byKey[k]; ok {
				continue
			}
			rows = append(rows, entityRow(id, lu.FalsePositive, query, k, pred.byKey[k].ScoreOr(lu.NoScore)))
		}
	}
	return rows
}

// spanSet keeps the first-seen order of distinct keys. A repeated key keeps
// its original position but takes the later span's score.
type spanSet struct {
	order []lu.Key
	byKey map[lu.Key]lu.EntitySpan
}

func collectSpans(index int, query []rune, spans []lu.EntitySpan) spanSet {
	set := spanSet{byKey: make(map[lu.Key]lu.EntitySpan, len(spans))}
	for _, s := range spans {
		if err := s.Validate(query); err != nil {
			monitoring.Skipped(fmt.Sprintf("utterance %d span %s", index, s), err.Error())
			continue
		}
		k := s.Key()
		if _, seen := set.byKey[k]; !seen {
			set.order = append(set.order, k)
		}
		set.byKey[k] = s
	}
	return set
}

func entityRow(id string, ct lu.ConfusionType, query []rune, k lu.Key, score float64) lu.EntityRow {
	length := k.EndPos - k.StartPos + 1
	return lu.EntityRow{
		DocumentId:    id,
		ConfusionType: ct,
		Entity:        k.Entity,
		StartIndex:    k.StartPos,
		Length:        length,
		Phrase:        k.Phrase(query),
		Context:       string(query),
		Score:         lu.Float(score),
	}
}
