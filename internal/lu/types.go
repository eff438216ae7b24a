// Package lu holds the data model shared by the reporter and aggregator:
// utterance-level predictions, entity spans and confusion report rows.
package lu

import "fmt"

// ConfusionType classifies one judgement of a prediction against gold.
type ConfusionType string

const (
	TruePositive  ConfusionType = "TruePositive"
	FalsePositive ConfusionType = "FalsePositive"
	FalseNegative ConfusionType = "FalseNegative"
)

// Valid reports whether ct is one of the three known confusion types.
func (ct ConfusionType) Valid() bool {
	switch ct {
	case TruePositive, FalsePositive, FalseNegative:
		return true
	}
	return false
}

// Label keys select which report field names the label of a row.
const (
	LabelKeyIntent = "Class"
	LabelKeyEntity = "Entity"
)

// NoScore is written when a prediction carries no score.
const NoScore = -1.0

// EntitySpan is a labelled substring of an utterance. EndPos is inclusive
// and both offsets count characters, not bytes. An EndPos running past the
// end of the utterance is tolerated; the phrase is clipped to the text.
type EntitySpan struct {
	Entity   string   `json:"entity"`
	StartPos int      `json:"startPos"`
	EndPos   int      `json:"endPos"`
	Score    *float64 `json:"score,omitempty"`
}

// Key identifies a span for exact matching.
type Key struct {
	StartPos int
	EndPos   int
	Entity   string
}

// Key returns the matching key of the span.
func (s EntitySpan) Key() Key {
	return Key{StartPos: s.StartPos, EndPos: s.EndPos, Entity: s.Entity}
}

// ScoreOr returns the span score, or def when the span carries none.
func (s EntitySpan) ScoreOr(def float64) float64 {
	if s.Score == nil {
		return def
	}
	return *s.Score
}

// Validate checks the span offsets against the utterance it belongs to.
// The start must fall inside the utterance and must not follow the end.
func (s EntitySpan) Validate(query []rune) error {
	if s.StartPos < 0 || s.StartPos > s.EndPos || s.StartPos >= len(query) {
		return &InvalidSpanError{Query: string(query), Span: s}
	}
	return nil
}

// Phrase returns the covered substring of query, clipped to its end.
func (k Key) Phrase(query []rune) string {
	end := k.EndPos + 1
	if end > len(query) {
		end = len(query)
	}
	if k.StartPos >= end {
		return ""
	}
	return string(query[k.StartPos:end])
}

func (s EntitySpan) String() string {
	return fmt.Sprintf("%s[%d,%d]", s.Entity, s.StartPos, s.EndPos)
}

// Utterance is one gold-vs-predicted judgement unit.
// GoldIntent and PredIntent are pointers so that an absent field can be
// told apart from an empty intent name.
type Utterance struct {
	Query           string       `json:"query"`
	GoldIntent      *string      `json:"gold_intent"`
	PredIntent      *string      `json:"pred_intent"`
	PredIntentScore *float64     `json:"pred_intent_score,omitempty"`
	GoldEntities    []EntitySpan `json:"gold_entities"`
	PredEntities    []EntitySpan `json:"pred_entities"`
}

// IntentScore returns the predicted intent score, or NoScore when absent.
func (u Utterance) IntentScore() float64 {
	if u.PredIntentScore == nil {
		return NoScore
	}
	return *u.PredIntentScore
}

// HasEntities reports whether either side carries at least one span.
func (u Utterance) HasEntities() bool {
	return len(u.GoldEntities) > 0 || len(u.PredEntities) > 0
}

// Predictions is the normalized prediction dataset (predictions.json).
type Predictions struct {
	Intents    []string    `json:"intents"`
	Entities   []string    `json:"entities"`
	Utterances []Utterance `json:"utterances"`
}

// IntentRow is one intent judgement of the classification report.
type IntentRow struct {
	DocumentId    string        `json:"DocumentId"`
	ConfusionType ConfusionType `json:"ConfusionType"`
	Class         string        `json:"Class"`
	Score         *float64      `json:"Score"`
	Text          string        `json:"Text"`
}

// Record converts the row into the loosely-typed form the aggregator reads.
func (r IntentRow) Record() Record {
	return Record{
		"DocumentId":    r.DocumentId,
		"ConfusionType": string(r.ConfusionType),
		"Class":         r.Class,
		"Score":         scoreValue(r.Score),
		"Text":          r.Text,
	}
}

// EntityRow is one span judgement of the entities report.
type EntityRow struct {
	DocumentId    string        `json:"DocumentId"`
	ConfusionType ConfusionType `json:"ConfusionType"`
	Entity        string        `json:"Entity"`
	StartIndex    int           `json:"StartIndex"`
	Length        int           `json:"Length"`
	Phrase        string        `json:"Phrase"`
	Context       string        `json:"Context"`
	Score         *float64      `json:"Score"`
}

// Record converts the row into the loosely-typed form the aggregator reads.
func (r EntityRow) Record() Record {
	return Record{
		"DocumentId":    r.DocumentId,
		"ConfusionType": string(r.ConfusionType),
		"Entity":        r.Entity,
		"StartIndex":    r.StartIndex,
		"Length":        r.Length,
		"Phrase":        r.Phrase,
		"Context":       r.Context,
		"Score":         scoreValue(r.Score),
	}
}

func scoreValue(s *float64) any {
	if s == nil {
		return nil
	}
	return *s
}

// Record is a confusion row as read back from a report file. Fields are
// looked up by name so that absent fields can be reported.
type Record map[string]any

// String returns the named field as a string. ok is false when the field is
// absent, null or not a string.
func (r Record) String(field string) (string, bool) {
	v, present := r[field]
	if !present || v == nil {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}

// IntentRecords converts intent rows to records.
func IntentRecords(rows []IntentRow) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

// EntityRecords converts entity rows to records.
func EntityRecords(rows []EntityRow) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

// Float returns a pointer to v, for optional score fields.
func Float(v float64) *float64 { return &v }

// Str returns a pointer to s, for optional intent fields.
func Str(s string) *string { return &s }
