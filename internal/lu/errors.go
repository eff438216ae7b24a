package lu

import "fmt"

// MissingFieldError reports a required field absent from an input record.
// Index is the position of the record in its input sequence.
type MissingFieldError struct {
	Index   int
	Field   string
	Context string
}

func (e *MissingFieldError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("record %d: required field %q not found (%s)", e.Index, e.Field, e.Context)
	}
	return fmt.Sprintf("record %d: required field %q not found", e.Index, e.Field)
}

// UnknownConfusionTypeError reports a row whose ConfusionType is not one of
// TruePositive, FalsePositive or FalseNegative.
type UnknownConfusionTypeError struct {
	Index int
	Value string
}

func (e *UnknownConfusionTypeError) Error() string {
	return fmt.Sprintf("record %d: unknown confusion type %q", e.Index, e.Value)
}

// InvalidSpanError reports a span whose offsets fall outside its utterance
// or whose start is after its end.
type InvalidSpanError struct {
	Query string
	Span  EntitySpan
}

func (e *InvalidSpanError) Error() string {
	return fmt.Sprintf("invalid span %s for utterance %q (length %d)", e.Span, e.Query, len([]rune(e.Query)))
}
