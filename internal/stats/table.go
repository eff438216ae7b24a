package stats

import (
	"strconv"
	"strings"
	"time"
)

// TableOptions controls the optional columns and rows of Table.
type TableOptions struct {
	// Counts appends Tp, Fp and Fn columns.
	Counts bool
	// Timestamp, when non-zero, is written in a leading column of every row.
	Timestamp time.Time
	// Totals appends MICRO and MACRO rows when the stat carries totals.
	Totals bool
}

// Table renders st as comma-separated text, one row per label in order.
// Labels missing from the breakdown are skipped.
func Table(st *AggregateStat, order []string, opts TableOptions) string {
	var b strings.Builder
	var prefix string
	if !opts.Timestamp.IsZero() {
		b.WriteString("Timestamp,")
		prefix = opts.Timestamp.UTC().Format("2006-01-02T15:04:05") + ","
	}
	b.WriteString("LabelName,F1,Precision,Recall,NumLabels")
	if opts.Counts {
		b.WriteString(",Tp,Fp,Fn")
	}
	b.WriteByte('\n')

	row := func(name string, f1, p, r float64, n, tp, fp, fn int) {
		b.WriteString(prefix)
		b.WriteString(strings.Join([]string{name, FormatFloat(f1), FormatFloat(p), FormatFloat(r), strconv.Itoa(n)}, ","))
		if opts.Counts {
			b.WriteString("," + strconv.Itoa(tp) + "," + strconv.Itoa(fp) + "," + strconv.Itoa(fn))
		}
		b.WriteByte('\n')
	}

	for _, label := range order {
		ls, ok := st.Breakdown[label]
		if !ok {
			continue
		}
		row(label, ls.F1, ls.Precision, ls.Recall, ls.NExamples, ls.TP, ls.FP, ls.FN)
	}
	if opts.Totals && st.Total != nil {
		t := st.Total
		row("MICRO", t.MicroF1, t.MicroPrecision, t.MicroRecall, t.NExamples, t.TP, t.FP, t.FN)
		row("MACRO", t.MacroF1, t.MacroPrecision, t.MacroRecall, t.NExamples, t.TP, t.FP, t.FN)
	}
	return b.String()
}

// FormatFloat prints f with the shortest round-trip digits, keeping a
// trailing ".0" on integral values (0.0, 1.0) so table columns read as
// floats.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}
