package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

func rec(label, ct string) lu.Record {
	return lu.Record{"Class": label, "ConfusionType": ct}
}

func repeat(n int, r lu.Record) []lu.Record {
	out := make([]lu.Record, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func TestAggregate_ScenarioC(t *testing.T) {
	t.Parallel()
	var recs []lu.Record
	recs = append(recs, repeat(1, rec("A", "TruePositive"))...)
	recs = append(recs, repeat(2, rec("A", "FalsePositive"))...)
	recs = append(recs, repeat(3, rec("A", "FalseNegative"))...)

	st, err := Aggregate(Config{LabelSet: []string{"A"}, LabelKey: lu.LabelKeyIntent}, recs)
	require.NoError(t, err)

	a := st.Breakdown["A"]
	assert.Equal(t, 1, a.TP)
	assert.Equal(t, 2, a.FP)
	assert.Equal(t, 3, a.FN)
	assert.Equal(t, 4, a.NExamples)
	assert.InDelta(t, 1.0/3, a.Precision, 1e-12)
	assert.InDelta(t, 0.25, a.Recall, 1e-12)
	assert.InDelta(t, 2.0/7, a.F1, 1e-12)
	assert.Nil(t, st.Total, "no totals without a strategy")
}

func TestAggregate_UnseenLabelsAndFiltering(t *testing.T) {
	t.Parallel()
	recs := []lu.Record{
		rec("A", "TruePositive"),
		rec("Outside", "TruePositive"),
		rec("Outside", "FalsePositive"),
		rec("Outside", "FalseNegative"),
	}
	st, err := Aggregate(Config{LabelSet: []string{"A", "B"}, LabelKey: lu.LabelKeyIntent}, recs)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, st.Labels())
	assert.Equal(t, LabelStat{}, st.Breakdown["B"], "unseen label has zero counts and metrics")
	assert.Equal(t, LabelStat{TP: 1, NExamples: 1, Precision: 1, Recall: 1, F1: 1}, st.Breakdown["A"])
	_, present := st.Breakdown["Outside"]
	assert.False(t, present)
}

func TestAggregate_MultipleBatchesPool(t *testing.T) {
	t.Parallel()
	cfg := Config{LabelSet: []string{"Name"}, LabelKey: lu.LabelKeyEntity}
	b1 := []lu.Record{{"Entity": "Name", "ConfusionType": "TruePositive"}}
	b2 := []lu.Record{{"Entity": "Name", "ConfusionType": "FalsePositive"}}

	st, err := Aggregate(cfg, b1, b2)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Breakdown["Name"].TP)
	assert.Equal(t, 1, st.Breakdown["Name"].FP)
	assert.Equal(t, 0.5, st.Breakdown["Name"].Precision)
}

func TestAggregate_Errors(t *testing.T) {
	t.Parallel()
	cfg := Config{LabelSet: []string{"A"}, LabelKey: lu.LabelKeyIntent}

	t.Run("missing label key", func(t *testing.T) {
		_, err := Aggregate(cfg, []lu.Record{rec("A", "TruePositive"), {"ConfusionType": "TruePositive"}})
		var mf *lu.MissingFieldError
		require.True(t, errors.As(err, &mf))
		assert.Equal(t, 1, mf.Index)
		assert.Equal(t, "Class", mf.Field)
	})
	t.Run("null label", func(t *testing.T) {
		_, err := Aggregate(cfg, []lu.Record{{"Class": nil, "ConfusionType": "TruePositive"}})
		var mf *lu.MissingFieldError
		assert.True(t, errors.As(err, &mf))
	})
	t.Run("missing confusion type outside label set", func(t *testing.T) {
		st, err := Aggregate(cfg, []lu.Record{{"Class": "Other"}})
		assert.Nil(t, st, "no partial result")
		var mf *lu.MissingFieldError
		require.True(t, errors.As(err, &mf))
		assert.Equal(t, "ConfusionType", mf.Field)
	})
	t.Run("unknown confusion type", func(t *testing.T) {
		st, err := Aggregate(cfg, []lu.Record{rec("A", "TrueNegative")})
		assert.Nil(t, st)
		var uc *lu.UnknownConfusionTypeError
		require.True(t, errors.As(err, &uc))
		assert.Equal(t, "TrueNegative", uc.Value)
	})
	t.Run("no label key configured", func(t *testing.T) {
		_, err := Aggregate(Config{LabelSet: []string{"A"}})
		assert.Error(t, err)
	})
}

func TestAggregate_Invariants(t *testing.T) {
	t.Parallel()
	recs := []lu.Record{
		rec("A", "TruePositive"), rec("A", "FalseNegative"),
		rec("B", "FalsePositive"), rec("B", "FalsePositive"),
		rec("C", "FalseNegative"),
	}
	st, err := Aggregate(Config{LabelSet: []string{"A", "B", "C", "D"}, LabelKey: "Class", Totals: MicroMacro}, recs)
	require.NoError(t, err)
	for label, ls := range st.Breakdown {
		assert.Equal(t, ls.TP+ls.FN, ls.NExamples, label)
		for _, v := range []float64{ls.Precision, ls.Recall, ls.F1} {
			assert.GreaterOrEqual(t, v, 0.0, label)
			assert.LessOrEqual(t, v, 1.0, label)
		}
	}
	assert.Equal(t, 0.0, st.Breakdown["B"].Precision, "tp=0 with fp>0")
	assert.Equal(t, 0.0, st.Breakdown["D"].Precision, "tp=fp=0 yields 0, not NaN")
}

func TestMicroMacro(t *testing.T) {
	t.Parallel()
	recs := []lu.Record{
		rec("A", "TruePositive"), rec("A", "FalsePositive"),
		rec("B", "FalseNegative"), rec("B", "FalseNegative"),
	}
	st, err := Aggregate(Config{LabelSet: []string{"A", "B"}, LabelKey: "Class", Totals: MicroMacro}, recs)
	require.NoError(t, err)
	require.NotNil(t, st.Total)

	tot := st.Total
	assert.Equal(t, 1, tot.TP)
	assert.Equal(t, 1, tot.FP)
	assert.Equal(t, 2, tot.FN)
	assert.Equal(t, 3, tot.NExamples)
	assert.InDelta(t, 0.5, tot.MicroPrecision, 1e-12)
	assert.InDelta(t, 1.0/3, tot.MicroRecall, 1e-12)
	assert.InDelta(t, 0.4, tot.MicroF1, 1e-12)
	assert.InDelta(t, 0.25, tot.MacroPrecision, 1e-12)
	assert.InDelta(t, 0.5, tot.MacroRecall, 1e-12)
	assert.InDelta(t, 1.0/3, tot.MacroF1, 1e-12)
}

func TestMicroMacro_EmptyBreakdown(t *testing.T) {
	t.Parallel()
	tot := MicroMacro(map[string]LabelStat{})
	assert.Equal(t, Totals{}, *tot)
}

func TestLabelStat_Metric(t *testing.T) {
	t.Parallel()
	ls := LabelStat{Precision: 0.5, Recall: 0.25, F1: 1.0 / 3}
	for _, name := range Metrics {
		_, ok := ls.Metric(name)
		assert.True(t, ok, name)
	}
	v, _ := ls.Metric("Recall")
	assert.Equal(t, 0.25, v)
	_, ok := ls.Metric("Accuracy")
	assert.False(t, ok)
}
