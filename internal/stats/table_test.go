package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

func tableFixture(t *testing.T, totals TotalsFunc) *AggregateStat {
	t.Helper()
	st, err := Aggregate(Config{LabelSet: []string{"A", "B"}, LabelKey: "Class", Totals: totals}, []lu.Record{
		rec("A", "TruePositive"), rec("A", "FalsePositive"),
	})
	require.NoError(t, err)
	return st
}

func TestTable(t *testing.T) {
	t.Parallel()
	st := tableFixture(t, nil)

	got := Table(st, []string{"B", "Missing", "A"}, TableOptions{})
	assert.Equal(t, "LabelName,F1,Precision,Recall,NumLabels\n"+
		"B,0.0,0.0,0.0,0\n"+
		"A,0.6666666666666666,0.5,1.0,1\n", got)

	got = Table(st, []string{"A"}, TableOptions{Counts: true})
	assert.Equal(t, "LabelName,F1,Precision,Recall,NumLabels,Tp,Fp,Fn\n"+
		"A,0.6666666666666666,0.5,1.0,1,1,1,0\n", got)
}

func TestTable_TimestampAndTotals(t *testing.T) {
	t.Parallel()
	st := tableFixture(t, MicroMacro)
	ts := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)

	got := Table(st, []string{"A"}, TableOptions{Counts: true, Timestamp: ts, Totals: true})
	assert.Equal(t, "Timestamp,LabelName,F1,Precision,Recall,NumLabels,Tp,Fp,Fn\n"+
		"2024-03-01T12:30:05,A,0.6666666666666666,0.5,1.0,1,1,1,0\n"+
		"2024-03-01T12:30:05,MICRO,0.6666666666666666,0.5,1.0,1,1,1,0\n"+
		"2024-03-01T12:30:05,MACRO,0.3333333333333333,0.25,0.5,1,1,1,0\n", got)

	noTotals := Table(st, []string{"A"}, TableOptions{})
	assert.NotContains(t, noTotals, "MICRO")
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.25, "0.25"},
		{2.0 / 7, "0.2857142857142857"},
		{1e-05, "1e-05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}
}
