package luis

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/report"
	"github.com/banshee-data/lu-metrics/internal/testutil"
)

const modelJSON = `{
  "intents": [{"name": "Add"}, {"name": "Update"}, {"name": "None"}],
  "entities": [
    {"name": "Assignee"},
    {"name": "TaskContent", "children": [{"name": "Inner", "children": [{"name": "Deep"}]}]}
  ]
}`

const entitiesJSON = `{
  "Assignee": ["jason"],
  "$instance": {
    "DueDate": [{"startIndex": 40, "length": 6, "text": "Friday"}],
    "Assignee": [{"startIndex": 13, "length": 5, "score": 0.9, "text": "jason"}]
  },
  "TaskContent": [{
    "Inner": ["complete"],
    "$instance": {"Inner": [{"startIndex": 22, "length": 8, "score": 0.7}]}
  }]
}`

func decode(t *testing.T, s string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(s), v))
}

func TestModelLabels(t *testing.T) {
	var m Model
	decode(t, modelJSON, &m)
	assert.Equal(t, []string{"Add", "Update", "None"}, ModelIntents(&m))
	assert.Equal(t, []string{"Assignee", "Deep", "Inner", "TaskContent"}, ModelEntities(&m))
}

func TestPredictedEntities(t *testing.T) {
	var v any
	decode(t, entitiesJSON, &v)

	want := []lu.EntitySpan{
		{Entity: "Assignee", StartPos: 13, EndPos: 17, Score: lu.Float(0.9)},
		{Entity: "DueDate", StartPos: 40, EndPos: 45, Score: lu.Float(-1)},
		{Entity: "Inner", StartPos: 22, EndPos: 29, Score: lu.Float(0.7)},
	}
	if diff := cmp.Diff(want, PredictedEntities(v)); diff != "" {
		t.Errorf("PredictedEntities mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, PredictedEntities(nil))
	assert.Empty(t, PredictedEntities("text"))
}

func TestBuildPredictions(t *testing.T) {
	testutil.MuteLogs(t)
	var m Model
	decode(t, modelJSON, &m)
	var gold GoldSet
	decode(t, `{"utterances": [
	  {"text": "add task for jason to complete test due Friday", "intent": "Add",
	   "entities": [{"entity": "Assignee", "startPos": 13, "endPos": 17},
	                {"entity": "DueDate", "startPos": 36, "endPos": 45}]},
	  {"text": "change it", "intent": "Update", "entities": []}
	]}`, &gold)

	var log []LogEntry
	decode(t, `[
	  {"query": "add task for jason to complete test due Friday",
	   "prediction": {"topIntent": "Add", "intents": {"Add": {"score": 0.97}, "None": {"score": 0.01}},
	                  "entities": `+entitiesJSON+`}},
	  {"query": "not in gold", "prediction": {"topIntent": "None", "intents": {"None": {"score": 1}}}}
	]`, &log)

	p := BuildPredictions(&m, &gold, log)
	assert.Equal(t, []string{"Add", "Update", "None"}, p.Intents)
	require.Len(t, p.Utterances, 2)

	first := p.Utterances[0]
	assert.Equal(t, "Add", *first.GoldIntent)
	assert.Equal(t, "Add", *first.PredIntent)
	assert.Equal(t, 0.97, first.IntentScore())
	assert.Equal(t, []lu.EntitySpan{{Entity: "Assignee", StartPos: 13, EndPos: 17}}, first.GoldEntities, "DueDate is not a model entity")
	assert.Len(t, first.PredEntities, 2, "Assignee and Inner survive the model filter")

	second := p.Utterances[1]
	assert.Equal(t, "Update", *second.GoldIntent)
	require.NotNil(t, second.PredIntent)
	assert.Equal(t, "", *second.PredIntent, "no logged prediction")
	assert.Equal(t, lu.NoScore, second.IntentScore())

	// the built dataset feeds the reporters directly
	res, err := report.Build(p.Utterances, report.Targets{})
	require.NoError(t, err)
	assert.Len(t, res.Intents, 3)
}

func TestWritePredictions(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	p := &lu.Predictions{Intents: []string{"Add"}, Utterances: []lu.Utterance{
		{Query: "add <b>", GoldIntent: lu.Str("Add"), PredIntent: lu.Str("Add")},
	}}
	path, err := WritePredictions(fsys, "run", p)
	require.NoError(t, err)
	assert.Equal(t, "run/predictions.json", path)

	got, err := report.ReadPredictions(fsys, path)
	require.NoError(t, err)
	assert.Equal(t, "add <b>", got.Utterances[0].Query)

	raw, _ := fsys.ReadFile(path)
	assert.Contains(t, string(raw), "add <b>", "html is not escaped")
}

func TestLoaders(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("model.json", []byte(modelJSON), 0o644))
	require.NoError(t, fsys.WriteFile("log.json", []byte(`[{"query": "q", "prediction": {"topIntent": "Add"}}]`), 0o644))
	require.NoError(t, fsys.WriteFile("gold.json", []byte(`{"utterances": [{"text": "q", "intent": "Add"}]}`), 0o644))

	m, err := LoadModel(fsys, "model.json")
	require.NoError(t, err)
	assert.Len(t, m.Intents, 3)
	g, err := LoadGold(fsys, "gold.json")
	require.NoError(t, err)
	assert.Len(t, g.Utterances, 1)
	l, err := LoadLog(fsys, "log.json")
	require.NoError(t, err)
	assert.Equal(t, "Add", l[0].Prediction.TopIntent)

	_, err = LoadModel(fsys, "missing.json")
	assert.Error(t, err)
}
