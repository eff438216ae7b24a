package luis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

// PredictionsFile is the name of the normalized dataset written by
// WritePredictions.
const PredictionsFile = "predictions.json"

// PredictedEntities walks a prediction "entities" value and collects every
// span listed under a "$instance" key, at any depth. Object keys are
// visited in sorted order. The end offset is inclusive and a missing score
// becomes -1.
func PredictedEntities(v any) []lu.EntitySpan {
	var spans []lu.EntitySpan
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			spans = append(spans, PredictedEntities(el)...)
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			if k == "$instance" {
				spans = append(spans, instanceSpans(t[k])...)
				continue
			}
			spans = append(spans, PredictedEntities(t[k])...)
		}
	}
	return spans
}

func instanceSpans(v any) []lu.EntitySpan {
	inst, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	var spans []lu.EntitySpan
	for _, entityType := range sortedKeys(inst) {
		list, _ := inst[entityType].([]any)
		for _, el := range list {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			start, ok1 := number(m["startIndex"])
			length, ok2 := number(m["length"])
			if !ok1 || !ok2 {
				monitoring.Skipped(fmt.Sprintf("instance of %q", entityType), "missing startIndex or length")
				continue
			}
			score := lu.NoScore
			if s, ok := number(m["score"]); ok {
				score = s
			}
			spans = append(spans, lu.EntitySpan{
				Entity:   entityType,
				StartPos: int(start),
				EndPos:   int(start) + int(length) - 1,
				Score:    lu.Float(score),
			})
		}
	}
	return spans
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildPredictions joins the gold test set with the prediction log into the
// normalized dataset. There is one utterance per distinct gold text, in
// gold order; a repeated text keeps its first position and takes the later
// labels. Utterances without a logged prediction keep an empty predicted
// intent. Entity spans on both sides are limited to model entities, and
// log entries whose query is not a gold text are ignored.
func BuildPredictions(m *Model, gold *GoldSet, log []LogEntry) *lu.Predictions {
	modelEntities := ModelEntities(m)
	known := make(map[string]bool, len(modelEntities))
	for _, e := range modelEntities {
		known[e] = true
	}
	filter := func(spans []lu.EntitySpan) []lu.EntitySpan {
		out := []lu.EntitySpan{}
		for _, s := range spans {
			if known[s.Entity] {
				out = append(out, s)
			}
		}
		return out
	}

	var order []string
	byText := map[string]*lu.Utterance{}
	for _, g := range gold.Utterances {
		u, seen := byText[g.Text]
		if !seen {
			u = &lu.Utterance{Query: g.Text, PredIntent: lu.Str(""), PredEntities: []lu.EntitySpan{}}
			byText[g.Text] = u
			order = append(order, g.Text)
		}
		u.GoldIntent = lu.Str(g.Intent)
		u.GoldEntities = filter(g.Entities)
	}

	for _, entry := range log {
		u, ok := byText[entry.Query]
		if !ok {
			monitoring.Skipped(fmt.Sprintf("prediction for %q", entry.Query), "query not in gold set")
			continue
		}
		top := entry.Prediction.TopIntent
		u.PredIntent = lu.Str(top)
		if ip, ok := entry.Prediction.Intents[top]; ok {
			u.PredIntentScore = lu.Float(ip.Score)
		}
		u.PredEntities = filter(PredictedEntities(entry.Prediction.Entities))
	}

	utts := make([]lu.Utterance, 0, len(order))
	for _, text := range order {
		utts = append(utts, *byText[text])
	}
	return &lu.Predictions{
		Intents:    ModelIntents(m),
		Entities:   modelEntities,
		Utterances: utts,
	}
}

// WritePredictions writes p as dir/predictions.json and returns its path.
func WritePredictions(fsys fsutil.FileSystem, dir string, p *lu.Predictions) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode predictions: %w", err)
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, PredictionsFile)
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Written(path)
	return path, nil
}
