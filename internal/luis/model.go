// Package luis imports the output files of the LUIS command line tooling:
// the converted model, the converted gold test set and the prediction log
// of a test run. It also renders labelled datasets back into .lu text.
package luis

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
)

// Model is the subset of a converted LUIS application used for metrics.
type Model struct {
	Intents  []ModelIntent `json:"intents"`
	Entities []ModelEntity `json:"entities"`
}

// ModelIntent is one intent of the model.
type ModelIntent struct {
	Name string `json:"name"`
}

// ModelEntity is an entity of the model. Machine-learned entities may nest
// children to any depth.
type ModelEntity struct {
	Name     string        `json:"name"`
	Children []ModelEntity `json:"children,omitempty"`
}

// ModelIntents returns the intent names in model order.
func ModelIntents(m *Model) []string {
	out := make([]string, 0, len(m.Intents))
	for _, in := range m.Intents {
		out = append(out, in.Name)
	}
	return out
}

// ModelEntities returns the distinct names of every entity and nested child
// entity, sorted.
func ModelEntities(m *Model) []string {
	seen := map[string]bool{}
	var walk func([]ModelEntity)
	walk = func(es []ModelEntity) {
		for _, e := range es {
			seen[e.Name] = true
			walk(e.Children)
		}
	}
	walk(m.Entities)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GoldSet is a converted LUIS test file.
type GoldSet struct {
	Utterances []GoldUtterance `json:"utterances"`
}

// GoldUtterance is one labelled test utterance. Entity offsets are already
// inclusive start/end positions.
type GoldUtterance struct {
	Text     string          `json:"text"`
	Intent   string          `json:"intent"`
	Entities []lu.EntitySpan `json:"entities"`
}

// LogEntry is one record of a `luis:test` prediction log.
type LogEntry struct {
	Query      string     `json:"query"`
	Prediction Prediction `json:"prediction"`
}

// Prediction is the service response for one query. Entities is kept
// loosely typed because its shape follows the model's entity hierarchy.
type Prediction struct {
	TopIntent string                      `json:"topIntent"`
	Intents   map[string]IntentPrediction `json:"intents"`
	Entities  any                         `json:"entities"`
}

// IntentPrediction carries the score of one candidate intent.
type IntentPrediction struct {
	Score float64 `json:"score"`
}

// LoadModel reads a converted model file.
func LoadModel(fsys fsutil.FileSystem, path string) (*Model, error) {
	var m Model
	if err := readJSON(fsys, path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadGold reads a converted test file.
func LoadGold(fsys fsutil.FileSystem, path string) (*GoldSet, error) {
	var g GoldSet
	if err := readJSON(fsys, path, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadLog reads a prediction log.
func LoadLog(fsys fsutil.FileSystem, path string) ([]LogEntry, error) {
	var entries []LogEntry
	if err := readJSON(fsys, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readJSON(fsys fsutil.FileSystem, path string, v any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
