package luis

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

// DatasetItem is one labelled example of a LuisNLP dataset export.
type DatasetItem struct {
	Text     string          `json:"Text"`
	Classes  []string        `json:"Classes"`
	Entities []DatasetEntity `json:"Entities"`
}

// DatasetEntity labels Length characters of Text from Start.
type DatasetEntity struct {
	Label  string `json:"Label"`
	Start  int    `json:"Start"`
	Length int    `json:"Length"`
}

// LabelEntities marks the entities of text in .lu syntax, e.g.
// "add task to {@TaskContent=buy milk}". Entities are applied in Start
// order; one that overlaps an earlier entity or runs past the text is left
// unlabelled.
func LabelEntities(text string, entities []DatasetEntity) string {
	sorted := append([]DatasetEntity(nil), entities...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, e := range sorted {
		end := e.Start + e.Length
		if e.Start < pos || e.Length < 0 || end > len(runes) {
			continue
		}
		b.WriteString(string(runes[pos:e.Start]))
		fmt.Fprintf(&b, "{@%s=%s}", e.Label, string(runes[e.Start:end]))
		pos = end
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// DatasetToLU renders dataset items as .lu text: one "## Intent" section
// per first class, intents sorted, examples in input order.
func DatasetToLU(items []DatasetItem) string {
	byIntent := map[string][]string{}
	for i, it := range items {
		if len(it.Classes) == 0 {
			monitoring.Skipped(fmt.Sprintf("dataset item %d", i), "no class")
			continue
		}
		intent := it.Classes[0]
		byIntent[intent] = append(byIntent[intent], LabelEntities(it.Text, it.Entities))
	}

	intents := make([]string, 0, len(byIntent))
	for in := range byIntent {
		intents = append(intents, in)
	}
	sort.Strings(intents)

	var b strings.Builder
	for _, in := range intents {
		fmt.Fprintf(&b, "## %s\n", in)
		for _, u := range byIntent[in] {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ConvertDataset reads a LuisNLP dataset JSON file and writes it as .lu.
func ConvertDataset(fsys fsutil.FileSystem, inPath, outPath string) error {
	data, err := fsys.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	var items []DatasetItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse dataset %s: %w", inPath, err)
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := fsys.WriteFile(outPath, []byte(DatasetToLU(items)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	monitoring.Written(outPath)
	return nil
}
