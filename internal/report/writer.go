package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

// Report base names; each is written once as .json and once as .tsv.
const (
	IntentReportName = "ClassificationErrorAnalysisReport"
	EntityReportName = "EntitiesErrorAnalysisReport"
)

var (
	intentColumns = []string{"DocumentId", "ConfusionType", "Class", "Score", "Text"}
	entityColumns = []string{"DocumentId", "ConfusionType", "Entity", "Score", "StartIndex", "Length", "Phrase", "Context"}
)

// artifact is an encoded file waiting to be written.
type artifact struct {
	name string
	data []byte
}

func encodeIntentReport(rows []lu.IntentRow) ([]artifact, error) {
	if rows == nil {
		rows = []lu.IntentRow{}
	}
	return encodeReport(IntentReportName, rows, intentColumns, func(r lu.IntentRow) []string {
		return []string{r.DocumentId, string(r.ConfusionType), r.Class, formatScore(r.Score), r.Text}
	})
}

func encodeEntityReport(rows []lu.EntityRow) ([]artifact, error) {
	if rows == nil {
		rows = []lu.EntityRow{}
	}
	return encodeReport(EntityReportName, rows, entityColumns, func(r lu.EntityRow) []string {
		return []string{
			r.DocumentId, string(r.ConfusionType), r.Entity, formatScore(r.Score),
			strconv.Itoa(r.StartIndex), strconv.Itoa(r.Length), r.Phrase, r.Context,
		}
	})
}

func encodeReport[T any](base string, rows []T, header []string, fields func(T) []string) ([]artifact, error) {
	var js bytes.Buffer
	enc := json.NewEncoder(&js)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("encode %s.json: %w", base, err)
	}

	var tsv bytes.Buffer
	w := csv.NewWriter(&tsv)
	w.Comma = '\t'
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("encode %s.tsv: %w", base, err)
	}
	for _, r := range rows {
		if err := w.Write(fields(r)); err != nil {
			return nil, fmt.Errorf("encode %s.tsv: %w", base, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode %s.tsv: %w", base, err)
	}

	return []artifact{
		{name: base + ".json", data: js.Bytes()},
		{name: base + ".tsv", data: tsv.Bytes()},
	}, nil
}

// formatScore renders a score the shortest way that round-trips; a null
// score is an empty cell.
func formatScore(s *float64) string {
	if s == nil {
		return ""
	}
	return strconv.FormatFloat(*s, 'g', -1, 64)
}

func writeArtifacts(fsys fsutil.FileSystem, dir string, arts []artifact) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	for _, a := range arts {
		path := filepath.Join(dir, a.name)
		if err := fsys.WriteFile(path, a.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		monitoring.Written(path)
	}
	return nil
}

// WriteIntentReport writes the intent report as JSON and TSV into dir.
func WriteIntentReport(fsys fsutil.FileSystem, dir string, rows []lu.IntentRow) error {
	arts, err := encodeIntentReport(rows)
	if err != nil {
		return err
	}
	return writeArtifacts(fsys, dir, arts)
}

// WriteEntityReport writes the entity report as JSON and TSV into dir.
func WriteEntityReport(fsys fsutil.FileSystem, dir string, rows []lu.EntityRow) error {
	arts, err := encodeEntityReport(rows)
	if err != nil {
		return err
	}
	return writeArtifacts(fsys, dir, arts)
}
