package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/lu"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// Tasks lists the tasks in the order they are processed.
var Tasks = []string{config.TaskIntent, config.TaskEntity}

// StatFiles returns the JSON and text output names of a task.
func StatFiles(task string) (jsonName, txtName string) {
	return task + "_stat.json", task + "_stat.txt"
}

type taskOutput struct {
	task  string
	order []string
	runs  []stats.Run
}

// CollectStats aggregates the configured report files of every source for
// each configured task, writes <task>_stat.json and <task>_stat.txt into
// outDir and hands all runs to the exporters. Every task is aggregated
// before anything is written, so an input error leaves outDir untouched.
func (p *Pipeline) CollectStats(ctx context.Context, sources []Source, outDir string) ([]stats.Run, error) {
	if !p.Options.GetCollectStatEnable() {
		monitoring.Logf("collect_stat disabled")
		return nil, nil
	}
	if err := checkSources(sources); err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}

	var outputs []taskOutput
	for _, task := range Tasks {
		t := p.Options.Task(task)
		if t == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runs, err := p.collectTask(task, t, sources)
		if err != nil {
			return nil, fmt.Errorf("collect %s stats: %w", task, err)
		}
		outputs = append(outputs, taskOutput{task: task, order: t.PrintLabelOrder, runs: runs})
	}
	if len(outputs) == 0 {
		return nil, errors.New("collect stats: no task configured")
	}

	if err := p.FS.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outDir, err)
	}
	var all []stats.Run
	for _, out := range outputs {
		if err := p.writeStat(outDir, out); err != nil {
			return nil, err
		}
		all = append(all, out.runs...)
	}

	for _, e := range p.Exporters {
		if err := e.Export(ctx, all); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	return all, nil
}

func (p *Pipeline) collectTask(task string, t *config.TaskOptions, sources []Source) ([]stats.Run, error) {
	mode := p.Options.GetMode()
	if mode == config.ModePooled {
		batches := make([][]lu.Record, 0, len(sources)*len(t.Files))
		for _, src := range sources {
			for _, file := range t.Files {
				recs, err := p.readReport(src, file)
				if err != nil {
					return nil, err
				}
				batches = append(batches, recs)
			}
		}
		st, err := stats.Aggregate(p.statConfig(t), batches...)
		if err != nil {
			return nil, err
		}
		return []stats.Run{{Name: task, Task: task, Mode: mode, Order: t.PrintLabelOrder, Stat: st}}, nil
	}

	var runs []stats.Run
	seen := make(map[string]bool, len(t.Files))
	for _, file := range t.Files {
		if seen[file] {
			return nil, fmt.Errorf("report file %s listed twice", file)
		}
		seen[file] = true
	}
	for _, src := range sources {
		for _, file := range t.Files {
			recs, err := p.readReport(src, file)
			if err != nil {
				return nil, err
			}
			st, err := stats.Aggregate(p.statConfig(t), recs)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Join(src.Dir, file), err)
			}
			runs = append(runs, stats.Run{
				Name:  fmt.Sprintf("%s, %s, %s", src.Description, task, file),
				Task:  task,
				Mode:  mode,
				Order: t.PrintLabelOrder,
				Stat:  st,
			})
		}
	}
	return runs, nil
}

func (p *Pipeline) writeStat(outDir string, out taskOutput) error {
	jsonName, txtName := StatFiles(out.task)

	var doc any
	var table strings.Builder
	opts := stats.TableOptions{Counts: p.Options.GetCounts(), Totals: p.Options.GetTotals()}
	if p.Options.GetTimestamp() {
		opts.Timestamp = p.Clock.Now()
	}
	if p.Options.GetMode() == config.ModePooled {
		doc = out.runs[0].Stat
		table.WriteString(stats.Table(out.runs[0].Stat, out.order, opts))
	} else {
		byName := make(map[string]*stats.AggregateStat, len(out.runs))
		for i, r := range out.runs {
			byName[r.Name] = r.Stat
			if i > 0 {
				table.WriteByte('\n')
			}
			table.WriteString("# " + r.Name + "\n")
			table.WriteString(stats.Table(r.Stat, out.order, opts))
		}
		doc = byName
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", jsonName, err)
	}
	files := []struct {
		name string
		data []byte
	}{{jsonName, data}, {txtName, []byte(table.String())}}
	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := p.FS.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		monitoring.Written(path)
	}
	return nil
}
