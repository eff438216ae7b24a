package config

import (
	"sort"

	"github.com/banshee-data/lu-metrics/internal/lu"
)

// Report file names consumed by collect-stats.
const (
	IntentReportFile = "ClassificationErrorAnalysisReport.json"
	EntityReportFile = "EntitiesErrorAnalysisReport.json"
)

// DefaultOptions returns the options of the to-do skill benchmark the tool
// was first built for.
func DefaultOptions() *Options {
	return &Options{
		CollectStat: &CollectStatOptions{
			Enable: ptrBool(true),
			Mode:   ptrString(ModePooled),
			Totals: ptrBool(true),
			Counts: ptrBool(true),
			Intent: &TaskOptions{
				Files: []string{IntentReportFile},
				LabelSet: []string{
					"ACTION_ADDACTION_LX",
					"ACTION_DELETEACTION_LX",
					"ACTION_SHOWACTION_LX",
					"ACTION_UPDATEACTION_LX",
				},
				LabelKey: lu.LabelKeyIntent,
				PrintLabelOrder: []string{
					"ACTION_ADDACTION_LX",
					"ACTION_DELETEACTION_LX",
					"ACTION_SHOWACTION_LX",
					"ACTION_UPDATEACTION_LX",
				},
			},
			Entity: &TaskOptions{
				Files: []string{EntityReportFile},
				LabelSet: []string{
					"ACTION_ASSIGNEE",
					"ACTION_DUEDATE",
					"ACTION_PRIORITY",
					"ACTION_TASKCONTENT",
					"ACTION_TASKID",
				},
				LabelKey: lu.LabelKeyEntity,
				PrintLabelOrder: []string{
					"ACTION_PRIORITY",
					"ACTION_TASKCONTENT",
					"ACTION_TASKID",
					"ACTION_ASSIGNEE",
					"ACTION_DUEDATE",
				},
			},
		},
		Plot: &PlotOptions{
			Bars:       ptrBool(true),
			Curves:     ptrBool(true),
			Confusion:  ptrBool(true),
			Dashboard:  ptrBool(true),
			Thresholds: []float64{0, 0.5, 0.8, 0.9},
			XAxis:      ptrString("Precision"),
			YAxis:      ptrString("Recall"),
		},
	}
}

// ForModel returns collect-stats options whose label sets and print orders
// are the sorted intents and entities of a model.
func ForModel(intents, entities []string) *Options {
	in := sortedCopy(intents)
	ent := sortedCopy(entities)
	return &Options{
		CollectStat: &CollectStatOptions{
			Enable: ptrBool(true),
			Mode:   ptrString(ModePooled),
			Totals: ptrBool(true),
			Counts: ptrBool(true),
			Intent: &TaskOptions{
				Files:           []string{IntentReportFile},
				LabelSet:        in,
				LabelKey:        lu.LabelKeyIntent,
				PrintLabelOrder: in,
			},
			Entity: &TaskOptions{
				Files:           []string{EntityReportFile},
				LabelSet:        ent,
				LabelKey:        lu.LabelKeyEntity,
				PrintLabelOrder: ent,
			},
		},
	}
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
