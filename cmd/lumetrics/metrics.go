package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/pipeline"
	"github.com/banshee-data/lu-metrics/internal/report"
)

// targetSet returns nil for an empty list so that every label is kept.
func targetSet(labels []string) map[string]bool {
	if len(labels) == 0 {
		return nil
	}
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}

func newConvertCommand() *cobra.Command {
	var predictions, outDir string
	var intents []string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write the intent and entity confusion reports of a predictions file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := report.Targets{Intents: targetSet(intents)}
			res, err := report.Convert(fsutil.OSFileSystem{}, predictions, outDir, targets)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d intent rows, %d entity rows written to %s\n",
				len(res.Intents), len(res.Entities), outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&predictions, "predictions", "p", "predictions.json", "Normalized predictions file")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory for the report files")
	cmd.Flags().StringSliceVar(&intents, "intents", nil, "Only judge utterances whose gold intent is listed (comma-separated); all when empty")
	return cmd
}

func parseSources(args []string) ([]pipeline.Source, error) {
	sources := make([]pipeline.Source, 0, len(args))
	for _, a := range args {
		src, err := pipeline.ParseSource(a)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func newStatCommand(flags *rootFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "stat [description=]dir...",
		Short: "Aggregate report files of one or more result directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := parseSources(args)
			if err != nil {
				return err
			}
			store, err := openConfiguredStore(flags.opts)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			fsys := fsutil.OSFileSystem{}
			p := pipeline.New(fsys, flags.opts)
			p.Exporters = exportersFor(fsys, flags.opts, store)
			runs, err := p.CollectStats(cmd.Context(), sources, outDir)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs, flags.opts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory for <task>_stat.json and <task>_stat.txt")
	return cmd
}

func newPlotCommand(flags *rootFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "plot [description=]dir...",
		Short: "Draw bar charts, threshold curves, confusion heatmaps and a dashboard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := parseSources(args)
			if err != nil {
				return err
			}
			return pipeline.New(fsutil.OSFileSystem{}, flags.opts).Plot(cmd.Context(), sources, outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "charts", "Output directory for the charts")
	return cmd
}

func newProduceCommand(flags *rootFlags) *cobra.Command {
	var predictions, modelPath, outDir string
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Convert a predictions file and collect its statistics using a model's labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfiguredStore(flags.opts)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			fsys := fsutil.OSFileSystem{}
			p := pipeline.New(fsys, flags.opts)
			p.Exporters = exportersFor(fsys, flags.opts, store)
			runs, err := p.ProduceMetrics(cmd.Context(), predictions, outDir, modelPath)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs, flags.opts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&predictions, "predictions", "p", "predictions.json", "Normalized predictions file")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "LUIS model JSON providing the label sets")
	cmd.Flags().StringVarP(&outDir, "out", "o", "metrics", "Output directory for reports and statistics")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
