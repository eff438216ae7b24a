package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/luis"
	"github.com/banshee-data/lu-metrics/internal/pipeline"
)

func newLuisCommand() *cobra.Command {
	luisCmd := &cobra.Command{
		Use:   "luis",
		Short: "Import LUIS test output and datasets",
	}

	var modelPath, goldPath, logPath, outDir string
	predictionsCmd := &cobra.Command{
		Use:   "predictions",
		Short: "Build predictions.json from a LUIS model, test set and prediction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pipeline.New(fsutil.OSFileSystem{}, nil).ImportPredictions(modelPath, goldPath, logPath, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	predictionsCmd.Flags().StringVarP(&modelPath, "model", "m", "", "LUIS model JSON")
	predictionsCmd.Flags().StringVarP(&goldPath, "gold", "g", "", "Gold test set JSON")
	predictionsCmd.Flags().StringVarP(&logPath, "log", "l", "", "Prediction log JSON")
	predictionsCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	for _, name := range []string{"model", "gold", "log"} {
		_ = predictionsCmd.MarkFlagRequired(name)
	}

	var inPath, outPath string
	luCmd := &cobra.Command{
		Use:   "lu",
		Short: "Convert a LuisNLP dataset JSON file to .lu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return luis.ConvertDataset(fsutil.OSFileSystem{}, inPath, outPath)
		},
	}
	luCmd.Flags().StringVarP(&inPath, "in", "i", "", "Dataset JSON")
	luCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output .lu file")
	_ = luCmd.MarkFlagRequired("in")
	_ = luCmd.MarkFlagRequired("out")

	luisCmd.AddCommand(predictionsCmd)
	luisCmd.AddCommand(luCmd)
	return luisCmd
}
