package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	headerColor = color.New(color.FgHiBlack)
)

// printRuns writes each run's table with a highlighted title and column
// header.
func printRuns(w io.Writer, runs []stats.Run, opts *config.Options) {
	tableOpts := stats.TableOptions{Counts: opts.GetCounts(), Totals: opts.GetTotals()}
	for i, r := range runs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		titleColor.Fprintln(w, r.Name)
		table := stats.Table(r.Stat, r.Labels(), tableOpts)
		header, rows, _ := strings.Cut(table, "\n")
		headerColor.Fprintln(w, header)
		io.WriteString(w, rows)
	}
}
