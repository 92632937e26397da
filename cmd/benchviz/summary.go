package main

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/report"
	"github.com/spf13/cobra"
)

var (
	summaryFormat string
	summaryNames  []string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print a one-row summary of every run",
	RunE:  runSummary,
}

func init() {
	formats := make([]string, 0, len(report.Formats))
	for _, f := range report.Formats {
		formats = append(formats, string(f))
	}

	summaryCmd.Flags().StringVar(&summaryFormat, "format", string(report.FormatText),
		"output format ("+strings.Join(formats, ", ")+")")
	summaryCmd.Flags().StringSliceVar(&summaryNames, "names", nil,
		"runs to include, in order (default: all)")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(summaryFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runs, err := loadRuns(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rows, err := analysis.Summarize(runs, summaryNames...)
	if err != nil {
		return fmt.Errorf("summarizing runs: %w", err)
	}

	return report.WriteSummary(cmd.OutOrStdout(), format, rows)
}
