package main

import (
	"fmt"
	"path/filepath"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/chart"
	"github.com/spf13/cobra"
)

var (
	chartOutput    string
	chartBatchSize int64
	chartFormat    string
	chartNames     []string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render summary and per-version charts",
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartOutput, "output", "", "output directory (default: <report.output_dir>/charts)")
	chartCmd.Flags().Int64Var(&chartBatchSize, "batch-size", 0, "versions per throughput bucket (default: report.batch_size)")
	chartCmd.Flags().StringVar(&chartFormat, "format", "", "image format, png or svg (default: report.chart_format)")
	chartCmd.Flags().StringSliceVar(&chartNames, "names", nil, "runs to include, in order (default: all)")

	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if chartFormat == "" {
		chartFormat = cfg.Report.ChartFormat
	}

	format, err := chart.ParseFormat(chartFormat)
	if err != nil {
		return err
	}

	if chartOutput == "" {
		chartOutput = filepath.Join(cfg.Report.OutputDir, "charts")
	}

	if chartBatchSize <= 0 {
		chartBatchSize = cfg.Report.BatchSize
	}

	collection, err := loadRuns(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	runs, err := analysis.Select(collection, chartNames...)
	if err != nil {
		return err
	}

	rendered, err := chart.RenderAll(log, chartOutput, format, runs, chartBatchSize)
	if err != nil {
		return err
	}

	for _, r := range rendered {
		fmt.Fprintln(cmd.OutOrStdout(), r.Path)
	}

	return nil
}
