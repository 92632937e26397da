package main

import (
	"fmt"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/chart"
	"github.com/ethpandaops/benchviz/pkg/report"
	"github.com/ethpandaops/benchviz/pkg/upload"
	"github.com/spf13/cobra"
)

var (
	reportOutput string
	reportTitle  string
	reportNames  []string
	reportUpload bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a markdown report with charts and CSV tables",
	Long: `Write a complete comparison report of the runs: a README.md with the
summary, charts and per-run details, summary.json, summary.csv and the raw
tables of every run. With --upload the report directory is published to S3.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "", "output directory (default: report.output_dir)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "report title")
	reportCmd.Flags().StringSliceVar(&reportNames, "names", nil, "runs to include, in order (default: all)")
	reportCmd.Flags().BoolVar(&reportUpload, "upload", false, "upload the report to S3 (report.upload)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if reportOutput != "" {
		cfg.Report.OutputDir = reportOutput
	}

	uploadCfg := cfg.Report.Upload
	doUpload := reportUpload || uploadCfg.Enabled

	var uploader upload.Uploader

	// Fail fast on upload misconfiguration before parsing any logs.
	if doUpload {
		uploader, err = upload.NewS3Uploader(log, &uploadCfg)
		if err != nil {
			return fmt.Errorf("creating S3 uploader: %w", err)
		}

		if err := uploader.Preflight(cmd.Context()); err != nil {
			return fmt.Errorf("upload preflight: %w", err)
		}
	}

	format, err := chart.ParseFormat(cfg.Report.ChartFormat)
	if err != nil {
		return err
	}

	collection, err := loadRuns(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	runs, err := analysis.Select(collection, reportNames...)
	if err != nil {
		return err
	}

	written, err := report.Write(log, cfg.Report.OutputDir, runs, report.Options{
		Title:       reportTitle,
		BatchSize:   cfg.Report.BatchSize,
		ChartFormat: format,
	})
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	log.WithField("markdown", written.Markdown).Info("Report generated successfully")

	if uploader == nil {
		return nil
	}

	location, err := uploader.Upload(cmd.Context(), cfg.Report.OutputDir)
	if err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}

	log.WithField("location", location).Info("Report uploaded")

	return nil
}
