package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/sirupsen/logrus"
)

// Rendered describes one chart file written by RenderAll.
type Rendered struct {
	Name  string
	Title string
	Path  string
}

// ForMetric builds the line chart of a per-version metric.
func ForMetric(metric analysis.Metric, runs []*benchlog.Run, batchSize int64) (*Chart, error) {
	series, err := analysis.BuildSeries(metric, runs, batchSize)
	if err != nil {
		return nil, err
	}

	return Line(metric.Label(), metric.Label(), series)
}

// summaryBars lists the bar charts drawn from run summaries.
var summaryBars = []struct {
	name, title string
	value       func(analysis.Summary) float64
}{
	{"summary_ops_per_sec", "Ops/Sec", func(s analysis.Summary) float64 { return s.OpsPerSec }},
	{"summary_max_mem_gb", "Max Mem (GB)", func(s analysis.Summary) float64 { return s.MaxMemGB }},
	{"summary_max_disk_gb", "Max Disk (GB)", func(s analysis.Summary) float64 { return s.MaxDiskGB }},
}

// RenderAll writes every chart of runs into dir. Charts without data are
// skipped.
func RenderAll(
	log logrus.FieldLogger,
	dir string,
	format Format,
	runs []*benchlog.Run,
	batchSize int64,
) ([]Rendered, error) {
	log = log.WithField("component", "chart")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart dir: %w", err)
	}

	var out []Rendered

	save := func(name, title string, c *Chart, err error) error {
		if errors.Is(err, ErrNoData) {
			log.WithField("chart", name).Debug("Skipping chart without data")

			return nil
		}

		if err != nil {
			return fmt.Errorf("building %s chart: %w", name, err)
		}

		path := filepath.Join(dir, name+"."+string(format))
		if err := c.Save(path); err != nil {
			return err
		}

		out = append(out, Rendered{Name: name, Title: title, Path: path})

		return nil
	}

	names := make([]string, 0, len(runs))
	summaries := make([]analysis.Summary, 0, len(runs))

	for _, run := range runs {
		names = append(names, run.Name)
		summaries = append(summaries, analysis.SummarizeRun(run))
	}

	for _, bar := range summaryBars {
		values := make([]float64, 0, len(summaries))
		for _, s := range summaries {
			values = append(values, bar.value(s))
		}

		c, err := Bar(bar.title, bar.title, names, values)
		if err := save(bar.name, bar.title, c, err); err != nil {
			return nil, err
		}
	}

	for _, metric := range analysis.Metrics {
		c, err := ForMetric(metric, runs, batchSize)
		if err := save(string(metric), metric.Label(), c, err); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"dir":    dir,
		"charts": len(out),
	}).Info("Rendered charts")

	return out, nil
}
