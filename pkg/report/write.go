package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/ethpandaops/benchviz/pkg/chart"
	"github.com/sirupsen/logrus"
)

const (
	markdownFile = "README.md"
	chartsDir    = "charts"
	tablesDir    = "tables"
)

// Options controls Write.
type Options struct {
	Title       string
	BatchSize   int64
	ChartFormat chart.Format
}

// Written lists what Write produced. Paths are absolute or relative to the
// working directory, like the dir given to Write.
type Written struct {
	Markdown string
	Charts   []chart.Rendered
	Tables   []string
	Summary  []string
}

// Write renders a complete report of runs into dir: charts, a markdown
// report referencing them, summary.json and summary.csv, and the raw
// tables of every run as CSV.
func Write(log logrus.FieldLogger, dir string, runs []*benchlog.Run, opts Options) (*Written, error) {
	log = log.WithField("component", "report")

	if err := CheckChangesets(runs); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}

	format := opts.ChartFormat
	if format == "" {
		format = chart.FormatPNG
	}

	rendered, err := chart.RenderAll(log, filepath.Join(dir, chartsDir), format, runs, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	refs := make([]ChartRef, 0, len(rendered))
	for _, r := range rendered {
		refs = append(refs, ChartRef{
			Title: r.Title,
			Path:  chartsDir + "/" + filepath.Base(r.Path),
		})
	}

	md, err := GenerateMarkdown(runs, MarkdownOptions{Title: opts.Title, Charts: refs})
	if err != nil {
		return nil, err
	}

	out := &Written{
		Markdown: filepath.Join(dir, markdownFile),
		Charts:   rendered,
	}

	if err := os.WriteFile(out.Markdown, []byte(md), 0o644); err != nil { //nolint:gosec // report is world readable
		return nil, fmt.Errorf("writing markdown: %w", err)
	}

	summaries := make([]analysis.Summary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, analysis.SummarizeRun(run))
	}

	for _, f := range []Format{FormatJSON, FormatCSV} {
		var buf bytes.Buffer
		if err := WriteSummary(&buf, f, summaries); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, "summary."+string(f))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // report is world readable
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}

		out.Summary = append(out.Summary, path)
	}

	for _, run := range runs {
		paths, err := WriteRunTables(filepath.Join(dir, tablesDir), run)
		if err != nil {
			return nil, err
		}

		out.Tables = append(out.Tables, paths...)
	}

	log.WithFields(logrus.Fields{
		"dir":    dir,
		"runs":   len(runs),
		"charts": len(rendered),
	}).Info("Report written")

	return out, nil
}

// CheckChangesets returns ErrChangesetMismatch if runs replayed different
// changeset dirs. Runs without a changeset dir are ignored.
func CheckChangesets(runs []*benchlog.Run) error {
	views := make([]runView, 0, len(runs))

	for _, run := range runs {
		cfg, err := run.Config()
		if err != nil {
			return err
		}

		views = append(views, runView{run: run, cfg: cfg})
	}

	_, err := sharedChangeset(views)

	return err
}
