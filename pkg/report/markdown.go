package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
)

// ErrChangesetMismatch is returned when the runs of one report replayed
// different changesets and are therefore not comparable.
var ErrChangesetMismatch = errors.New("runs have different changeset dirs")

// ChartRef links a rendered chart into the report.
type ChartRef struct {
	Title string
	Path  string
}

// MarkdownOptions controls GenerateMarkdown.
type MarkdownOptions struct {
	Title  string
	Charts []ChartRef
}

// runView is the per-run data a report needs, decoded once.
type runView struct {
	run     *benchlog.Run
	cfg     *benchlog.RunConfig
	summary analysis.Summary
}

// GenerateMarkdown renders a comparison report of runs.
func GenerateMarkdown(runs []*benchlog.Run, opts MarkdownOptions) (string, error) {
	views := make([]runView, 0, len(runs))

	for _, run := range runs {
		cfg, err := run.Config()
		if err != nil {
			return "", err
		}

		views = append(views, runView{run: run, cfg: cfg, summary: analysis.SummarizeRun(run)})
	}

	changeset, err := sharedChangeset(views)
	if err != nil {
		return "", err
	}

	title := opts.Title
	if title == "" {
		title = "Benchmark Results"
	}

	var sb strings.Builder

	sb.Grow(4096)

	fmt.Fprintf(&sb, "# %s\n\n", title)

	summaries := make([]analysis.Summary, 0, len(views))
	for _, v := range views {
		summaries = append(summaries, v.summary)
	}

	if len(summaries) > 0 {
		sb.WriteString("## Summary\n\n")
		writeSummaryTable(&sb, summaries)
	}

	writeCharts(&sb, opts.Charts)
	writeChangeset(&sb, changeset)

	for _, v := range views {
		writeRun(&sb, v)
	}

	fmt.Fprintf(&sb, "_Showing data from %d benchmark logs._\n", len(views))

	return sb.String(), nil
}

// sharedChangeset returns the config of the first run that has one and
// checks that every other run replayed the same changeset dir.
func sharedChangeset(views []runView) (*benchlog.RunConfig, error) {
	var first *benchlog.RunConfig

	for _, v := range views {
		if v.cfg == nil || v.cfg.ChangesetDir == "" {
			continue
		}

		if first == nil {
			first = v.cfg

			continue
		}

		if v.cfg.ChangesetDir != first.ChangesetDir {
			return nil, fmt.Errorf("%w: %s uses %q, expected %q",
				ErrChangesetMismatch, v.run.Name, v.cfg.ChangesetDir, first.ChangesetDir)
		}
	}

	return first, nil
}

func writeCharts(sb *strings.Builder, charts []ChartRef) {
	if len(charts) == 0 {
		return
	}

	sb.WriteString("## Performance Over Time\n\n")

	for _, c := range charts {
		fmt.Fprintf(sb, "### %s\n\n![%s](%s)\n\n", c.Title, c.Title, c.Path)
	}
}

func writeChangeset(sb *strings.Builder, cfg *benchlog.RunConfig) {
	if cfg == nil {
		return
	}

	sb.WriteString("## Changeset\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")
	fmt.Fprintf(sb, "| Changeset Dir | `%s` |\n", cfg.ChangesetDir)
	fmt.Fprintf(sb, "| Changeset Versions | %s |\n", formatCount(cfg.ChangesetInfo.Versions))
	sb.WriteByte('\n')

	for _, store := range cfg.ChangesetInfo.StoreParams {
		fmt.Fprintf(sb, "Store: `%s`\n\n", store.StoreKey)
		fmt.Fprintf(sb, "* Initial Size=`%s` -> Final Size=`%s` (over `%d` versions)\n",
			formatCount(store.InitialSize), formatCount(store.FinalSize), store.Versions)
		fmt.Fprintf(sb, "* K mean=`%g`, stddev=`%g`, V mean=`%g`, stddev=`%g`\n",
			store.KeyMean, store.KeyStdDev, store.ValueMean, store.ValueStdDev)
		fmt.Fprintf(sb, "* Change per version=`%g`, delete fraction=`%g`\n\n",
			store.ChangePerVersion, store.DeleteFraction)
	}
}

func writeRun(sb *strings.Builder, v runView) {
	run := v.run

	fmt.Fprintf(sb, "## %s\n\n", run.Name)
	fmt.Fprintf(sb, "`%d` Versions Successfully Committed\n\n", run.Versions.Len())

	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")

	if run.StartTime != nil {
		fmt.Fprintf(sb, "| Started | %s |\n", run.StartTime.Format("2006-01-02 15:04:05 UTC"))
	}

	if run.RunCompleteTime != nil {
		fmt.Fprintf(sb, "| Completed | %s |\n", run.RunCompleteTime.Format("2006-01-02 15:04:05 UTC"))
	} else {
		sb.WriteString("| Completed | no |\n")
	}

	if v.summary.ElapsedMinutes > 0 {
		fmt.Fprintf(sb, "| Elapsed | %s |\n", formatMinutes(v.summary.ElapsedMinutes))
	}

	fmt.Fprintf(sb, "| Ops/Sec | %s |\n", formatOps(v.summary.OpsPerSec))

	if m, ok := run.Memory.Last(); ok {
		fmt.Fprintf(sb, "| Final Heap Alloc | %s |\n", formatBytes(m.Alloc))
	}

	if d, ok := run.Disk.Last(); ok {
		fmt.Fprintf(sb, "| Final Disk Size | %s |\n", formatBytes(d.Size))
	}

	if run.ReportedVersionsApplied != nil {
		fmt.Fprintf(sb, "| Reported Versions Applied | %s |\n", formatCount(*run.ReportedVersionsApplied))
	}

	if cfg := v.cfg; cfg != nil {
		if cfg.StartVersion != 0 {
			fmt.Fprintf(sb, "| Start Version | %d |\n", cfg.StartVersion)
		}

		if cfg.TargetVersion != 0 {
			fmt.Fprintf(sb, "| Target Version | %d |\n", cfg.TargetVersion)
		}

		if cfg.TreeType != "" {
			fmt.Fprintf(sb, "| Tree Type | %s |\n", escapeCell(cfg.TreeType))
		}
	}

	sb.WriteByte('\n')

	if v.cfg != nil && v.cfg.DBOptions != nil {
		if data, err := json.MarshalIndent(v.cfg.DBOptions, "", "  "); err == nil {
			sb.WriteString("DB Options:\n\n```json\n")
			sb.Write(data)
			sb.WriteString("\n```\n\n")
		}
	}

	writeSnapshots(sb, run.Snapshots)
}

func writeSnapshots(sb *strings.Builder, snaps *benchlog.Table[benchlog.SnapshotEvent]) {
	if snaps == nil || snaps.Empty() {
		return
	}

	sb.WriteString("### Memiavl Snapshots\n\n")
	sb.WriteString("| Version | Started | Rewrite | WAL Catchup | Sync | Switch Version |\n")
	sb.WriteString("|---:|---|---:|---:|---:|---:|\n")

	for _, ev := range snaps.Rows() {
		switchVersion := "-"
		if !ev.SwitchTime.IsZero() {
			switchVersion = fmt.Sprintf("%d", ev.SwitchVersion)
		}

		fmt.Fprintf(sb, "| %d | %s | %s | %s | %s | %s |\n",
			ev.Version,
			ev.Start.Format(time.DateTime),
			phase(ev.Duration),
			phase(ev.CatchupDuration),
			phase(ev.SyncDuration),
			switchVersion,
		)
	}

	sb.WriteByte('\n')
}

// phase formats a lifecycle phase duration, "-" when it was not observed.
func phase(d time.Duration) string {
	if d == 0 {
		return "-"
	}

	return formatDuration(d)
}
