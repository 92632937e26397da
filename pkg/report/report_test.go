package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "sub-second", duration: 500 * time.Millisecond, expected: "500ms"},
		{name: "seconds only", duration: 45 * time.Second, expected: "45s"},
		{name: "minutes and seconds", duration: 10*time.Minute + 8*time.Second, expected: "10m 8s"},
		{name: "hours minutes seconds", duration: 2*time.Hour + 30*time.Minute + 15*time.Second, expected: "2h 30m 15s"},
		{name: "zero", duration: 0, expected: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1.2 GB", formatBytes(1_200_000_000))
	assert.Equal(t, "12 kB", formatBytes(12_000))
	assert.Equal(t, "1,000,000", formatCount(1_000_000))
	assert.Equal(t, "12,345.6", formatOps(12345.6))
	assert.Equal(t, "1h 30m 0s", formatMinutes(90))
	assert.Equal(t, "-", formatMinutes(0))
	assert.Equal(t, `a\|b c`, escapeCell("a|b\nc"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

var summaries = []analysis.Summary{
	{Name: "memiavl", OpsPerSec: 12345.6, MaxMemGB: 3.5, MaxDiskGB: 10.25, VersionsApplied: 1000, ElapsedMinutes: 90, Completed: true},
	{Name: "iavl|v1", OpsPerSec: 15, VersionsApplied: 2},
}

func TestWriteSummary(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, FormatText, summaries))

		out := buf.String()
		assert.Contains(t, out, "Max Mem (GB)")
		assert.Contains(t, out, "memiavl")
		assert.Contains(t, out, "12,345.6")
		assert.Contains(t, out, "1h 30m 0s")
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, FormatMarkdown, summaries))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "| Name | Ops/Sec | Max Mem (GB) | Max Disk (GB) | Versions | Elapsed | Completed |", lines[0])
		assert.Equal(t, "| memiavl | 12,345.6 | 3.50 | 10.25 | 1,000 | 1h 30m 0s | yes |", lines[2])
		assert.Contains(t, lines[3], `iavl\|v1`)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, FormatJSON, summaries))

		var got []analysis.Summary
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, summaries, got)
	})

	t.Run("json empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, FormatJSON, nil))
		assert.Equal(t, "[]\n", buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, FormatYAML, summaries))

		var got []analysis.Summary
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, summaries, got)
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, FormatCSV, summaries[:1]))
		assert.Equal(t,
			"name,ops_per_sec,max_mem_gb,max_disk_gb,versions_applied,elapsed_minutes,completed\n"+
				"memiavl,12345.6,3.5,10.25,1000,90,true\n",
			buf.String())
	})

	t.Run("unknown", func(t *testing.T) {
		require.Error(t, WriteSummary(&bytes.Buffer{}, Format("xml"), summaries))
	})
}

func runWithConfig(name, changesetDir string) *benchlog.Run {
	start := time.Date(2025, 8, 29, 13, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	snaps := benchlog.NewTable([]benchlog.SnapshotEvent{{
		Version:  100,
		Start:    start.Add(time.Minute),
		End:      start.Add(3 * time.Minute),
		Duration: 2 * time.Minute,
	}})

	return &benchlog.Run{
		Name: name,
		InitData: map[string]any{
			"time":           "2025-08-29T13:00:00Z",
			"changeset_dir":  changesetDir,
			"start_version":  float64(5),
			"target_version": float64(0),
			"changeset_info": map[string]any{
				"versions": float64(1000),
				"store_params": []any{map[string]any{
					"store_key":    "bank",
					"initial_size": float64(1_000_000),
					"final_size":   float64(2_000_000),
					"versions":     float64(1000),
				}},
			},
			"db_options": map[string]any{"ZeroCopy": true},
		},
		StartTime:       &start,
		RunCompleteTime: &end,
		Versions: benchlog.NewTable([]benchlog.VersionRow{
			{Version: 1, Timestamp: start, Count: 10, Duration: time.Second},
			{Version: 2, Timestamp: start, Count: 20, Duration: time.Second},
		}),
		Memory:    benchlog.NewTable([]benchlog.MemorySample{{Version: 2, Alloc: 1_200_000_000}}),
		Snapshots: &snaps,
	}
}

func TestGenerateMarkdown(t *testing.T) {
	runs := []*benchlog.Run{runWithConfig("memiavl", "/data/osmo"), runWithConfig("iavl-v1", "/data/osmo")}

	md, err := GenerateMarkdown(runs, MarkdownOptions{
		Charts: []ChartRef{{Title: "Ops/Sec", Path: "charts/ops.png"}},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# Benchmark Results\n"))
	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "![Ops/Sec](charts/ops.png)")
	assert.Contains(t, md, "| Changeset Dir | `/data/osmo` |")
	assert.Contains(t, md, "Store: `bank`")
	assert.Contains(t, md, "* Initial Size=`1,000,000` -> Final Size=`2,000,000` (over `1000` versions)")
	assert.Contains(t, md, "## memiavl")
	assert.Contains(t, md, "`2` Versions Successfully Committed")
	assert.Contains(t, md, "| Start Version | 5 |")
	assert.NotContains(t, md, "Target Version")
	assert.Contains(t, md, "| Final Heap Alloc | 1.2 GB |")
	assert.Contains(t, md, `"ZeroCopy": true`)
	assert.Contains(t, md, "| 100 | 2025-08-29 13:01:00 | 2m 0s | - | - | - |")
	assert.Contains(t, md, "_Showing data from 2 benchmark logs._")
}

func TestGenerateMarkdown_ChangesetMismatch(t *testing.T) {
	runs := []*benchlog.Run{runWithConfig("a", "/data/one"), runWithConfig("b", "/data/two")}

	_, err := GenerateMarkdown(runs, MarkdownOptions{})
	require.ErrorIs(t, err, ErrChangesetMismatch)
}

func TestGenerateMarkdown_Empty(t *testing.T) {
	md, err := GenerateMarkdown(nil, MarkdownOptions{Title: "Nothing"})
	require.NoError(t, err)
	assert.Equal(t, "# Nothing\n\n_Showing data from 0 benchmark logs._\n", md)
}

func TestWriteRunTables(t *testing.T) {
	dir := t.TempDir()
	run := runWithConfig("memiavl", "/data/osmo")

	paths, err := WriteRunTables(dir, run)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	data, err := os.ReadFile(filepath.Join(dir, "memiavl", "versions.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"version,timestamp,count,duration,ops_per_sec\n"+
			"1,2025-08-29T13:00:00Z,10,1000000000,0\n"+
			"2,2025-08-29T13:00:00Z,20,1000000000,0\n",
		string(data))

	data, err = os.ReadFile(filepath.Join(dir, "memiavl", "disk.csv"))
	require.NoError(t, err)
	assert.Equal(t, "version,timestamp,size\n", string(data))

	run.Snapshots = nil
	paths, err = WriteRunTables(dir, run)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}
