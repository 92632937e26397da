// Package report renders parsed benchmark runs as text tables, markdown,
// JSON, YAML and CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format is a summary output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
)

// Formats lists every supported summary format.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown format %q", s)
}

var summaryColumns = []string{
	"Name", "Ops/Sec", "Max Mem (GB)", "Max Disk (GB)", "Versions", "Elapsed", "Completed",
}

// WriteSummary writes the summary rows to w in the given format.
func WriteSummary(w io.Writer, format Format, rows []analysis.Summary) error {
	switch format {
	case FormatText:
		writeSummaryText(w, rows)

		return nil
	case FormatMarkdown:
		var sb strings.Builder

		writeSummaryTable(&sb, rows)

		_, err := io.WriteString(w, sb.String())

		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if rows == nil {
			rows = []analysis.Summary{}
		}

		return enc.Encode(rows)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}

		return enc.Close()
	case FormatCSV:
		return WriteCSV(w, summaryRecords(rows))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeSummaryText(w io.Writer, rows []analysis.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(summaryColumns)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_CENTER,
	})

	for _, s := range rows {
		table.Append(summaryCells(s))
	}

	table.Render()
}

func writeSummaryTable(sb *strings.Builder, rows []analysis.Summary) {
	sb.WriteString("| " + strings.Join(summaryColumns, " | ") + " |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|:---:|\n")

	for _, s := range rows {
		cells := summaryCells(s)
		for i := range cells {
			cells[i] = escapeCell(cells[i])
		}

		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	sb.WriteByte('\n')
}

func summaryCells(s analysis.Summary) []string {
	completed := "no"
	if s.Completed {
		completed = "yes"
	}

	return []string{
		s.Name,
		formatOps(s.OpsPerSec),
		formatGB(s.MaxMemGB),
		formatGB(s.MaxDiskGB),
		formatCount(int64(s.VersionsApplied)),
		formatMinutes(s.ElapsedMinutes),
		completed,
	}
}

// summaryRecords returns machine-readable rows: raw numbers, no separators.
func summaryRecords(rows []analysis.Summary) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, []string{
		"name", "ops_per_sec", "max_mem_gb", "max_disk_gb",
		"versions_applied", "elapsed_minutes", "completed",
	})

	for _, s := range rows {
		out = append(out, []string{
			s.Name,
			strconv.FormatFloat(s.OpsPerSec, 'f', -1, 64),
			strconv.FormatFloat(s.MaxMemGB, 'f', -1, 64),
			strconv.FormatFloat(s.MaxDiskGB, 'f', -1, 64),
			strconv.Itoa(s.VersionsApplied),
			strconv.FormatFloat(s.ElapsedMinutes, 'f', -1, 64),
			strconv.FormatBool(s.Completed),
		})
	}

	return out
}

// WriteCSV writes records, header first, as CSV.
func WriteCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	return nil
}
