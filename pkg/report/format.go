package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// formatDuration formats a duration as "2h 30m 15s", dropping leading zero
// units.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// formatMinutes formats fractional minutes as a duration.
func formatMinutes(m float64) string {
	if m <= 0 {
		return "-"
	}

	return formatDuration(time.Duration(m * float64(time.Minute)).Round(time.Second))
}

// formatOps formats a throughput figure with thousands separators.
func formatOps(ops float64) string {
	return humanize.CommafWithDigits(ops, 1)
}

// formatGB formats a decimal gigabyte figure.
func formatGB(gb float64) string {
	return fmt.Sprintf("%.2f", gb)
}

// formatCount formats an integer with thousands separators.
func formatCount(n int64) string {
	return humanize.Comma(n)
}

// formatBytes formats a byte count using decimal units, e.g. "1.2 GB".
func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}

	return humanize.Bytes(uint64(n))
}

// escapeCell makes s safe inside a markdown table cell.
func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
