// Package analysis derives scalar metrics, summaries and chart series from
// parsed benchmark runs. Every function accepts empty tables and returns a
// zero value for them instead of failing.
package analysis

import (
	"time"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/ethpandaops/benchviz/pkg/units"
)

// TotalOpsPerSec returns the run's overall throughput: the sum of all
// committed operations divided by the summed commit durations.
func TotalOpsPerSec(run *benchlog.Run) float64 {
	var (
		count    int64
		duration time.Duration
	)

	for _, v := range run.Versions.Rows() {
		count += v.Count
		duration += v.Duration
	}

	return opsPerSec(count, duration)
}

// MaxMemGB returns the peak allocated heap in decimal gigabytes.
func MaxMemGB(run *benchlog.Run) float64 {
	var peak int64

	for _, m := range run.Memory.Rows() {
		peak = max(peak, m.Alloc)
	}

	return units.BytesToGB(peak)
}

// MaxDiskGB returns the peak on-disk size in decimal gigabytes.
func MaxDiskGB(run *benchlog.Run) float64 {
	var peak int64

	for _, d := range run.Disk.Rows() {
		peak = max(peak, d.Size)
	}

	return units.BytesToGB(peak)
}

// VersionsApplied returns the number of committed versions.
func VersionsApplied(run *benchlog.Run) int {
	return run.Versions.Len()
}

// ElapsedTimeMinutes returns the wall-clock time from the "starting run"
// record to the end of the run. The end is the completion record when one
// was logged, otherwise the last committed version. It returns 0 when either
// boundary is unknown.
func ElapsedTimeMinutes(run *benchlog.Run) float64 {
	if run.StartTime == nil {
		return 0
	}

	var end time.Time

	switch last, ok := run.Versions.Last(); {
	case run.RunCompleteTime != nil:
		end = *run.RunCompleteTime
	case ok:
		end = last.Timestamp
	default:
		return 0
	}

	return end.Sub(*run.StartTime).Minutes()
}

func opsPerSec(count int64, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}

	return float64(count) / duration.Seconds()
}
