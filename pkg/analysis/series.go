package analysis

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/ethpandaops/benchviz/pkg/units"
)

// Metric names a chartable per-version series.
type Metric string

const (
	MetricOps       Metric = "ops"
	MetricMemory    Metric = "memory"
	MetricDisk      Metric = "disk"
	MetricSnapshots Metric = "snapshots"
)

// Metrics lists every supported metric.
var Metrics = []Metric{MetricOps, MetricMemory, MetricDisk, MetricSnapshots}

// ErrUnknownMetric is returned by BuildSeries for unsupported metrics.
var ErrUnknownMetric = errors.New("unknown metric")

// Label returns the axis label of the metric's Y values.
func (m Metric) Label() string {
	switch m {
	case MetricOps:
		return "Ops/Sec"
	case MetricMemory:
		return "Memory (GB)"
	case MetricDisk:
		return "Disk Usage (GB)"
	case MetricSnapshots:
		return "Snapshot Time (min)"
	default:
		return string(m)
	}
}

// Point is one X/Y sample. X is always a version number.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the points of one run.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// BuildSeries returns one series per run for metric. Memory and disk series
// are aligned to the shortest run first. batchSize is only used by the ops
// metric.
func BuildSeries(metric Metric, runs []*benchlog.Run, batchSize int64) ([]Series, error) {
	var points func(*benchlog.Run) []Point

	switch metric {
	case MetricOps:
		points = func(run *benchlog.Run) []Point { return OpsPoints(run, batchSize) }
	case MetricMemory:
		runs = Align(runs)
		points = MemoryPoints
	case MetricDisk:
		runs = Align(runs)
		points = DiskPoints
	case MetricSnapshots:
		points = SnapshotMinutes
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	out := make([]Series, 0, len(runs))
	for _, run := range runs {
		out = append(out, Series{Name: run.Name, Points: points(run)})
	}

	return out, nil
}

// OpsPoints returns batched throughput by version bucket.
func OpsPoints(run *benchlog.Run, batchSize int64) []Point {
	buckets := BatchOpsPerSec(run.Versions, batchSize)
	out := make([]Point, 0, len(buckets))

	for _, b := range buckets {
		out = append(out, Point{X: float64(b.Version), Y: b.OpsPerSec})
	}

	return out
}

// MemoryPoints returns allocated heap in GB by version.
func MemoryPoints(run *benchlog.Run) []Point {
	rows := run.Memory.Rows()
	out := make([]Point, 0, len(rows))

	for _, m := range rows {
		out = append(out, Point{X: float64(m.Version), Y: units.BytesToGB(m.Alloc)})
	}

	return out
}

// DiskPoints returns on-disk size in GB by version.
func DiskPoints(run *benchlog.Run) []Point {
	rows := run.Disk.Rows()
	out := make([]Point, 0, len(rows))

	for _, d := range rows {
		out = append(out, Point{X: float64(d.Version), Y: units.BytesToGB(d.Size)})
	}

	return out
}

// SnapshotMinutes returns the rewrite duration of every finished snapshot
// in minutes, keyed by the version the rewrite started at.
func SnapshotMinutes(run *benchlog.Run) []Point {
	out := make([]Point, 0)
	if run.Snapshots == nil {
		return out
	}

	for _, ev := range run.Snapshots.Rows() {
		if ev.End.IsZero() {
			continue
		}

		out = append(out, Point{X: float64(ev.Version), Y: ev.Duration.Minutes()})
	}

	return out
}
