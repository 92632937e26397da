package analysis

import (
	"testing"
	"time"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 8, 29, 13, 0, 0, 0, time.UTC)

func versionRows(counts ...int64) []benchlog.VersionRow {
	rows := make([]benchlog.VersionRow, 0, len(counts))
	for i, c := range counts {
		rows = append(rows, benchlog.VersionRow{
			Version:   int64(i + 1),
			Timestamp: t0.Add(time.Duration(i+1) * time.Second),
			Count:     c,
			Duration:  time.Second,
			OpsPerSec: float64(c),
		})
	}

	return rows
}

func newRun(name string, counts ...int64) *benchlog.Run {
	return &benchlog.Run{
		Name:     name,
		Versions: benchlog.NewTable(versionRows(counts...)),
	}
}

type runSet []*benchlog.Run

func (s runSet) Runs() []*benchlog.Run { return s }

func (s runSet) Get(name string) (*benchlog.Run, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Name == name {
			return s[i], true
		}
	}

	return nil, false
}

func TestMetrics_EmptyRun(t *testing.T) {
	run := &benchlog.Run{Name: "empty"}

	assert.Zero(t, TotalOpsPerSec(run))
	assert.Zero(t, MaxMemGB(run))
	assert.Zero(t, MaxDiskGB(run))
	assert.Zero(t, VersionsApplied(run))
	assert.Zero(t, ElapsedTimeMinutes(run))
}

func TestTotalOpsPerSec(t *testing.T) {
	run := newRun("r", 10, 20)

	assert.InDelta(t, 15.0, TotalOpsPerSec(run), 1e-9)
	assert.Equal(t, 2, VersionsApplied(run))
}

func TestTotalOpsPerSec_ZeroDuration(t *testing.T) {
	run := &benchlog.Run{Versions: benchlog.NewTable([]benchlog.VersionRow{{Version: 1, Count: 10}})}

	assert.Zero(t, TotalOpsPerSec(run))
}

func TestMaxMemAndDisk(t *testing.T) {
	run := &benchlog.Run{
		Memory: benchlog.NewTable([]benchlog.MemorySample{
			{Version: 1, Alloc: 1_200_000_000},
			{Version: 2, Alloc: 3_500_000_000},
			{Version: 3, Alloc: 2_000_000_000},
		}),
		Disk: benchlog.NewTable([]benchlog.DiskSample{
			{Version: 1, Size: 500_000_000},
			{Version: 2, Size: 750_000_000},
		}),
	}

	assert.InDelta(t, 3.5, MaxMemGB(run), 1e-9)
	assert.InDelta(t, 0.75, MaxDiskGB(run), 1e-9)
}

func TestElapsedTimeMinutes(t *testing.T) {
	start := t0
	complete := t0.Add(90 * time.Minute)

	tests := []struct {
		name string
		run  *benchlog.Run
		want float64
	}{
		{
			name: "completion time wins",
			run: &benchlog.Run{
				StartTime:       &start,
				RunCompleteTime: &complete,
				Versions:        benchlog.NewTable(versionRows(1, 1)),
			},
			want: 90,
		},
		{
			name: "falls back to last version",
			run: &benchlog.Run{
				StartTime: &start,
				Versions: benchlog.NewTable([]benchlog.VersionRow{
					{Version: 1, Timestamp: t0.Add(time.Minute)},
					{Version: 2, Timestamp: t0.Add(30 * time.Minute)},
				}),
			},
			want: 30,
		},
		{
			name: "no start",
			run:  &benchlog.Run{RunCompleteTime: &complete},
			want: 0,
		},
		{
			name: "no end",
			run:  &benchlog.Run{StartTime: &start},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ElapsedTimeMinutes(tt.run), 1e-9)
		})
	}
}

func TestSummarize(t *testing.T) {
	set := runSet{newRun("a", 10, 20), newRun("b", 5)}

	t.Run("natural order", func(t *testing.T) {
		got, err := Summarize(set)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Name)
		assert.InDelta(t, 15.0, got[0].OpsPerSec, 1e-9)
		assert.Equal(t, 2, got[0].VersionsApplied)
		assert.Equal(t, "b", got[1].Name)
	})

	t.Run("caller order", func(t *testing.T) {
		got, err := Summarize(set, "b", "a")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].Name)
		assert.Equal(t, "a", got[1].Name)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := Summarize(set, "a", "missing")
		require.ErrorIs(t, err, ErrUnknownRun)
	})

	t.Run("empty set", func(t *testing.T) {
		got, err := Summarize(runSet{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSelect_DuplicateNames(t *testing.T) {
	first := newRun("a", 10)
	last := newRun("a", 30, 40)
	other := newRun("b", 5)

	tests := []struct {
		name  string
		set   runSet
		names []string
		want  []*benchlog.Run
	}{
		{
			name: "all runs once with last winning",
			set:  runSet{first, other, last},
			want: []*benchlog.Run{last, other},
		},
		{
			name:  "explicit name resolves to last",
			set:   runSet{first, other, last},
			names: []string{"a"},
			want:  []*benchlog.Run{last},
		},
		{
			name: "no duplicates keeps natural order",
			set:  runSet{other, first},
			want: []*benchlog.Run{other, first},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.set, tt.names...)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))

			for i := range tt.want {
				assert.Same(t, tt.want[i], got[i])
			}
		})
	}
}

func TestSummarize_DuplicateNames(t *testing.T) {
	set := runSet{newRun("a", 10), newRun("b", 5), newRun("a", 30, 40)}

	got, err := Summarize(set)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, 2, got[0].VersionsApplied)
	assert.Equal(t, "b", got[1].Name)
}

func TestBatchOpsPerSec(t *testing.T) {
	// Versions 1..250, one op per version except version 150 with 100 ops.
	rows := make([]benchlog.VersionRow, 0, 250)

	var total int64

	for v := int64(1); v <= 250; v++ {
		c := int64(1)
		if v == 150 {
			c = 100
		}

		total += c
		rows = append(rows, benchlog.VersionRow{Version: v, Count: c, Duration: 10 * time.Millisecond})
	}

	buckets := BatchOpsPerSec(benchlog.NewTable(rows), 100)
	require.Len(t, buckets, 3)

	assert.Equal(t, []int64{100, 200, 300}, []int64{buckets[0].Version, buckets[1].Version, buckets[2].Version})

	var sum int64
	for _, b := range buckets {
		sum += b.Count
	}

	assert.Equal(t, total, sum)

	// 100 versions of 10ms each per full bucket.
	assert.InDelta(t, 100.0, buckets[0].OpsPerSec, 1e-9)
	assert.InDelta(t, 199.0, buckets[1].OpsPerSec, 1e-9)
	assert.InDelta(t, 100.0, buckets[2].OpsPerSec, 1e-9)
	assert.Equal(t, 500*time.Millisecond, buckets[2].Duration)
}

func TestBatchOpsPerSec_UnsortedInputAndBoundaries(t *testing.T) {
	rows := []benchlog.VersionRow{
		{Version: 11, Count: 3, Duration: time.Second},
		{Version: 10, Count: 2, Duration: time.Second},
		{Version: 0, Count: 1, Duration: time.Second},
		{Version: 1, Count: 4, Duration: time.Second},
	}

	buckets := BatchOpsPerSec(benchlog.NewTable(rows), 10)

	require.Len(t, buckets, 3)
	assert.Equal(t, int64(0), buckets[0].Version)
	assert.Equal(t, int64(1), buckets[0].Count)
	assert.Equal(t, int64(10), buckets[1].Version)
	assert.Equal(t, int64(6), buckets[1].Count)
	assert.Equal(t, int64(20), buckets[2].Version)
	assert.Equal(t, int64(3), buckets[2].Count)
}

func TestBatchOpsPerSec_EdgeCases(t *testing.T) {
	assert.Empty(t, BatchOpsPerSec(benchlog.Table[benchlog.VersionRow]{}, 100))
	assert.NotNil(t, BatchOpsPerSec(benchlog.Table[benchlog.VersionRow]{}, 100))

	// A non-positive batch size degenerates to one bucket per version.
	buckets := BatchOpsPerSec(benchlog.NewTable(versionRows(1, 2, 3)), 0)
	require.Len(t, buckets, 3)
	assert.Equal(t, int64(3), buckets[2].Version)
}

func TestAlign(t *testing.T) {
	long := newRun("long", 1, 1, 1, 1)
	long.Memory = benchlog.NewTable([]benchlog.MemorySample{{Version: 1}, {Version: 2}, {Version: 3}, {Version: 4}})
	long.Disk = benchlog.NewTable([]benchlog.DiskSample{{Version: 2}, {Version: 4}})
	short := newRun("short", 1, 1)

	assert.Equal(t, 2, MinVersions([]*benchlog.Run{long, short}))
	assert.Zero(t, MinVersions(nil))

	aligned := Align([]*benchlog.Run{long, short})
	require.Len(t, aligned, 2)

	assert.Equal(t, 2, aligned[0].Versions.Len())
	assert.Equal(t, 2, aligned[0].Memory.Len())
	assert.Equal(t, 1, aligned[0].Disk.Len())
	assert.Same(t, short, aligned[1])

	// The original run is untouched.
	assert.Equal(t, 4, long.Versions.Len())
	assert.Equal(t, 4, long.Memory.Len())
}

func TestBuildSeries(t *testing.T) {
	a := newRun("a", 10, 20, 30)
	a.Memory = benchlog.NewTable([]benchlog.MemorySample{{Version: 1, Alloc: 1e9}, {Version: 3, Alloc: 2e9}})
	b := newRun("b", 5, 5)

	series, err := BuildSeries(MetricOps, []*benchlog.Run{a, b}, 2)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, []Point{{X: 2, Y: 15}, {X: 4, Y: 30}}, series[0].Points)

	series, err = BuildSeries(MetricMemory, []*benchlog.Run{a, b}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 1, Y: 1}}, series[0].Points)
	assert.Equal(t, []Point{}, series[1].Points)

	_, err = BuildSeries(Metric("latency"), nil, 1)
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestSnapshotMinutes(t *testing.T) {
	snaps := benchlog.NewTable([]benchlog.SnapshotEvent{
		{Version: 100, Start: t0, End: t0.Add(3 * time.Minute), Duration: 3 * time.Minute},
		{Version: 200, Start: t0.Add(time.Hour)},
	})

	assert.Equal(t, []Point{{X: 100, Y: 3}}, SnapshotMinutes(&benchlog.Run{Snapshots: &snaps}))
	assert.Equal(t, []Point{}, SnapshotMinutes(&benchlog.Run{}))
}
