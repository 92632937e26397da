package benchlog

import (
	"strconv"
	"time"
)

// VersionRow is one committed version.
type VersionRow struct {
	Version   int64         `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Count     int64         `json:"count"`
	Duration  time.Duration `json:"duration"`
	OpsPerSec float64       `json:"ops_per_sec"`
}

// MemorySample is one Go runtime memory statistics observation.
type MemorySample struct {
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	Alloc         int64     `json:"alloc"`
	TotalAlloc    int64     `json:"total_alloc"`
	Sys           int64     `json:"sys"`
	NumGC         int64     `json:"num_gc"`
	GCSys         int64     `json:"gc_sys"`
	HeapSys       int64     `json:"heap_sys"`
	HeapIdle      int64     `json:"heap_idle"`
	HeapInuse     int64     `json:"heap_inuse"`
	HeapReleased  int64     `json:"heap_released"`
	HeapObjects   int64     `json:"heap_objects"`
	GCPauseTotal  int64     `json:"gc_pause_total"`
	GCCPUFraction float64   `json:"gc_cpu_fraction"`
}

// DiskSample is one observation of the store's on-disk size.
type DiskSample struct {
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// SnapshotEvent is one memiavl snapshot rewrite cycle. Phases that were not
// logged are left zero and omitted from JSON.
type SnapshotEvent struct {
	Version         int64         `json:"version"`
	Start           time.Time     `json:"start"`
	End             time.Time     `json:"end,omitzero"`
	Duration        time.Duration `json:"duration,omitzero"`
	WALCatchup      time.Time     `json:"wal_catchup,omitzero"`
	CatchupDuration time.Duration `json:"catchup_duration,omitzero"`
	SwitchTime      time.Time     `json:"switch_time,omitzero"`
	SwitchVersion   int64         `json:"switch_version,omitzero"`
	SyncDuration    time.Duration `json:"sync_duration,omitzero"`
}

var (
	_ Row = VersionRow{}
	_ Row = MemorySample{}
	_ Row = DiskSample{}
	_ Row = SnapshotEvent{}
)

func (VersionRow) Columns() []string {
	return []string{"version", "timestamp", "count", "duration", "ops_per_sec"}
}

func (r VersionRow) Values() []string {
	return []string{
		itoa(r.Version),
		formatTime(r.Timestamp),
		itoa(r.Count),
		itoa(int64(r.Duration)),
		ftoa(r.OpsPerSec),
	}
}

func (MemorySample) Columns() []string {
	return []string{
		"version", "timestamp", "alloc", "total_alloc", "sys", "num_gc",
		"gc_sys", "heap_sys", "heap_idle", "heap_inuse", "heap_released",
		"heap_objects", "gc_pause_total", "gc_cpu_fraction",
	}
}

func (r MemorySample) Values() []string {
	return []string{
		itoa(r.Version),
		formatTime(r.Timestamp),
		itoa(r.Alloc),
		itoa(r.TotalAlloc),
		itoa(r.Sys),
		itoa(r.NumGC),
		itoa(r.GCSys),
		itoa(r.HeapSys),
		itoa(r.HeapIdle),
		itoa(r.HeapInuse),
		itoa(r.HeapReleased),
		itoa(r.HeapObjects),
		itoa(r.GCPauseTotal),
		ftoa(r.GCCPUFraction),
	}
}

func (DiskSample) Columns() []string {
	return []string{"version", "timestamp", "size"}
}

func (r DiskSample) Values() []string {
	return []string{itoa(r.Version), formatTime(r.Timestamp), itoa(r.Size)}
}

func (SnapshotEvent) Columns() []string {
	return []string{
		"version", "start", "end", "duration", "wal_catchup",
		"catchup_duration", "switch_time", "switch_version", "sync_duration",
	}
}

func (r SnapshotEvent) Values() []string {
	switchVersion := ""
	if !r.SwitchTime.IsZero() {
		switchVersion = itoa(r.SwitchVersion)
	}

	return []string{
		itoa(r.Version),
		formatTime(r.Start),
		formatTime(r.End),
		formatDuration(r.Duration),
		formatTime(r.WALCatchup),
		formatDuration(r.CatchupDuration),
		formatTime(r.SwitchTime),
		switchVersion,
		formatDuration(r.SyncDuration),
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339Nano)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}

	return d.String()
}
