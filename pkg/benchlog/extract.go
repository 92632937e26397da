package benchlog

import (
	"fmt"
	"time"
)

// Message discriminators written by the benchmark runner.
const (
	msgStartingRun      = "starting run"
	msgRunComplete      = "benchmark run complete"
	msgCommittedVersion = "committed version"
	msgMemStats         = "mem stats"
	msgDiskUsage        = "disk usage"
	msgFullStats        = "full post-commit stats"
)

// extractRule turns one record into rows of the run under construction.
type extractRule func(b *runBuilder, rec Record) error

// messageRules maps a message discriminator to its extraction rule. Records
// whose message is not listed here, and that are not memiavl snapshot
// records, are ignored so that newer runner versions stay readable.
var messageRules = map[string]extractRule{
	msgStartingRun:      (*runBuilder).extractInit,
	msgRunComplete:      (*runBuilder).extractComplete,
	msgCommittedVersion: (*runBuilder).extractVersion,
	msgMemStats:         (*runBuilder).extractMemStats,
	msgDiskUsage:        (*runBuilder).extractDiskUsage,
	msgFullStats:        (*runBuilder).extractFullStats,
}

// memStatsFields names the fields of one memory statistics convention.
// Every convention maps onto the same MemorySample columns.
type memStatsFields struct {
	alloc, totalAlloc, sys, numGC, gcSys       string
	heapSys, heapIdle, heapInuse, heapReleased string
	heapObjects, pauseTotal, cpuFraction       string
}

var (
	// loggedMemStats is the "mem stats" record: snake_case names with
	// humanized size strings.
	loggedMemStats = memStatsFields{
		alloc:        "alloc",
		totalAlloc:   "total_alloc",
		sys:          "sys",
		numGC:        "num_gc",
		gcSys:        "gc_sys",
		heapSys:      "heap_sys",
		heapIdle:     "heap_idle",
		heapInuse:    "heap_inuse",
		heapReleased: "heap_released",
		heapObjects:  "heap_objects",
		pauseTotal:   "gc_pause_total",
		cpuFraction:  "gc_cpu_fraction",
	}

	// runtimeMemStats is a runtime.MemStats value embedded verbatim under
	// "mem_stats" by the older "full post-commit stats" record.
	runtimeMemStats = memStatsFields{
		alloc:        "Alloc",
		totalAlloc:   "TotalAlloc",
		sys:          "Sys",
		numGC:        "NumGC",
		gcSys:        "GCSys",
		heapSys:      "HeapSys",
		heapIdle:     "HeapIdle",
		heapInuse:    "HeapInuse",
		heapReleased: "HeapReleased",
		heapObjects:  "HeapObjects",
		pauseTotal:   "PauseTotalNs",
		cpuFraction:  "GCCPUFraction",
	}
)

func (m memStatsFields) sample(rec Record, version int64, at time.Time) (MemorySample, error) {
	f := fieldReader{rec: rec}

	s := MemorySample{
		Version:       version,
		Timestamp:     at,
		Alloc:         f.getSize(m.alloc),
		TotalAlloc:    f.getSize(m.totalAlloc),
		Sys:           f.getSize(m.sys),
		NumGC:         f.getInt(m.numGC),
		GCSys:         f.getSize(m.gcSys),
		HeapSys:       f.getSize(m.heapSys),
		HeapIdle:      f.getSize(m.heapIdle),
		HeapInuse:     f.getSize(m.heapInuse),
		HeapReleased:  f.getSize(m.heapReleased),
		HeapObjects:   f.getInt(m.heapObjects),
		GCPauseTotal:  f.getInt(m.pauseTotal),
		GCCPUFraction: f.getFloat(m.cpuFraction),
	}

	return s, f.err
}

// runBuilder accumulates the rows of one run during a single pass.
type runBuilder struct {
	run         *Run
	versions    []VersionRow
	memory      []MemorySample
	disk        []DiskSample
	snapshots   *snapshotTracker
	lastVersion int64
	committed   bool
	ignored     int
}

func newRunBuilder(name string) *runBuilder {
	return &runBuilder{
		run:       &Run{Name: name},
		snapshots: newSnapshotTracker(),
	}
}

// apply classifies rec and routes it to its extraction rule.
func (b *runBuilder) apply(rec Record) error {
	msg := rec.Msg()

	if rule, ok := messageRules[msg]; ok {
		if err := rule(b, rec); err != nil {
			return fmt.Errorf("%q record: %w", msg, err)
		}

		return nil
	}

	if rec.Module() == SnapshotModule {
		if err := b.extractSnapshot(rec); err != nil {
			return fmt.Errorf("%s %q record: %w", SnapshotModule, msg, err)
		}

		return nil
	}

	b.ignored++

	return nil
}

func (b *runBuilder) extractInit(rec Record) error {
	data, err := rec.Map()
	if err != nil {
		return err
	}

	var start *time.Time

	if rec.Has(fieldTime) {
		t, err := rec.Time(fieldTime)
		if err != nil {
			return err
		}

		start = &t
	}

	b.run.InitData = data
	b.run.StartTime = start

	return nil
}

func (b *runBuilder) extractComplete(rec Record) error {
	t, err := rec.Time(fieldTime)
	if err != nil {
		return err
	}

	b.run.RunCompleteTime = &t

	if rec.Has("versions_applied") {
		n, err := rec.Int("versions_applied")
		if err != nil {
			return err
		}

		b.run.ReportedVersionsApplied = &n
	}

	return nil
}

func (b *runBuilder) extractVersion(rec Record) error {
	f := fieldReader{rec: rec}

	row := VersionRow{
		Version:   f.getInt(fieldVersion),
		Timestamp: f.getTime(fieldTime),
		Count:     f.getInt("count"),
		Duration:  time.Duration(f.getInt("duration")),
		OpsPerSec: f.getFloat("ops_per_sec"),
	}

	// Older runners reported disk usage inline with every commit.
	var (
		disk       DiskSample
		inlineDisk = rec.Has("disk_usage")
	)

	if inlineDisk {
		disk = DiskSample{
			Version:   row.Version,
			Timestamp: row.Timestamp,
			Size:      f.getSize("disk_usage"),
		}
	}

	if f.err != nil {
		return f.err
	}

	b.versions = append(b.versions, row)
	if !b.committed || row.Version > b.lastVersion {
		b.lastVersion = row.Version
	}

	b.committed = true

	if inlineDisk {
		b.disk = append(b.disk, disk)
	}

	return nil
}

func (b *runBuilder) extractMemStats(rec Record) error {
	f := fieldReader{rec: rec}
	version := f.getInt(fieldVersion)
	at := f.getTime(fieldTime)

	if f.err != nil {
		return f.err
	}

	s, err := loggedMemStats.sample(rec, version, at)
	if err != nil {
		return err
	}

	b.memory = append(b.memory, s)

	return nil
}

func (b *runBuilder) extractDiskUsage(rec Record) error {
	f := fieldReader{rec: rec}

	s := DiskSample{
		Version:   f.getInt(fieldVersion),
		Timestamp: f.getTime(fieldTime),
		Size:      f.getSize("size"),
	}

	if f.err != nil {
		return f.err
	}

	b.disk = append(b.disk, s)

	return nil
}

func (b *runBuilder) extractFullStats(rec Record) error {
	version, err := rec.Int(fieldVersion)
	if err != nil {
		return err
	}

	if !b.committed {
		return fmt.Errorf("%w: version %d, no version committed yet",
			ErrOrderingViolation, version)
	}

	if version > b.lastVersion {
		return fmt.Errorf("%w: version %d, last committed version %d",
			ErrOrderingViolation, version, b.lastVersion)
	}

	sub, ok := rec.Object("mem_stats")
	if !ok {
		return nil
	}

	at, err := rec.Time(fieldTime)
	if err != nil {
		return err
	}

	s, err := runtimeMemStats.sample(sub, version, at)
	if err != nil {
		return fmt.Errorf("mem_stats: %w", err)
	}

	b.memory = append(b.memory, s)

	return nil
}

func (b *runBuilder) extractSnapshot(rec Record) error {
	at, err := rec.Time(fieldTime)
	if err != nil {
		return err
	}

	// The version is informational; some lifecycle messages omit it.
	var version int64

	if rec.Has(fieldVersion) {
		if version, err = rec.Int(fieldVersion); err != nil {
			return err
		}
	}

	if !b.snapshots.observe(rec.Msg(), version, at) {
		b.ignored++
	}

	return nil
}

// finish assembles the accumulated rows into the immutable run.
func (b *runBuilder) finish() *Run {
	b.run.Versions = NewTable(b.versions)
	b.run.Memory = NewTable(b.memory)
	b.run.Disk = NewTable(b.disk)
	b.run.Snapshots = b.snapshots.table()

	return b.run
}
