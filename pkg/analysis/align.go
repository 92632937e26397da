package analysis

import "github.com/ethpandaops/benchviz/pkg/benchlog"

// MinVersions returns the length of the shortest versions table among runs,
// or 0 when runs is empty.
func MinVersions(runs []*benchlog.Run) int {
	if len(runs) == 0 {
		return 0
	}

	n := runs[0].Versions.Len()
	for _, run := range runs[1:] {
		n = min(n, run.Versions.Len())
	}

	return n
}

// Align truncates every run to the shortest versions table so that runs of
// different length can be compared over the same range. Memory and disk
// rows recorded after the last retained version are dropped too. The input
// runs are not modified.
func Align(runs []*benchlog.Run) []*benchlog.Run {
	n := MinVersions(runs)
	out := make([]*benchlog.Run, 0, len(runs))

	for _, run := range runs {
		out = append(out, truncate(run, n))
	}

	return out
}

func truncate(run *benchlog.Run, n int) *benchlog.Run {
	if run.Versions.Len() <= n {
		return run
	}

	cp := *run
	cp.Versions = run.Versions.Head(n)

	var cutoff int64
	if last, ok := cp.Versions.Last(); ok {
		cutoff = last.Version
	}

	cp.Memory = run.Memory.Head(prefixLen(run.Memory.Rows(), cutoff, memoryVersion))
	cp.Disk = run.Disk.Head(prefixLen(run.Disk.Rows(), cutoff, diskVersion))

	return &cp
}

// prefixLen returns the length of the leading run of rows whose version is
// at most cutoff.
func prefixLen[R any](rows []R, cutoff int64, version func(R) int64) int {
	for i, r := range rows {
		if version(r) > cutoff {
			return i
		}
	}

	return len(rows)
}

func memoryVersion(m benchlog.MemorySample) int64 { return m.Version }

func diskVersion(d benchlog.DiskSample) int64 { return d.Version }
