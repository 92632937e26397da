package analysis

import (
	"cmp"
	"slices"
	"time"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
)

// Bucket aggregates the committed versions in (Version-batchSize, Version].
type Bucket struct {
	Version   int64         `json:"version"`
	Count     int64         `json:"count"`
	Duration  time.Duration `json:"duration"`
	OpsPerSec float64       `json:"ops_per_sec"`
}

// BatchOpsPerSec smooths per-version throughput by grouping versions into
// buckets of batchSize. A version v falls into the bucket labelled
// ceil(v/batchSize)*batchSize. Buckets are returned in ascending order and
// the counts of all buckets add up to the table's total count. A
// non-positive batchSize is treated as 1.
func BatchOpsPerSec(versions benchlog.Table[benchlog.VersionRow], batchSize int64) []Bucket {
	if batchSize <= 0 {
		batchSize = 1
	}

	index := make(map[int64]int)
	buckets := make([]Bucket, 0)

	for _, v := range versions.Rows() {
		label := ceilDiv(v.Version, batchSize) * batchSize

		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, Bucket{Version: label})
		}

		buckets[i].Count += v.Count
		buckets[i].Duration += v.Duration
	}

	for i := range buckets {
		buckets[i].OpsPerSec = opsPerSec(buckets[i].Count, buckets[i].Duration)
	}

	slices.SortFunc(buckets, func(a, b Bucket) int {
		return cmp.Compare(a.Version, b.Version)
	})

	return buckets
}

// ceilDiv divides rounding towards positive infinity.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}

	return q
}
