package analysis

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
)

// ErrUnknownRun is returned when a requested run name is not in the set.
var ErrUnknownRun = errors.New("unknown run")

// RunSet is a named collection of runs in a stable natural order.
type RunSet interface {
	Runs() []*benchlog.Run
	Get(name string) (*benchlog.Run, bool)
}

// Summary is the one-row digest of a run.
type Summary struct {
	Name            string  `json:"name" yaml:"name"`
	OpsPerSec       float64 `json:"ops_per_sec" yaml:"ops_per_sec"`
	MaxMemGB        float64 `json:"max_mem_gb" yaml:"max_mem_gb"`
	MaxDiskGB       float64 `json:"max_disk_gb" yaml:"max_disk_gb"`
	VersionsApplied int     `json:"versions_applied" yaml:"versions_applied"`
	ElapsedMinutes  float64 `json:"elapsed_minutes" yaml:"elapsed_minutes"`
	Completed       bool    `json:"completed" yaml:"completed"`
}

// Summarize returns one Summary per run in the order given by names, or in
// the set's natural order when names is empty.
func Summarize(set RunSet, names ...string) ([]Summary, error) {
	runs, err := Select(set, names...)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(runs))
	for _, run := range runs {
		out = append(out, SummarizeRun(run))
	}

	return out, nil
}

// SummarizeRun computes the summary of a single run.
func SummarizeRun(run *benchlog.Run) Summary {
	return Summary{
		Name:            run.Name,
		OpsPerSec:       TotalOpsPerSec(run),
		MaxMemGB:        MaxMemGB(run),
		MaxDiskGB:       MaxDiskGB(run),
		VersionsApplied: VersionsApplied(run),
		ElapsedMinutes:  ElapsedTimeMinutes(run),
		Completed:       run.Completed(),
	}
}

// Select resolves names against set. An empty names list selects every
// distinct run name once, in natural order, resolved through Get so the last
// run loaded under a name wins.
func Select(set RunSet, names ...string) ([]*benchlog.Run, error) {
	if len(names) == 0 {
		all := set.Runs()
		runs := make([]*benchlog.Run, 0, len(all))
		seen := make(map[string]struct{}, len(all))

		for _, r := range all {
			if _, dup := seen[r.Name]; dup {
				continue
			}

			seen[r.Name] = struct{}{}

			if run, ok := set.Get(r.Name); ok {
				runs = append(runs, run)
			}
		}

		return runs, nil
	}

	runs := make([]*benchlog.Run, 0, len(names))

	for _, name := range names {
		run, ok := set.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRun, name)
		}

		runs = append(runs, run)
	}

	return runs, nil
}
