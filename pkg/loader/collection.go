package loader

import (
	"maps"
	"slices"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
)

// Collection is an immutable set of runs. It offers both the ordered list
// view and the name-keyed view of the same runs.
type Collection struct {
	runs   []*benchlog.Run
	byName map[string]*benchlog.Run
}

var _ analysis.RunSet = (*Collection)(nil)

// NewCollection builds a collection from runs in their given order. When
// two runs share a name, the later one wins in the keyed view.
func NewCollection(runs []*benchlog.Run) *Collection {
	c := &Collection{
		runs:   make([]*benchlog.Run, 0, len(runs)),
		byName: make(map[string]*benchlog.Run, len(runs)),
	}

	for _, run := range runs {
		c.runs = append(c.runs, run)
		c.byName[run.Name] = run
	}

	return c
}

// Runs returns every run in listing order.
func (c *Collection) Runs() []*benchlog.Run {
	return c.runs
}

// ByName returns a name-keyed copy of the collection.
func (c *Collection) ByName() map[string]*benchlog.Run {
	return maps.Clone(c.byName)
}

// Get returns the run with the given name.
func (c *Collection) Get(name string) (*benchlog.Run, bool) {
	run, ok := c.byName[name]

	return run, ok
}

// Names returns the distinct run names in listing order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.runs))
	for _, run := range c.runs {
		if !slices.Contains(names, run.Name) {
			names = append(names, run.Name)
		}
	}

	return names
}

// Len returns the number of runs.
func (c *Collection) Len() int {
	return len(c.runs)
}
