package benchlog

import (
	"fmt"
	"reflect"
	"time"

	"github.com/ethpandaops/benchviz/pkg/units"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Run holds everything extracted from one benchmark log. It is built in a
// single pass and not modified afterwards.
type Run struct {
	Name string `json:"name"`

	// InitData is the raw "starting run" record, nil if the run never
	// logged one. Use Config for a typed view.
	InitData  map[string]any `json:"init_data,omitempty"`
	StartTime *time.Time     `json:"start_time,omitempty"`

	// RunCompleteTime is set iff the run logged its completion.
	RunCompleteTime         *time.Time `json:"run_complete_time,omitempty"`
	ReportedVersionsApplied *int64     `json:"reported_versions_applied,omitempty"`

	Versions Table[VersionRow]   `json:"versions"`
	Memory   Table[MemorySample] `json:"memory"`
	Disk     Table[DiskSample]   `json:"disk"`

	// Snapshots is nil unless the run logged memiavl snapshot rewrites.
	Snapshots *Table[SnapshotEvent] `json:"snapshots,omitempty"`
}

// RunConfig is the typed form of a run's "starting run" record.
type RunConfig struct {
	Time          time.Time     `mapstructure:"time" json:"time"`
	StartVersion  int64         `mapstructure:"start_version" json:"start_version"`
	TargetVersion int64         `mapstructure:"target_version" json:"target_version"`
	ChangesetDir  string        `mapstructure:"changeset_dir" json:"changeset_dir"`
	ChangesetInfo ChangesetInfo `mapstructure:"changeset_info" json:"changeset_info"`
	DBDir         string        `mapstructure:"db_dir" json:"db_dir,omitempty"`
	DBOptions     any           `mapstructure:"db_options" json:"db_options,omitempty"`
	TreeType      string        `mapstructure:"tree_type" json:"tree_type,omitempty"`
}

// ChangesetInfo describes the generated workload a run replayed.
type ChangesetInfo struct {
	Versions    int64         `mapstructure:"versions" json:"versions"`
	StoreNames  []string      `mapstructure:"store_names" json:"store_names,omitempty"`
	StoreParams []StoreParams `mapstructure:"store_params" json:"store_params"`
}

// StoreParams describes the generated data of one store.
type StoreParams struct {
	StoreKey         string  `mapstructure:"store_key" json:"store_key"`
	InitialSize      int64   `mapstructure:"initial_size" json:"initial_size"`
	FinalSize        int64   `mapstructure:"final_size" json:"final_size"`
	Versions         int64   `mapstructure:"versions" json:"versions"`
	KeyMean          float64 `mapstructure:"key_mean" json:"key_mean"`
	KeyStdDev        float64 `mapstructure:"key_std_dev" json:"key_std_dev"`
	ValueMean        float64 `mapstructure:"value_mean" json:"value_mean"`
	ValueStdDev      float64 `mapstructure:"value_std_dev" json:"value_std_dev"`
	ChangePerVersion float64 `mapstructure:"change_per_version" json:"change_per_version"`
	DeleteFraction   float64 `mapstructure:"delete_fraction" json:"delete_fraction"`
}

// Completed reports whether the run logged its completion.
func (r *Run) Completed() bool {
	return r.RunCompleteTime != nil
}

// Config decodes InitData. It returns nil, nil when the run has no
// "starting run" record.
func (r *Run) Config() (*RunConfig, error) {
	if r.InitData == nil {
		return nil, nil
	}

	var cfg RunConfig

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: timestampHook,
		Result:     &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	if err := dec.Decode(r.InitData); err != nil {
		return nil, fmt.Errorf("decoding run config of %s: %w", r.Name, err)
	}

	return &cfg, nil
}

var timeType = reflect.TypeOf(time.Time{})

// timestampHook decodes ISO-8601 strings into time.Time fields.
func timestampHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}

	return units.ParseTimestamp(data.(string))
}

// Load parses the log file at path into a run named after the file.
func Load(log logrus.FieldLogger, path string) (*Run, error) {
	rd, err := Open(path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rd.Close() }()

	return Parse(log, RunName(path), rd)
}

// Parse consumes every record of rd and returns the assembled run. Any
// malformed record or field value aborts the whole parse.
func Parse(log logrus.FieldLogger, name string, rd *Reader) (*Run, error) {
	start := time.Now()
	b := newRunBuilder(name)

	var records int

	for rd.Next() {
		records++

		if err := b.apply(rd.Record()); err != nil {
			return nil, &RecordError{File: rd.File(), Line: rd.Line(), Err: err}
		}
	}

	if err := rd.Err(); err != nil {
		return nil, err
	}

	run := b.finish()

	log.WithFields(logrus.Fields{
		"run":       name,
		"records":   records,
		"ignored":   b.ignored,
		"versions":  run.Versions.Len(),
		"memory":    run.Memory.Len(),
		"disk":      run.Disk.Len(),
		"completed": run.Completed(),
		"duration":  time.Since(start),
	}).Debug("Parsed benchmark log")

	return run, nil
}
