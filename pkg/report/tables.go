package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
)

// WriteRunTables writes every table of run as CSV into dir/<run name>/ and
// returns the paths written. The snapshots table is only written when the
// run has one.
func WriteRunTables(dir string, run *benchlog.Run) ([]string, error) {
	runDir := filepath.Join(dir, run.Name)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", runDir, err)
	}

	tables := map[string][][]string{
		"versions.csv": run.Versions.Records(),
		"memory.csv":   run.Memory.Records(),
		"disk.csv":     run.Disk.Records(),
	}

	if run.Snapshots != nil {
		tables["snapshots.csv"] = run.Snapshots.Records()
	}

	written := make([]string, 0, len(tables))

	for _, name := range []string{"versions.csv", "memory.csv", "disk.csv", "snapshots.csv"} {
		records, ok := tables[name]
		if !ok {
			continue
		}

		path := filepath.Join(runDir, name)
		if err := writeCSVFile(path, records); err != nil {
			return nil, err
		}

		written = append(written, path)
	}

	return written, nil
}

func writeCSVFile(path string, records [][]string) error {
	f, err := os.Create(path) //nolint:gosec // path is built from the output dir
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()

		return fmt.Errorf("writing %s: %w", path, err)
	}

	return f.Close()
}
