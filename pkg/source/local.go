package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// localSource reads logs from the local filesystem. When the location is a
// single file the source contains exactly that file.
type localSource struct {
	log  logrus.FieldLogger
	root string
	file string
}

var _ Source = (*localSource)(nil)

// NewLocal creates a source over a local file or directory.
func NewLocal(log logrus.FieldLogger, location string) (Source, error) {
	p, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("resolving results location: %w", err)
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("resolving results location: %w", err)
	}

	src := &localSource{
		log:  log.WithField("component", "local-source"),
		root: p,
	}

	if !info.IsDir() {
		src.root = filepath.Dir(p)
		src.file = filepath.Base(p)
	}

	return src, nil
}

func (l *localSource) Location() string {
	if l.file != "" {
		return filepath.Join(l.root, l.file)
	}

	return l.root
}

func (l *localSource) SingleFile() bool {
	return l.file != ""
}

func (l *localSource) List(_ context.Context) ([]string, error) {
	if l.file != "" {
		return []string{l.file}, nil
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("reading results directory: %w", err)
	}

	keys := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		keys = append(keys, entry.Name())
	}

	slices.Sort(keys)

	l.log.WithFields(logrus.Fields{
		"dir":   l.root,
		"files": len(keys),
	}).Debug("Listed results directory")

	return keys, nil
}

func (l *localSource) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !isAllowedKey(key) {
		return nil, fmt.Errorf("key %q is not allowed", key)
	}

	full := filepath.Join(l.root, filepath.FromSlash(key))

	if !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("key %q escapes %s", key, l.root)
	}

	f, err := os.Open(full) //nolint:gosec // confined to the results directory above
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", key, err)
	}

	return f, nil
}

// isAllowedKey rejects empty, absolute and unclean keys and keys with a
// ".." segment. Names merely containing ".." are fine.
func isAllowedKey(key string) bool {
	if key == "" || filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		return false
	}

	if slices.Contains(strings.Split(key, "/"), "..") {
		return false
	}

	return path.Clean(key) == key
}
