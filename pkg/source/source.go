// Package source lists and opens benchmark log files from a results
// location: a local file, a local directory, or an S3 prefix.
package source

import (
	"context"
	"io"
	"strings"

	"github.com/ethpandaops/benchviz/pkg/config"
	"github.com/sirupsen/logrus"
)

// S3Scheme marks a results location stored in S3.
const S3Scheme = "s3://"

// Source is a flat namespace of log files.
type Source interface {
	// List returns the keys of every object directly under the location,
	// sorted. Nested directories or prefixes are not descended into.
	List(ctx context.Context) ([]string, error)

	// Open returns the contents of a key returned by List.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Location describes the source for logs and error messages.
	Location() string

	// SingleFile reports whether the location names exactly one file. Such
	// a file is loaded whatever its extension.
	SingleFile() bool
}

// New resolves location into a Source. Locations starting with s3:// are
// read from S3 using cfg; anything else is a local path. An S3 location whose
// last segment has a log extension names a single object.
func New(log logrus.FieldLogger, location string, cfg config.S3ClientConfig) (Source, error) {
	if strings.HasPrefix(location, S3Scheme) {
		return NewS3(log, location, cfg)
	}

	return NewLocal(log, location)
}
