// Package upload publishes rendered reports to remote storage.
package upload

import "context"

// Uploader uploads a local report directory to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable
	// by writing a small test object.
	Preflight(ctx context.Context) error

	// Upload uploads every file under localDir. The directory basename is
	// used as a sub-prefix under the configured remote prefix. It returns
	// the location the report was published to.
	Upload(ctx context.Context, localDir string) (string, error)
}
