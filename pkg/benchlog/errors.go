package benchlog

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when a log line is not a JSON object.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMissingField is returned when a recognized record lacks a field its
	// extraction rule needs, or carries it with the wrong JSON type.
	ErrMissingField = errors.New("missing or invalid field")

	// ErrOrderingViolation is returned when a "full post-commit stats" record
	// refers to a version that has not been committed yet.
	ErrOrderingViolation = errors.New("stats reported before version commit")
)

// RecordError locates a failure at a particular line of a log file.
type RecordError struct {
	File string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
