package ingest

import (
	"errors"
	"fmt"
)

// ErrNoTechnologies indicates a log that names no technology
var ErrNoTechnologies = errors.New("log contains no technologies")

// IngestError reports a failure to build the store from a log
type IngestError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ingest: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ingest: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.Err
}
