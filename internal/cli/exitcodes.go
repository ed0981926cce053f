package cli

import (
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/ingest"
	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: storage errors, unexpected failures,
	// or any error that doesn't fit the specific categories below.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: missing required flags or arguments, unknown flags.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: unknown technology or device names, a missing store.
	ExitNotFound = 3

	// ExitDataErr indicates invalid or malformed data.
	// Use for: a log file that yields no technologies or cannot be read.
	ExitDataErr = 4

	// ExitValidation indicates a validation error.
	// Use for: an invalid configuration file.
	ExitValidation = 5
)

// UsageError marks an error caused by how the command was invoked
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Usagef returns a *UsageError with a formatted message
func Usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ValidationError marks a configuration that failed to load or validate
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	var (
		usage      *UsageError
		validation *ValidationError
		ingestErr  *ingest.IngestError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsage
	case errors.As(err, &validation):
		return ExitValidation
	case errors.Is(err, models.ErrNotFound), errors.Is(err, database.ErrStoreMissing):
		return ExitNotFound
	case errors.Is(err, ingest.ErrNoTechnologies), errors.As(err, &ingestErr):
		return ExitDataErr
	default:
		return ExitError
	}
}
