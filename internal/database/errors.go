package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

var (
	// ErrStorage matches every *StorageError via errors.Is
	ErrStorage = errors.New("storage error")

	// ErrStoreMissing indicates no database file exists at the configured path
	ErrStoreMissing = errors.New("store does not exist")

	// ErrSchemaMismatch indicates the store was written by a different schema version
	ErrSchemaMismatch = errors.New("store schema version mismatch")
)

// StorageError reports a failed read or a rolled-back write transaction.
// Callers never observe partial writes behind a StorageError.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// wrapStorage turns a failure into a StorageError unless it is a domain
// precondition (not found, already exists) which is returned as is.
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrDefinitionExists) ||
		errors.Is(err, models.ErrDeviceExists) ||
		errors.Is(err, models.ErrNoDefinition)
}

// IsCanceled reports whether err came from a canceled or expired context
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
