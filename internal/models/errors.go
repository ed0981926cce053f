package models

import "errors"

// Domain-specific errors shared by the store, commands and tasks
var (
	// ErrNotFound indicates the requested technology, device or definition does not exist
	ErrNotFound = errors.New("not found")

	// ErrDefinitionExists indicates an add on a device that already has a definition
	ErrDefinitionExists = errors.New("device already has a definition")

	// ErrDeviceExists indicates a device name is already taken within its technology
	ErrDeviceExists = errors.New("device name already exists in technology")

	// ErrNoDefinition indicates an edit or delete on a device without a definition
	ErrNoDefinition = errors.New("device has no definition")
)
