// Package commands builds the reversible dataset mutations recorded in the
// undo history. Every builder reads the state it will need to revert
// before returning, so the returned command is self-contained.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// ErrEmptyDefinition is returned when a builder that writes a definition
// is given none
var ErrEmptyDefinition = errors.New("definition is required")

// Store is the slice of the data access layer the commands use
type Store interface {
	database.DeviceReader
	database.DeviceWriter
	database.DefinitionReader
	database.DefinitionWriter
}

// AddDefinition creates a definition for a device that has none. Undo
// deletes it; redo restores the same row.
func AddDefinition(ctx context.Context, store Store, deviceID int, def *models.Definition) (*history.Command, error) {
	if def == nil {
		return nil, ErrEmptyDefinition
	}
	dev, err := store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	existing, err := store.GetDefinition(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("device %s: %w", dev.Name, models.ErrDefinitionExists)
	}

	input := def.Clone()
	var created *models.Definition

	return history.NewCommand("Add definition: "+dev.Name,
		func(ctx context.Context) error {
			if created != nil {
				return store.RestoreDefinition(ctx, created)
			}
			added, err := store.AddDefinition(ctx, deviceID, input)
			if err != nil {
				return err
			}
			created = added
			return nil
		},
		func(ctx context.Context) error {
			_, err := store.DeleteDefinition(ctx, deviceID)
			return err
		},
	), nil
}

// EditDefinition replaces a device's definition. Undo writes back the
// content captured here.
func EditDefinition(ctx context.Context, store Store, deviceID int, def *models.Definition) (*history.Command, error) {
	if def == nil {
		return nil, ErrEmptyDefinition
	}
	dev, err := store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	previous, err := store.GetDefinition(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, fmt.Errorf("device %s: %w", dev.Name, models.ErrNoDefinition)
	}

	next := def.Clone()

	return history.NewCommand("Edit definition: "+dev.Name,
		func(ctx context.Context) error {
			_, err := store.UpdateDefinition(ctx, deviceID, next)
			return err
		},
		func(ctx context.Context) error {
			_, err := store.UpdateDefinition(ctx, deviceID, previous)
			return err
		},
	), nil
}

// DeleteDefinition removes a device's definition. Undo restores the row
// with its original id.
func DeleteDefinition(ctx context.Context, store Store, deviceID int) (*history.Command, error) {
	dev, err := store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	previous, err := store.GetDefinition(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, fmt.Errorf("device %s: %w", dev.Name, models.ErrNoDefinition)
	}

	return history.NewCommand("Delete definition: "+dev.Name,
		func(ctx context.Context) error {
			_, err := store.DeleteDefinition(ctx, deviceID)
			return err
		},
		func(ctx context.Context) error {
			return store.RestoreDefinition(ctx, previous)
		},
	), nil
}

// CreateDevice adds a device, with a definition when def is non-nil. Undo
// deletes the device; redo restores it under the same id.
func CreateDevice(ctx context.Context, store Store, techID int, name string, def *models.Definition) (*history.Command, error) {
	exists, err := store.DeviceNameExists(ctx, techID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("device %s: %w", name, models.ErrDeviceExists)
	}

	input := def.Clone()
	var (
		created    *models.Device
		createdDef *models.Definition
	)

	return history.NewCommand("Create device: "+name,
		func(ctx context.Context) error {
			if created != nil {
				return store.RestoreDevice(ctx, created, createdDef)
			}
			dev, d, err := store.CreateDeviceWithDefinition(ctx, techID, name, input)
			if err != nil {
				return err
			}
			created, createdDef = dev, d
			return nil
		},
		func(ctx context.Context) error {
			if created == nil {
				return fmt.Errorf("device %s: %w", name, models.ErrNotFound)
			}
			return store.DeleteDevice(ctx, created.ID)
		},
	), nil
}

// BulkDeleteDefinitions removes the definitions of several devices in one
// transaction. Devices without a definition are ignored. Undo restores
// every removed row.
func BulkDeleteDefinitions(ctx context.Context, store Store, deviceIDs []int) (*history.Command, error) {
	ids := make([]int, 0, len(deviceIDs))
	var previous []*models.Definition
	for _, id := range deviceIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def, err := store.GetDefinition(ctx, id)
		if err != nil {
			return nil, err
		}
		if def == nil {
			continue
		}
		ids = append(ids, id)
		previous = append(previous, def)
	}

	label := fmt.Sprintf("Delete %d definitions", len(ids))
	if len(ids) == 1 {
		label = "Delete 1 definition"
	}

	return history.NewCommand(label,
		func(ctx context.Context) error {
			_, err := store.DeleteDefinitions(ctx, ids)
			return err
		},
		func(ctx context.Context) error {
			return store.RestoreDefinitions(ctx, previous)
		},
	), nil
}
