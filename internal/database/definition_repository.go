package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// ============================================================================
// Definition Queries
// ============================================================================

const definitionColumns = `id, device_id, folder_path, file_name, definition_text`

func scanDefinition(row interface{ Scan(...any) error }) (*models.Definition, error) {
	def := &models.Definition{}
	if err := row.Scan(&def.ID, &def.DeviceID, &def.FolderPath, &def.FileName, &def.Text); err != nil {
		return nil, err
	}
	return def, nil
}

// getDefinition returns nil without error when the device has no definition
func getDefinition(ctx context.Context, q querier, deviceID int) (*models.Definition, error) {
	def, err := scanDefinition(q.QueryRowContext(ctx,
		`SELECT `+definitionColumns+` FROM definitions WHERE device_id = ?`, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return def, err
}

func listDefinitions(ctx context.Context, q querier, techID int) ([]*models.Definition, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT def.id, def.device_id, def.folder_path, def.file_name, def.definition_text
		FROM definitions def
		INNER JOIN devices d ON d.id = def.device_id
		WHERE d.technology_id = ?
		ORDER BY d.name
	`, techID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*models.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// insertDefinition adds a definition to a device that has none and raises
// the device's flag.
func insertDefinition(ctx context.Context, q querier, deviceID int, def *models.Definition) (*models.Definition, error) {
	if _, err := getDevice(ctx, q, deviceID); err != nil {
		return nil, err
	}

	existing, err := getDefinition(ctx, q, deviceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("device %d: %w", deviceID, models.ErrDefinitionExists)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO definitions (device_id, folder_path, file_name, definition_text) VALUES (?, ?, ?, ?)`,
		deviceID, def.FolderPath, def.FileName, def.Text,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := setHasDefinition(ctx, q, deviceID, true); err != nil {
		return nil, err
	}

	return &models.Definition{
		ID:         int(id),
		DeviceID:   deviceID,
		FolderPath: def.FolderPath,
		FileName:   def.FileName,
		Text:       def.Text,
	}, nil
}

// restoreDefinition re-inserts a definition under its original row id
func restoreDefinition(ctx context.Context, q querier, def *models.Definition) error {
	if _, err := getDevice(ctx, q, def.DeviceID); err != nil {
		return err
	}

	existing, err := getDefinition(ctx, q, def.DeviceID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("device %d: %w", def.DeviceID, models.ErrDefinitionExists)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO definitions (id, device_id, folder_path, file_name, definition_text) VALUES (?, ?, ?, ?, ?)`,
		def.ID, def.DeviceID, def.FolderPath, def.FileName, def.Text,
	); err != nil {
		return err
	}

	return setHasDefinition(ctx, q, def.DeviceID, true)
}

func updateDefinition(ctx context.Context, q querier, deviceID int, def *models.Definition) (*models.Definition, error) {
	existing, err := getDefinition(ctx, q, deviceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("device %d: %w", deviceID, models.ErrNoDefinition)
	}

	if _, err := q.ExecContext(ctx,
		`UPDATE definitions SET folder_path = ?, file_name = ?, definition_text = ? WHERE device_id = ?`,
		def.FolderPath, def.FileName, def.Text, deviceID,
	); err != nil {
		return nil, err
	}

	updated := existing.Clone()
	updated.FolderPath = def.FolderPath
	updated.FileName = def.FileName
	updated.Text = def.Text
	return updated, nil
}

// deleteDefinition removes a device's definition, clears the flag and
// returns the removed row.
func deleteDefinition(ctx context.Context, q querier, deviceID int) (*models.Definition, error) {
	existing, err := getDefinition(ctx, q, deviceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("device %d: %w", deviceID, models.ErrNoDefinition)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM definitions WHERE device_id = ?`, deviceID); err != nil {
		return nil, err
	}

	if err := setHasDefinition(ctx, q, deviceID, false); err != nil {
		return nil, err
	}

	return existing, nil
}

// ============================================================================
// Definition Operations
// ============================================================================

// GetDefinition returns the device's definition, or nil when it has none
func (s *Store) GetDefinition(ctx context.Context, deviceID int) (*models.Definition, error) {
	var def *models.Definition
	err := s.read(ctx, "get definition", func(q querier) error {
		var err error
		def, err = getDefinition(ctx, q, deviceID)
		return err
	})
	return def, err
}

// ListDefinitions returns every definition of a technology ordered by device name
func (s *Store) ListDefinitions(ctx context.Context, techID int) ([]*models.Definition, error) {
	var defs []*models.Definition
	err := s.read(ctx, "list definitions", func(q querier) error {
		var err error
		defs, err = listDefinitions(ctx, q, techID)
		return err
	})
	return defs, err
}

// AddDefinition creates a definition for a device that has none.
// It fails with models.ErrDefinitionExists otherwise.
func (s *Store) AddDefinition(ctx context.Context, deviceID int, def *models.Definition) (*models.Definition, error) {
	var created *models.Definition
	err := s.write(ctx, "add definition", func(tx *sql.Tx) error {
		var err error
		created, err = insertDefinition(ctx, tx, deviceID, def)
		return err
	})
	return created, err
}

// UpdateDefinition replaces the content of an existing definition
func (s *Store) UpdateDefinition(ctx context.Context, deviceID int, def *models.Definition) (*models.Definition, error) {
	var updated *models.Definition
	err := s.write(ctx, "update definition", func(tx *sql.Tx) error {
		var err error
		updated, err = updateDefinition(ctx, tx, deviceID, def)
		return err
	})
	return updated, err
}

// PutDefinition inserts or replaces a device's definition and sets its flag
func (s *Store) PutDefinition(ctx context.Context, deviceID int, def *models.Definition) (*models.Definition, error) {
	var stored *models.Definition
	err := s.write(ctx, "put definition", func(tx *sql.Tx) error {
		existing, err := getDefinition(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if existing != nil {
			stored, err = updateDefinition(ctx, tx, deviceID, def)
		} else {
			stored, err = insertDefinition(ctx, tx, deviceID, def)
		}
		return err
	})
	return stored, err
}

// DeleteDefinition removes a device's definition and returns the removed row
func (s *Store) DeleteDefinition(ctx context.Context, deviceID int) (*models.Definition, error) {
	var deleted *models.Definition
	err := s.write(ctx, "delete definition", func(tx *sql.Tx) error {
		var err error
		deleted, err = deleteDefinition(ctx, tx, deviceID)
		return err
	})
	return deleted, err
}

// RestoreDefinition re-inserts a deleted definition under its original id
func (s *Store) RestoreDefinition(ctx context.Context, def *models.Definition) error {
	return s.write(ctx, "restore definition", func(tx *sql.Tx) error {
		return restoreDefinition(ctx, tx, def)
	})
}

// DeleteDefinitions removes the definitions of several devices in one
// transaction. Devices without a definition are skipped. The removed rows
// are returned in the order of deviceIDs.
func (s *Store) DeleteDefinitions(ctx context.Context, deviceIDs []int) ([]*models.Definition, error) {
	var deleted []*models.Definition
	err := s.write(ctx, "delete definitions", func(tx *sql.Tx) error {
		deleted = deleted[:0]
		for _, id := range deviceIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			def, err := deleteDefinition(ctx, tx, id)
			if errors.Is(err, models.ErrNoDefinition) {
				continue
			}
			if err != nil {
				return err
			}
			deleted = append(deleted, def)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// RestoreDefinitions re-inserts several definitions in one transaction. If
// any of them fails none is restored.
func (s *Store) RestoreDefinitions(ctx context.Context, defs []*models.Definition) error {
	return s.write(ctx, "restore definitions", func(tx *sql.Tx) error {
		for _, def := range defs {
			if err := restoreDefinition(ctx, tx, def); err != nil {
				return err
			}
		}
		return nil
	})
}
