package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// ============================================================================
// Device Queries
// ============================================================================

const deviceColumns = `id, name, technology_id, has_definition`

func scanDevice(row interface{ Scan(...any) error }) (*models.Device, error) {
	dev := &models.Device{}
	if err := row.Scan(&dev.ID, &dev.Name, &dev.TechnologyID, &dev.HasDefinition); err != nil {
		return nil, err
	}
	return dev, nil
}

func queryDevices(ctx context.Context, q querier, query string, args ...any) ([]*models.Device, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}

	return devices, rows.Err()
}

func getDevice(ctx context.Context, q querier, id int) (*models.Device, error) {
	dev, err := scanDevice(q.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %d: %w", id, models.ErrNotFound)
	}
	return dev, err
}

func deviceNameExists(ctx context.Context, q querier, techID int, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE technology_id = ? AND name = ?`,
		techID, name,
	).Scan(&n)
	return n > 0, err
}

func insertDevice(ctx context.Context, q querier, techID int, name string) (*models.Device, error) {
	if _, err := getTechnology(ctx, q, techID); err != nil {
		return nil, err
	}

	exists, err := deviceNameExists(ctx, q, techID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("device %q: %w", name, models.ErrDeviceExists)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO devices (name, technology_id, has_definition) VALUES (?, ?, 0)`,
		name, techID,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Device{ID: int(id), Name: name, TechnologyID: techID}, nil
}

func setHasDefinition(ctx context.Context, q querier, deviceID int, has bool) error {
	_, err := q.ExecContext(ctx,
		`UPDATE devices SET has_definition = ? WHERE id = ?`,
		boolToInt(has), deviceID,
	)
	return err
}

// ============================================================================
// Device Operations
// ============================================================================

// ListDevices returns the devices of a technology ordered by name
func (s *Store) ListDevices(ctx context.Context, techID int) ([]*models.Device, error) {
	var devices []*models.Device
	err := s.read(ctx, "list devices", func(q querier) error {
		var err error
		devices, err = queryDevices(ctx, q,
			`SELECT `+deviceColumns+` FROM devices WHERE technology_id = ? ORDER BY name`, techID)
		return err
	})
	return devices, err
}

// ListDevicesWithDefinitions returns only the devices that carry a definition
func (s *Store) ListDevicesWithDefinitions(ctx context.Context, techID int) ([]*models.Device, error) {
	var devices []*models.Device
	err := s.read(ctx, "list devices with definitions", func(q querier) error {
		var err error
		devices, err = queryDevices(ctx, q,
			`SELECT `+deviceColumns+` FROM devices
			 WHERE technology_id = ? AND has_definition = 1 ORDER BY name`, techID)
		return err
	})
	return devices, err
}

// GetDevice returns the device with id or models.ErrNotFound
func (s *Store) GetDevice(ctx context.Context, id int) (*models.Device, error) {
	var dev *models.Device
	err := s.read(ctx, "get device", func(q querier) error {
		var err error
		dev, err = getDevice(ctx, q, id)
		return err
	})
	return dev, err
}

// DeviceNameExists reports whether name is taken within the technology
func (s *Store) DeviceNameExists(ctx context.Context, techID int, name string) (bool, error) {
	var exists bool
	err := s.read(ctx, "device name exists", func(q querier) error {
		var err error
		exists, err = deviceNameExists(ctx, q, techID, name)
		return err
	})
	return exists, err
}

// CreateDevice inserts a device without a definition
func (s *Store) CreateDevice(ctx context.Context, techID int, name string) (*models.Device, error) {
	var dev *models.Device
	err := s.write(ctx, "create device", func(tx *sql.Tx) error {
		var err error
		dev, err = insertDevice(ctx, tx, techID, name)
		return err
	})
	return dev, err
}

// CreateDeviceWithDefinition inserts a device and, when def is non-nil, its
// definition in one transaction.
func (s *Store) CreateDeviceWithDefinition(ctx context.Context, techID int, name string, def *models.Definition) (*models.Device, *models.Definition, error) {
	var (
		dev     *models.Device
		created *models.Definition
	)
	err := s.write(ctx, "create device", func(tx *sql.Tx) error {
		var err error
		dev, err = insertDevice(ctx, tx, techID, name)
		if err != nil || def == nil {
			return err
		}
		created, err = insertDefinition(ctx, tx, dev.ID, def)
		if err != nil {
			return err
		}
		dev.HasDefinition = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dev, created, nil
}

// DeleteDevice removes a device and, by cascade, its definition
func (s *Store) DeleteDevice(ctx context.Context, id int) error {
	return s.write(ctx, "delete device", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("device %d: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

// RestoreDevice re-inserts a previously deleted device under its original
// id, together with its definition when def is non-nil.
func (s *Store) RestoreDevice(ctx context.Context, dev *models.Device, def *models.Definition) error {
	return s.write(ctx, "restore device", func(tx *sql.Tx) error {
		if _, err := getTechnology(ctx, tx, dev.TechnologyID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO devices (id, name, technology_id, has_definition) VALUES (?, ?, ?, ?)`,
			dev.ID, dev.Name, dev.TechnologyID, boolToInt(def != nil),
		); err != nil {
			return err
		}
		if def == nil {
			return nil
		}
		restored := def.Clone()
		restored.DeviceID = dev.ID
		return restoreDefinition(ctx, tx, restored)
	})
}
