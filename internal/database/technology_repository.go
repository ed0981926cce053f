package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// ============================================================================
// Technology Queries
// ============================================================================

const technologyColumns = `id, name, version, path`

func scanTechnology(row interface{ Scan(...any) error }) (*models.Technology, error) {
	var (
		tech    models.Technology
		version sql.NullString
		path    sql.NullString
	)
	if err := row.Scan(&tech.ID, &tech.Name, &version, &path); err != nil {
		return nil, err
	}
	tech.Version = nullStringToString(version)
	tech.Path = nullStringToString(path)
	return &tech, nil
}

func listTechnologies(ctx context.Context, q querier) ([]*models.Technology, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+technologyColumns+` FROM technologies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []*models.Technology
	for rows.Next() {
		tech, err := scanTechnology(rows)
		if err != nil {
			return nil, err
		}
		techs = append(techs, tech)
	}

	return techs, rows.Err()
}

func getTechnology(ctx context.Context, q querier, id int) (*models.Technology, error) {
	tech, err := scanTechnology(q.QueryRowContext(ctx,
		`SELECT `+technologyColumns+` FROM technologies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("technology %d: %w", id, models.ErrNotFound)
	}
	return tech, err
}

func getTechnologyByName(ctx context.Context, q querier, name string) (*models.Technology, error) {
	tech, err := scanTechnology(q.QueryRowContext(ctx,
		`SELECT `+technologyColumns+` FROM technologies WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("technology %q: %w", name, models.ErrNotFound)
	}
	return tech, err
}

func insertTechnology(ctx context.Context, q querier, name, version, path string) (*models.Technology, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO technologies (name, version, path) VALUES (?, ?, ?)`,
		name, stringToNullString(version), stringToNullString(path),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Technology{ID: int(id), Name: name, Version: version, Path: path}, nil
}

func technologyStats(ctx context.Context, q querier, techID int) (*models.TechnologyStats, error) {
	stats := &models.TechnologyStats{TechnologyID: techID}
	err := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN d.has_definition THEN 1 ELSE 0 END), 0),
			(SELECT COUNT(*) FROM definitions def
			 INNER JOIN devices dv ON dv.id = def.device_id
			 WHERE dv.technology_id = ?)
		FROM devices d
		WHERE d.technology_id = ?
	`, techID, techID).Scan(&stats.TotalDevices, &stats.DevicesWithDefinition, &stats.TotalDefinitions)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ============================================================================
// Technology Operations
// ============================================================================

// ListTechnologies returns every technology ordered by name
func (s *Store) ListTechnologies(ctx context.Context) ([]*models.Technology, error) {
	var techs []*models.Technology
	err := s.read(ctx, "list technologies", func(q querier) error {
		var err error
		techs, err = listTechnologies(ctx, q)
		return err
	})
	return techs, err
}

// GetTechnology returns the technology with id or models.ErrNotFound
func (s *Store) GetTechnology(ctx context.Context, id int) (*models.Technology, error) {
	var tech *models.Technology
	err := s.read(ctx, "get technology", func(q querier) error {
		var err error
		tech, err = getTechnology(ctx, q, id)
		return err
	})
	return tech, err
}

// GetTechnologyByName looks a technology up by its unique name
func (s *Store) GetTechnologyByName(ctx context.Context, name string) (*models.Technology, error) {
	var tech *models.Technology
	err := s.read(ctx, "get technology by name", func(q querier) error {
		var err error
		tech, err = getTechnologyByName(ctx, q, name)
		return err
	})
	return tech, err
}

// TechnologyStats counts the devices and definitions of one technology
func (s *Store) TechnologyStats(ctx context.Context, techID int) (*models.TechnologyStats, error) {
	var stats *models.TechnologyStats
	err := s.read(ctx, "technology stats", func(q querier) error {
		var err error
		stats, err = technologyStats(ctx, q, techID)
		return err
	})
	return stats, err
}

// CreateTechnology inserts a new technology
func (s *Store) CreateTechnology(ctx context.Context, name, version, path string) (*models.Technology, error) {
	var tech *models.Technology
	err := s.write(ctx, "create technology", func(tx *sql.Tx) error {
		var err error
		tech, err = insertTechnology(ctx, tx, name, version, path)
		return err
	})
	return tech, err
}
