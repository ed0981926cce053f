package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// LoadSummary counts what ReplaceAll wrote
type LoadSummary struct {
	Technologies int
	Devices      int
	Definitions  int
	// Skipped definitions named a device that no technology lists
	Skipped int
}

// ProgressFunc receives the number of technologies loaded so far
type ProgressFunc func(done, total int)

// ReplaceAll discards the whole dataset and loads ds in one transaction.
// The context is checked before each technology; a cancelled load leaves
// the previous dataset in place.
func (s *Store) ReplaceAll(ctx context.Context, ds *models.Dataset, progress ProgressFunc) (LoadSummary, error) {
	var summary LoadSummary
	err := s.write(ctx, "replace all", func(tx *sql.Tx) error {
		summary = LoadSummary{}

		for _, stmt := range []string{
			`DELETE FROM definitions`,
			`DELETE FROM devices`,
			`DELETE FROM technologies`,
			`DELETE FROM sqlite_sequence`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to clear store: %w", err)
			}
		}

		// device ids keyed by technology name, then device name
		deviceIDs := make(map[string]map[string]int, len(ds.Technologies))
		total := len(ds.Technologies)

		for i, rec := range ds.Technologies {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, seen := deviceIDs[rec.Name]; seen {
				continue
			}

			tech, err := insertTechnology(ctx, tx, rec.Name, rec.Version, rec.Path)
			if err != nil {
				return fmt.Errorf("technology %q: %w", rec.Name, err)
			}
			summary.Technologies++

			ids := make(map[string]int, len(rec.Devices))
			for _, name := range rec.Devices {
				if _, dup := ids[name]; dup || name == "" {
					continue
				}
				result, err := tx.ExecContext(ctx,
					`INSERT INTO devices (name, technology_id, has_definition) VALUES (?, ?, 0)`,
					name, tech.ID,
				)
				if err != nil {
					return fmt.Errorf("device %q: %w", name, err)
				}
				id, err := result.LastInsertId()
				if err != nil {
					return err
				}
				ids[name] = int(id)
				summary.Devices++
			}
			deviceIDs[rec.Name] = ids

			if progress != nil {
				progress(i+1, total)
			}
		}

		for _, rec := range ds.Definitions {
			deviceID, ok := deviceIDs[rec.TechnologyName][rec.DeviceName]
			if !ok {
				s.logger.Warn("definition for unlisted device skipped",
					"technology", rec.TechnologyName, "device", rec.DeviceName)
				summary.Skipped++
				continue
			}

			// A later block for the same device replaces the earlier one
			res, err := tx.ExecContext(ctx, `
				INSERT INTO definitions (device_id, folder_path, file_name, definition_text)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(device_id) DO UPDATE SET
					folder_path = excluded.folder_path,
					file_name = excluded.file_name,
					definition_text = excluded.definition_text
			`, deviceID, rec.FolderPath, rec.FileName, rec.Text)
			if err != nil {
				return fmt.Errorf("definition for %q: %w", rec.DeviceName, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				if err := setHasDefinition(ctx, tx, deviceID, true); err != nil {
					return err
				}
			}
		}

		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM definitions`).Scan(&summary.Definitions)
	})
	if err != nil {
		return LoadSummary{}, err
	}
	return summary, nil
}
