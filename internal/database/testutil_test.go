package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/thenoetrevino/clexbrowser/internal/models"
	_ "modernc.org/sqlite"
)

// ============================================================================
// STORE SETUP HELPERS
// ============================================================================

// setupTestStore creates an in-memory store with the schema applied
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// setupTestStoreFile creates a file-backed store for persistence tests
func setupTestStoreFile(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clex.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

// closeAndReopenStore simulates an app restart
func closeAndReopenStore(t *testing.T, s *Store, path string) *Store {
	t.Helper()
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := OpenStore(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	return reopened
}

// ============================================================================
// SEED HELPERS
// ============================================================================

// seedTechnology creates a technology with the given devices
func seedTechnology(t *testing.T, s *Store, name string, devices ...string) (*models.Technology, []*models.Device) {
	t.Helper()
	ctx := context.Background()

	tech, err := s.CreateTechnology(ctx, name, "1.0", "/pdk/"+name)
	if err != nil {
		t.Fatalf("Failed to create technology %q: %v", name, err)
	}

	created := make([]*models.Device, 0, len(devices))
	for _, dev := range devices {
		d, err := s.CreateDevice(ctx, tech.ID, dev)
		if err != nil {
			t.Fatalf("Failed to create device %q: %v", dev, err)
		}
		created = append(created, d)
	}
	return tech, created
}

// seedDefinition attaches a definition to a device
func seedDefinition(t *testing.T, s *Store, deviceID int, text string) *models.Definition {
	t.Helper()
	def, err := s.AddDefinition(context.Background(), deviceID, &models.Definition{
		FolderPath: "/models/v1.0",
		FileName:   "devices.scs",
		Text:       text,
	})
	if err != nil {
		t.Fatalf("Failed to add definition: %v", err)
	}
	return def
}

// ============================================================================
// TEST ASSERTION HELPERS
// ============================================================================

// verifyDefinitionFlags checks that every device's has_definition flag
// matches the presence of a definitions row
func verifyDefinitionFlags(t *testing.T, s *Store) {
	t.Helper()
	var mismatched int
	err := s.db.QueryRowContext(context.Background(), `
		SELECT COUNT(*) FROM devices d
		WHERE d.has_definition != EXISTS (SELECT 1 FROM definitions def WHERE def.device_id = d.id)
	`).Scan(&mismatched)
	if err != nil {
		t.Fatalf("Failed to check definition flags: %v", err)
	}
	if mismatched != 0 {
		t.Errorf("%d devices have a has_definition flag that disagrees with the definitions table", mismatched)
	}
}

// countRows returns the number of rows in table
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
