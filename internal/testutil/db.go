package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// SetupTestStore creates an in-memory store with the full schema.
// The store is closed by test cleanup.
func SetupTestStore(t *testing.T) *database.Store {
	t.Helper()
	s, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestStorePath returns a path for a store file inside a per-test directory
func TestStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "clex_database.db")
}

// FixtureDataset is a small dataset with two technologies. tsmc28 has
// three devices, two of them with definitions; gf22 has one device and
// no definition.
func FixtureDataset() *models.Dataset {
	return &models.Dataset{
		Technologies: []models.TechnologyRecord{
			{Name: "tsmc28", Version: "1.2", Path: "/pdk/tsmc28/v1.2", Devices: []string{"nch_lvt", "pch_lvt", "rppoly"}},
			{Name: "gf22", Version: "0.9", Path: "/pdk/gf22/v0.9", Devices: []string{"nfet"}},
		},
		Definitions: []models.DefinitionRecord{
			{
				TechnologyName: "tsmc28",
				DeviceName:     "nch_lvt",
				FolderPath:     "/pdk/tsmc28/v1.2/models/spectre",
				FileName:       "nch_lvt.scs",
				Text: "inline subckt nch_lvt\n" +
					"Folder Path: /pdk/tsmc28/v1.2/models/spectre\n" +
					"File Name: nch_lvt.scs\n" +
					"clexvw assert expr=vth > 0.25",
			},
			{
				TechnologyName: "tsmc28",
				DeviceName:     "pch_lvt",
				FolderPath:     "/pdk/tsmc28/v1.2/models/spectre",
				FileName:       "pch_lvt.scs",
				Text: "inline subckt pch_lvt\n" +
					"Folder Path: /pdk/tsmc28/v1.2/models/spectre\n" +
					"File Name: pch_lvt.scs\n" +
					"clexcw assert expr=id_sat < 1e-3",
			},
		},
	}
}

// SeedDataset loads FixtureDataset into s
func SeedDataset(t *testing.T, s *database.Store) {
	t.Helper()
	if _, err := s.ReplaceAll(context.Background(), FixtureDataset(), nil); err != nil {
		t.Fatalf("Failed to seed dataset: %v", err)
	}
}

// MustTechnology looks a technology up by name
func MustTechnology(t *testing.T, s *database.Store, name string) *models.Technology {
	t.Helper()
	tech, err := s.GetTechnologyByName(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to get technology %q: %v", name, err)
	}
	return tech
}

// MustDevice looks a device up by technology and device name
func MustDevice(t *testing.T, s *database.Store, techName, deviceName string) *models.Device {
	t.Helper()
	tech := MustTechnology(t, s, techName)
	devices, err := s.ListDevices(context.Background(), tech.ID)
	if err != nil {
		t.Fatalf("Failed to list devices: %v", err)
	}
	for _, d := range devices {
		if d.Name == deviceName {
			return d
		}
	}
	t.Fatalf("Device %q not found in %q", deviceName, techName)
	return nil
}

// DumpDefinitions returns every definition keyed by device id
func DumpDefinitions(t *testing.T, s *database.Store) map[int]*models.Definition {
	t.Helper()
	ctx := context.Background()
	techs, err := s.ListTechnologies(ctx)
	if err != nil {
		t.Fatalf("Failed to list technologies: %v", err)
	}

	out := make(map[int]*models.Definition)
	for _, tech := range techs {
		defs, err := s.ListDefinitions(ctx, tech.ID)
		if err != nil {
			t.Fatalf("Failed to list definitions: %v", err)
		}
		for _, d := range defs {
			out[d.DeviceID] = d
		}
	}
	return out
}

// DumpDevices returns every device keyed by id
func DumpDevices(t *testing.T, s *database.Store) map[int]*models.Device {
	t.Helper()
	ctx := context.Background()
	techs, err := s.ListTechnologies(ctx)
	if err != nil {
		t.Fatalf("Failed to list technologies: %v", err)
	}

	out := make(map[int]*models.Device)
	for _, tech := range techs {
		devs, err := s.ListDevices(ctx, tech.ID)
		if err != nil {
			t.Fatalf("Failed to list devices: %v", err)
		}
		for _, d := range devs {
			out[d.ID] = d
		}
	}
	return out
}
