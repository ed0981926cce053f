//go:build ignore
// +build ignore

// Helper script to fill a store with sample technologies
// Run with: go run add_test_data.go [store path]

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/models"
)

func definition(tech, version, device, assert string) models.DefinitionRecord {
	folder := fmt.Sprintf("/pdk/%s/v%s/models/spectre", tech, version)
	return models.DefinitionRecord{
		TechnologyName: tech,
		DeviceName:     device,
		FolderPath:     folder,
		FileName:       device + ".scs",
		Text: fmt.Sprintf("inline subckt %s\nFolder Path: %s\nFile Name: %s.scs\n%s",
			device, folder, device, assert),
	}
}

func main() {
	path := config.Default().Database.Path
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	ctx := context.Background()
	store, err := database.Open(ctx, path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	ds := &models.Dataset{
		Technologies: []models.TechnologyRecord{
			{Name: "tsmc28", Version: "1.2", Path: "/pdk/tsmc28/v1.2", Devices: []string{"nch_lvt", "pch_lvt", "nch_hvt", "rppoly"}},
			{Name: "gf22", Version: "0.9", Path: "/pdk/gf22/v0.9", Devices: []string{"nfet", "pfet"}},
		},
		Definitions: []models.DefinitionRecord{
			definition("tsmc28", "1.2", "nch_lvt", "clexvw assert expr=vth > 0.25"),
			definition("tsmc28", "1.2", "pch_lvt", "clexcw assert expr=id_sat < 1e-3"),
			definition("gf22", "0.9", "nfet", "clexvw assert expr=vds < 0.8"),
		},
	}

	summary, err := store.ReplaceAll(ctx, ds, nil)
	if err != nil {
		log.Fatalf("Failed to load sample data: %v", err)
	}
	log.Printf("Loaded %d technologies, %d devices, %d definitions into %s",
		summary.Technologies, summary.Devices, summary.Definitions, path)
}
