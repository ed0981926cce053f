// Package tasks defines the background task kinds the browser submits to
// the worker coordinator. Each constructor captures its input and returns
// a worker.Task; each documents where it polls for cancellation.
package tasks

import (
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// Task kinds, reported on every event
const (
	KindLoadTechnologies = "load_technologies"
	KindLoadDevices      = "load_devices"
	KindLoadDefinition   = "load_definition"
	KindLoadStatistics   = "load_statistics"
	KindSearch           = "search"
	KindRefreshDatabase  = "refresh_database"
	KindBulkDelete       = "bulk_delete_definitions"
	KindRunCommand       = "run_command"
)

// DevicesPayload is the result of LoadDevices
type DevicesPayload struct {
	TechnologyID int
	Devices      []*models.Device
	Stats        *models.TechnologyStats
}

// DefinitionView is the result of LoadDefinition. Found is false for a
// device without a definition; Header and Body are empty then.
type DefinitionView struct {
	Device     *models.Device
	Found      bool
	Header     string
	Body       string
	Definition *models.Definition
}

// TechnologySummary pairs a technology with its statistics
type TechnologySummary struct {
	Technology *models.Technology
	Stats      *models.TechnologyStats
}

// SearchPayload is the result of Search
type SearchPayload struct {
	Query models.SearchQuery
	Hits  []models.SearchHit
}

// BulkDeleteResult is the result of BulkDeleteDefinitions
type BulkDeleteResult struct {
	Requested int
	Deleted   int
}

func definitionHeader(dev *models.Device, def *models.Definition) string {
	return fmt.Sprintf("Device: %s\nFolder: %s\nFile: %s", dev.Name, def.FolderPath, def.FileName)
}
