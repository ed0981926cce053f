package database

import (
	"context"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// TechnologyReader defines read operations for technologies.
type TechnologyReader interface {
	ListTechnologies(ctx context.Context) ([]*models.Technology, error)
	GetTechnology(ctx context.Context, id int) (*models.Technology, error)
	GetTechnologyByName(ctx context.Context, name string) (*models.Technology, error)
	TechnologyStats(ctx context.Context, techID int) (*models.TechnologyStats, error)
}

// TechnologyWriter defines write operations for technologies.
type TechnologyWriter interface {
	CreateTechnology(ctx context.Context, name, version, path string) (*models.Technology, error)
}

// DeviceReader defines read operations for devices.
type DeviceReader interface {
	ListDevices(ctx context.Context, techID int) ([]*models.Device, error)
	ListDevicesWithDefinitions(ctx context.Context, techID int) ([]*models.Device, error)
	GetDevice(ctx context.Context, id int) (*models.Device, error)
	DeviceNameExists(ctx context.Context, techID int, name string) (bool, error)
}

// DeviceWriter defines write operations for devices.
type DeviceWriter interface {
	CreateDevice(ctx context.Context, techID int, name string) (*models.Device, error)
	CreateDeviceWithDefinition(ctx context.Context, techID int, name string, def *models.Definition) (*models.Device, *models.Definition, error)
	DeleteDevice(ctx context.Context, id int) error
	RestoreDevice(ctx context.Context, dev *models.Device, def *models.Definition) error
}

// DefinitionReader defines read operations for definitions.
type DefinitionReader interface {
	GetDefinition(ctx context.Context, deviceID int) (*models.Definition, error)
	ListDefinitions(ctx context.Context, techID int) ([]*models.Definition, error)
}

// DefinitionWriter defines write operations for definitions.
type DefinitionWriter interface {
	AddDefinition(ctx context.Context, deviceID int, def *models.Definition) (*models.Definition, error)
	UpdateDefinition(ctx context.Context, deviceID int, def *models.Definition) (*models.Definition, error)
	PutDefinition(ctx context.Context, deviceID int, def *models.Definition) (*models.Definition, error)
	DeleteDefinition(ctx context.Context, deviceID int) (*models.Definition, error)
	RestoreDefinition(ctx context.Context, def *models.Definition) error
	DeleteDefinitions(ctx context.Context, deviceIDs []int) ([]*models.Definition, error)
	RestoreDefinitions(ctx context.Context, defs []*models.Definition) error
}

// Searcher defines the cross-technology search.
type Searcher interface {
	Search(ctx context.Context, query models.SearchQuery) ([]models.SearchHit, error)
	SearchDeviceNames(ctx context.Context, query models.SearchQuery) ([]models.SearchHit, error)
	SearchDefinitions(ctx context.Context, query models.SearchQuery) ([]models.SearchHit, error)
}

// DatasetLoader replaces the whole dataset at once.
type DatasetLoader interface {
	ReplaceAll(ctx context.Context, ds *models.Dataset, progress ProgressFunc) (LoadSummary, error)
}
