package tasks

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// LoadTechnologies lists every technology.
// Polls: before the query.
func LoadTechnologies(store database.TechnologyReader) worker.Task {
	return worker.Func(KindLoadTechnologies, func(ctx context.Context, r worker.Reporter) (any, error) {
		r.Status("Loading technologies...")
		r.Progress(10)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		techs, err := store.ListTechnologies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load technologies: %w", err)
		}

		r.Progress(100)
		r.Status(fmt.Sprintf("Loaded %d technologies", len(techs)))
		return techs, nil
	})
}

// DeviceStore is what LoadDevices reads
type DeviceStore interface {
	database.DeviceReader
	TechnologyStats(ctx context.Context, techID int) (*models.TechnologyStats, error)
}

// LoadDevices lists a technology's devices, or only those with a
// definition when withDefinitionOnly is set, together with its statistics.
// Polls: before the devices query and before the statistics query.
func LoadDevices(store DeviceStore, techID int, withDefinitionOnly bool) worker.Task {
	return worker.Func(KindLoadDevices, func(ctx context.Context, r worker.Reporter) (any, error) {
		r.Status("Loading devices...")
		r.Progress(10)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		list := store.ListDevices
		if withDefinitionOnly {
			list = store.ListDevicesWithDefinitions
		}
		devices, err := list(ctx, techID)
		if err != nil {
			return nil, fmt.Errorf("failed to load devices: %w", err)
		}
		r.Progress(60)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats, err := store.TechnologyStats(ctx, techID)
		if err != nil {
			return nil, fmt.Errorf("failed to load statistics: %w", err)
		}

		r.Progress(100)
		r.Status(fmt.Sprintf("Loaded %d devices", len(devices)))
		return DevicesPayload{TechnologyID: techID, Devices: devices, Stats: stats}, nil
	})
}

// DefinitionStore is what LoadDefinition reads
type DefinitionStore interface {
	GetDevice(ctx context.Context, id int) (*models.Device, error)
	database.DefinitionReader
}

// LoadDefinition fetches a device's definition and splits it into a
// header and a body without the location lines.
// Polls: before the query and before post-processing.
func LoadDefinition(store DefinitionStore, deviceID int) worker.Task {
	return worker.Func(KindLoadDefinition, func(ctx context.Context, r worker.Reporter) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dev, err := store.GetDevice(ctx, deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load device: %w", err)
		}
		def, err := store.GetDefinition(ctx, deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load definition: %w", err)
		}
		r.Progress(50)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		view := DefinitionView{Device: dev}
		if def != nil {
			view.Found = true
			view.Definition = def
			view.Header = definitionHeader(dev, def)
			view.Body = def.Body()
		}
		r.Progress(100)
		return view, nil
	})
}

// StatisticsStore is what LoadStatistics reads
type StatisticsStore interface {
	ListTechnologies(ctx context.Context) ([]*models.Technology, error)
	TechnologyStats(ctx context.Context, techID int) (*models.TechnologyStats, error)
}

// LoadStatistics collects statistics for every technology.
// Polls: before listing and before each technology.
func LoadStatistics(store StatisticsStore) worker.Task {
	return worker.Func(KindLoadStatistics, func(ctx context.Context, r worker.Reporter) (any, error) {
		r.Status("Collecting statistics...")
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		techs, err := store.ListTechnologies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load technologies: %w", err)
		}

		summaries := make([]TechnologySummary, 0, len(techs))
		for i, tech := range techs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			stats, err := store.TechnologyStats(ctx, tech.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load statistics for %s: %w", tech.Name, err)
			}
			summaries = append(summaries, TechnologySummary{Technology: tech, Stats: stats})
			r.Progress((i + 1) * 100 / len(techs))
		}

		r.Progress(100)
		return summaries, nil
	})
}
