package tasks

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// Ingester turns a log file into a dataset
type Ingester interface {
	ParseFile(ctx context.Context, path string) (*models.Dataset, error)
}

// DatasetStore is what CreateOrRefreshDatabase writes
type DatasetStore interface {
	ListTechnologies(ctx context.Context) ([]*models.Technology, error)
	database.DatasetLoader
}

// CreateOrRefreshDatabase parses the log at logPath and replaces the
// store's dataset with it. Without refresh, a store that already holds
// technologies is left alone and the zero summary is returned.
// Polls: between phases, and before each technology during the load.
func CreateOrRefreshDatabase(ingester Ingester, store DatasetStore, logPath string, refresh bool) worker.Task {
	return worker.Func(KindRefreshDatabase, func(ctx context.Context, r worker.Reporter) (any, error) {
		if !refresh {
			techs, err := store.ListTechnologies(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to inspect store: %w", err)
			}
			if len(techs) > 0 {
				r.Progress(100)
				r.Status("Database already loaded")
				return database.LoadSummary{}, nil
			}
		}

		r.Status("Reading log file...")
		r.Progress(10)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ds, err := ingester.ParseFile(ctx, logPath)
		if err != nil {
			return nil, err
		}

		r.Status(fmt.Sprintf("Parsing technologies... found %d", len(ds.Technologies)))
		r.Progress(30)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.Status(fmt.Sprintf("Extracting CLEX definitions... found %d", len(ds.Definitions)))
		r.Progress(60)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.Status("Creating database...")
		r.Progress(80)
		summary, err := store.ReplaceAll(ctx, ds, func(done, total int) {
			r.Progress(80 + done*19/total)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}

		r.Progress(100)
		r.Status("Database created successfully!")
		return summary, nil
	})
}
