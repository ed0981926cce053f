// Package app wires the store, the task coordinator and the undo history
// into one container with a single lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/ingest"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// App holds all application components and provides dependency injection.
// The history belongs to the goroutine that drives the UI; everything else
// is safe for concurrent use.
type App struct {
	Config      *config.Config
	Store       *database.Store
	Coordinator *worker.Coordinator
	History     *history.History
	Ingester    *ingest.Parser

	logger *slog.Logger
}

// New opens the store and starts the coordinator.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &appConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = database.Open(ctx, cfg.Database.Path, database.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	workerOpts := []worker.Option{
		worker.WithEventBuffer(cfg.Worker.EventBuffer),
		worker.WithShutdownTimeout(cfg.Worker.ShutdownTimeout),
		worker.WithLogger(o.logger),
	}
	if cfg.Worker.PoolSize > 0 {
		workerOpts = append(workerOpts, worker.WithWorkers(cfg.Worker.PoolSize))
	}

	a := &App{
		Config:      cfg,
		Store:       store,
		Coordinator: worker.NewCoordinator(workerOpts...),
		History:     history.New(history.WithMaxDepth(cfg.History.MaxDepth), history.WithLogger(o.logger)),
		Ingester:    ingest.NewParser(ingest.WithLogger(o.logger)),
		logger:      o.logger,
	}
	a.logger.Info("app started", "store", store.Path())
	return a, nil
}

// Submit hands a task to the coordinator
func (a *App) Submit(task worker.Task) (worker.Handle, error) {
	return a.Coordinator.Submit(task)
}

// Reload rebuilds the store from the configured log file in the
// background. The history must be cleared once the task completes.
func (a *App) Reload(refresh bool) (worker.Handle, error) {
	return a.Submit(tasks.CreateOrRefreshDatabase(a.Ingester, a.Store, a.Config.Database.LogFile, refresh))
}

// Close stops the coordinator, waiting up to the configured shutdown
// timeout, then closes the store. Both steps always run.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Coordinator.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("coordinator: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}

	m := a.Coordinator.Metrics().Snapshot()
	a.logger.Info("app stopped",
		"submitted", m.Submitted,
		"completed", m.Completed,
		"failed", m.Failed,
		"cancelled", m.Cancelled,
		"abandoned", m.Abandoned)
	return errors.Join(errs...)
}
