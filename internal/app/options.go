package app

import (
	"log/slog"

	"github.com/thenoetrevino/clexbrowser/internal/database"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	store  *database.Store
	logger *slog.Logger
}

// WithStore uses an already opened store instead of opening
// cfg.Database.Path. The App takes ownership and closes it.
func WithStore(store *database.Store) Option {
	return func(cfg *appConfig) {
		cfg.store = store
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
