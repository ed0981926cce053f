// Package cli holds what the clexbrowser subcommands share: the loaded
// configuration, the store, output formatting and exit codes.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/database"
)

// CLI represents the CLI application context
type CLI struct {
	Config *config.Config
	Store  *database.Store
}

// NewCLI opens the configured store. The store must already exist; the
// ingest and browse commands are the only ones that build it.
func NewCLI(ctx context.Context, cfg *config.Config) (*CLI, error) {
	store, err := database.OpenStore(ctx, cfg.Database.Path, database.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.Database.Path, err)
	}
	return &CLI{Config: cfg, Store: store}, nil
}

// FromCommand builds a CLI from the configuration stored on ctx
func FromCommand(ctx context.Context) (*CLI, error) {
	cfg, err := ConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return NewCLI(ctx, cfg)
}

// Close cleans up CLI resources
func (c *CLI) Close() error {
	return c.Store.Close()
}
