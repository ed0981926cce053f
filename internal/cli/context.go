package cli

import (
	"context"
	"errors"

	"github.com/thenoetrevino/clexbrowser/internal/config"
)

// ErrNoConfig is returned when a subcommand runs without the root command
// having loaded the configuration
var ErrNoConfig = errors.New("configuration not loaded")

type configKey struct{}

// WithConfig stores the loaded configuration on ctx
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext returns the configuration stored by WithConfig
func ConfigFromContext(ctx context.Context) (*config.Config, error) {
	if ctx == nil {
		return nil, ErrNoConfig
	}
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, ErrNoConfig
	}
	return cfg, nil
}
