// Package config loads and saves the clexbrowser configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CLEX_DATABASE_PATH
const EnvPrefix = "CLEX"

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig `yaml:"database" mapstructure:"database"`
	Log         LogConfig      `yaml:"log" mapstructure:"log"`
	Worker      WorkerConfig   `yaml:"worker" mapstructure:"worker"`
	History     HistoryConfig  `yaml:"history" mapstructure:"history"`
	KeyMappings KeyMappings    `yaml:"key_mappings" mapstructure:"key_mappings"`
	Theme       Theme          `yaml:"theme" mapstructure:"theme"`
}

// DatabaseConfig locates the store and the log it is built from
type DatabaseConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}

// LogConfig controls the rotating application log
type LogConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	Level      string `yaml:"level" mapstructure:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// WorkerConfig sizes the background task coordinator
type WorkerConfig struct {
	PoolSize        int           `yaml:"pool_size" mapstructure:"pool_size"`
	EventBuffer     int           `yaml:"event_buffer" mapstructure:"event_buffer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// HistoryConfig bounds the undo history
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
}

// DataDir returns ~/.clexbrowser, where the store and logs live by default
func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".clexbrowser"
	}
	return filepath.Join(homeDir, ".clexbrowser")
}

// Default returns the built-in configuration
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Database: DatabaseConfig{
			Path:    filepath.Join(dataDir, "clex_database.db"),
			LogFile: "output.log",
		},
		Log: LogConfig{
			Path:       filepath.Join(dataDir, "logs", "clexbrowser.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Worker: WorkerConfig{
			PoolSize:        0, // 0 selects worker.DefaultWorkers()
			EventBuffer:     256,
			ShutdownTimeout: 5 * time.Second,
		},
		History: HistoryConfig{
			MaxDepth: 50,
		},
		KeyMappings: DefaultKeyMappings(),
		Theme:       DefaultTheme(),
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.log_file", d.Database.LogFile)

	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)

	v.SetDefault("worker.pool_size", d.Worker.PoolSize)
	v.SetDefault("worker.event_buffer", d.Worker.EventBuffer)
	v.SetDefault("worker.shutdown_timeout", d.Worker.ShutdownTimeout.String())

	v.SetDefault("history.max_depth", d.History.MaxDepth)
}

// newViper creates a Viper instance with the CLEX_ environment prefix and
// the built-in defaults
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// Load loads config from the user's config directory.
// Precedence, highest first: CLEX_* environment variables, the config
// file, built-in defaults. A missing config file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return LoadFile("")
	}
	return LoadFile(path)
}

// LoadFile loads config from path; an empty or missing path uses defaults
func LoadFile(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decoderOption()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadThemeFile(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values no component can work with
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must be set"))
	}
	if c.Worker.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("worker.pool_size must not be negative, got %d", c.Worker.PoolSize))
	}
	if c.Worker.EventBuffer < 1 {
		errs = append(errs, fmt.Errorf("worker.event_buffer must be positive, got %d", c.Worker.EventBuffer))
	}
	if c.Worker.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("worker.shutdown_timeout must be positive, got %s", c.Worker.ShutdownTimeout))
	}
	if c.History.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("history.max_depth must be positive, got %d", c.History.MaxDepth))
	}
	return errors.Join(errs...)
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the config as YAML to path, creating its directory
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

// Path returns the path to the config file
func Path() (string, error) {
	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "clexbrowser", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "clexbrowser", "config.yaml"), nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	c.KeyMappings.applyDefaults()
	c.Theme.ApplyDefaults()
}
