// Package logging configures the process-wide slog logger
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global slog instance for the application
var Logger *slog.Logger

// Options controls Init
type Options struct {
	// Path of the rotating log file; empty disables file logging
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console, when set, also receives colored records (used by --verbose)
	Console io.Writer
}

// ParseLevel maps a config level name to a slog level; unknown names are Info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the logging system and installs the result as the slog
// default. The returned closer flushes and closes the log file.
func Init(opts Options) (io.Closer, error) {
	level := ParseLevel(opts.Level)

	var (
		handlers []slog.Handler
		file     *lumberjack.Logger
	)

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		// Create rotating log file writer
		lj := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		file = lj

		// Create text handler (human readable)
		handlers = append(handlers, slog.NewTextHandler(lj, &slog.HandlerOptions{Level: level}))
	}

	if opts.Console != nil {
		handlers = append(handlers, tint.NewHandler(opts.Console, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		}))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.DiscardHandler
	case 1:
		handler = handlers[0]
	default:
		handler = fanout(handlers)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	if file == nil {
		return nopCloser{}, nil
	}

	// Redirect standard log package output to the same file
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags)
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
