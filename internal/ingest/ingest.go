package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/thenoetrevino/clexbrowser/internal/database"
)

// StoreReady describes the store EnsureStore left behind
type StoreReady struct {
	Path string
	// Built is false when an existing store was reused as is
	Built   bool
	Summary database.LoadSummary
}

// EnsureStore makes sure a store with the current schema exists at dbPath.
// An existing store is reused unless refresh is set; otherwise the log at
// logPath is parsed and loaded with Store.ReplaceAll. The log is parsed
// before the store is touched, so a bad log never damages a good store.
// Every failure is an *IngestError.
func EnsureStore(ctx context.Context, logPath, dbPath string, refresh bool, opts ...Option) (StoreReady, error) {
	o := buildOptions(opts)
	report := func(percent int, status string) {
		if o.progress != nil {
			o.progress(percent, status)
		}
	}
	ready := StoreReady{Path: dbPath}

	schemaOK := false
	if database.StoreExists(dbPath) {
		store, err := database.OpenStore(ctx, dbPath, database.WithLogger(o.logger))
		switch {
		case err == nil:
			closeStore(store, o.logger, dbPath)
			schemaOK = true
		case errors.Is(err, database.ErrSchemaMismatch):
			o.logger.Warn("store schema mismatch, rebuilding", "path", dbPath, "error", err)
		default:
			return ready, &IngestError{Op: "open store", Path: dbPath, Err: err}
		}
	}
	if schemaOK && !refresh {
		o.logger.Debug("reusing existing store", "path", dbPath)
		return ready, nil
	}

	if logPath == "" {
		return ready, &IngestError{Op: "read log", Err: errors.New("no log file configured")}
	}

	report(10, "Reading log file...")
	parser := &Parser{logger: o.logger, onLine: o.onLine}
	ds, err := parser.ParseFile(ctx, logPath)
	if err != nil {
		return ready, err
	}
	if len(ds.Technologies) == 0 {
		return ready, &IngestError{Op: "parse log", Path: logPath, Err: ErrNoTechnologies}
	}
	report(60, fmt.Sprintf("Found %d technologies, %d definitions", len(ds.Technologies), len(ds.Definitions)))

	if !schemaOK && database.StoreExists(dbPath) {
		if err := removeStore(dbPath); err != nil {
			return ready, &IngestError{Op: "remove store", Path: dbPath, Err: err}
		}
	}

	store, err := database.Open(ctx, dbPath, database.WithLogger(o.logger))
	if err != nil {
		return ready, &IngestError{Op: "open store", Path: dbPath, Err: err}
	}
	defer closeStore(store, o.logger, dbPath)

	report(80, "Creating database...")
	summary, err := store.ReplaceAll(ctx, ds, nil)
	if err != nil {
		return ready, &IngestError{Op: "load store", Path: dbPath, Err: err}
	}
	report(100, "Database created successfully!")

	o.logger.Info("store built",
		"path", dbPath,
		"technologies", summary.Technologies,
		"devices", summary.Devices,
		"definitions", summary.Definitions,
		"skipped", summary.Skipped)

	ready.Built = true
	ready.Summary = summary
	return ready, nil
}

// removeStore deletes a database file and its WAL side files
func removeStore(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// closeStore closes a store whose close error cannot change the outcome
func closeStore(store io.Closer, logger *slog.Logger, path string) {
	if err := store.Close(); err != nil {
		logger.Warn("failed to close store", "path", path, "error", err)
	}
}
