// Package database handles the initialization of and access to the SQLite store
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// InitDB opens (creating if needed) the SQLite database at path and brings
// the schema up to date.
func InitDB(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// OpenExisting opens a database that must already exist at path and carry
// the expected schema version. It never creates or migrates anything.
func OpenExisting(ctx context.Context, path string) (*sql.DB, error) {
	if !StoreExists(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrStoreMissing)
	}

	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}

	version, err := readUserVersion(ctx, db)
	if err != nil {
		closeQuietly(db)
		return nil, err
	}
	if version != SchemaVersion {
		closeQuietly(db)
		return nil, fmt.Errorf("store at version %d, want %d: %w", version, SchemaVersion, ErrSchemaMismatch)
	}

	return db, nil
}

// StoreExists reports whether a database file is present at path
func StoreExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: SQLite has one writer, and ":memory:" databases
	// are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			slog.Error("failed to apply pragma", "pragma", pragma, "error", err)
			closeQuietly(db)
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		slog.Error("error closing db", "error", err)
	}
}
