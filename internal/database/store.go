package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

// Store is the data access layer. It is created once by the composition
// root and shared by every task and command.
//
// Reads hold a shared lock and may run alongside each other. Writes hold
// the exclusive lock for the whole transaction, so a read started during a
// write waits for it and never sees a half-written row.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	logger *slog.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the logger used for write failures
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPath records the file path the store was opened from
func WithPath(path string) StoreOption {
	return func(s *Store) {
		s.path = path
	}
}

// NewStore wraps an open database connection.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open initializes the database at path and wraps it in a Store
func Open(ctx context.Context, path string, opts ...StoreOption) (*Store, error) {
	db, err := InitDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(db, append([]StoreOption{WithPath(path)}, opts...)...), nil
}

// OpenStore opens an existing store at path without migrating it
func OpenStore(ctx context.Context, path string, opts ...StoreOption) (*Store, error) {
	db, err := OpenExisting(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(db, append([]StoreOption{WithPath(path)}, opts...)...), nil
}

// Path returns the file the store was opened from, if known
func (s *Store) Path() string {
	return s.path
}

// Close waits for in-flight operations and closes the connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SchemaVersion returns the version stamped in the store
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.read(ctx, "schema version", func(q querier) error {
		return q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	})
	return version, err
}

// CheckSchema returns ErrSchemaMismatch unless the store is at SchemaVersion
func (s *Store) CheckSchema(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("store at version %d, want %d: %w", version, SchemaVersion, ErrSchemaMismatch)
	}
	return nil
}

// read runs fn under the shared lock
func (s *Store) read(ctx context.Context, op string, fn func(q querier) error) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return wrapStorage(op, fn(s.db))
}

// write runs fn inside a transaction under the exclusive lock. Any error
// rolls the whole transaction back.
func (s *Store) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return wrapStorage(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := withTx(ctx, s.db, fn); err != nil {
		s.logger.Debug("write rolled back", "op", op, "error", err)
		return wrapStorage(op, err)
	}
	return nil
}
