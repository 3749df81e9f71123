// Package store wraps the embedded DuckDB analytical database that holds
// the raw, clean and feature transaction tables. A Store is opened for a
// single logical operation (ETL run, training, one API request) and closed
// afterwards; there is no long-lived shared connection.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/sgdatalabs/btopricer/internal/config"
)

// Store is a connection to the analytical database.
type Store struct {
	db    *sql.DB
	paths config.Paths
}

// Open opens the DuckDB database at the configured path.
// Use ":memory:" for an in-memory database (tests).
func Open(ctx context.Context, paths config.Paths) (*Store, error) {
	return open(ctx, paths, paths.DuckDBPath)
}

// OpenReadOnly opens the database for reading only, so concurrent API
// requests can each hold an independent connection safely.
func OpenReadOnly(ctx context.Context, paths config.Paths) (*Store, error) {
	return open(ctx, paths, paths.DuckDBPath+"?access_mode=read_only")
}

func open(ctx context.Context, paths config.Paths, dsn string) (*Store, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return &Store{db: db, paths: paths}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
