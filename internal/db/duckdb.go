// Package db opens DuckDB connections with the spatial and parquet
// extensions loaded.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
)

// Extensions are loaded into every connection.
var Extensions = []string{"spatial", "parquet"}

// Config holds database configuration.
type Config struct {
	// DataDir holds the database file. Empty means an in-memory database.
	DataDir string
	DBName  string
}

// Open opens a DuckDB database and loads Extensions. A failed extension is
// logged; queries that need it fail later.
func Open(ctx context.Context, logger *logpkg.Logger, cfg Config) (*sqlx.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "viewer"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sqlx.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	// Extensions are loaded per connection.
	conn.SetMaxOpenConns(1)

	for _, ext := range Extensions {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			logger.Warn("duckdb extension %s unavailable: %s", ext, err)
		}
	}
	return conn, nil
}
