// Package duckdb provides a DuckDB database adapter for askdb.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/askdb-labs/askdb/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}

// Adapter implements the adapter.Adapter interface for DuckDB.
// Queries are bounded by a context deadline; DuckDB has no server-side
// statement timeout, so the base Query implementation applies.
type Adapter struct {
	adapter.BaseSQLAdapter
}

var _ adapter.Adapter = (*Adapter)(nil)

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Tables lists the base tables in the configured schema.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, a.defaultSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// TableMetadata retrieves column metadata for a table.
func (a *Adapter) TableMetadata(ctx context.Context, table string) (*adapter.TableMetadata, error) {
	return a.TableMetadataCommon(ctx, table, a.defaultSchema(), func(int) string {
		return "?"
	})
}

// ForeignKeys returns no constraints. DuckDB exposes them through
// duckdb_constraints() with list-typed columns, which database/sql cannot
// scan portably; relationship hints cover the gap in the schema context.
func (a *Adapter) ForeignKeys(_ context.Context, _ string) ([]adapter.ForeignKey, error) {
	return nil, nil
}

func (a *Adapter) defaultSchema() string {
	if a.Cfg.Schema != "" {
		return a.Cfg.Schema
	}
	return "main"
}
