// Package adapter defines the database adapter contract for askdb.
//
// Adapters expose the read-only primitives the agent needs: executing a
// single bounded statement and introspecting schema metadata for prompt
// context. Concrete implementations live in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"time"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Driver specifies the database type (e.g., "postgres", "duckdb")
	Driver string

	// Path is the file path for file-based databases (e.g., DuckDB).
	// Use ":memory:" for in-memory databases
	Path string

	// Host is the hostname for network-based databases
	Host string

	// Port is the port number for network-based databases
	Port int

	// Database is the database name
	Database string

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// Schema is the default schema to introspect
	Schema string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema  string
	Name    string
	Columns []Column
}

// ForeignKey describes one outbound reference from a table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Result is a fully materialized query result: ordered column names and
// row tuples. Values are driver-native except []byte, which is converted
// to string.
type Result struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows in the result.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Adapter is the interface all database adapters implement.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Query executes one statement under a server-side (or context)
	// timeout and materializes all rows. Driver errors are returned as
	// values; the connection is released on every path.
	Query(ctx context.Context, sqlText string, timeout time.Duration) (*Result, error)

	// Tables lists the table names in the configured schema.
	Tables(ctx context.Context) ([]string, error)

	// TableMetadata retrieves column metadata for a table.
	TableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// ForeignKeys lists outbound foreign keys for a table. Adapters whose
	// engine does not expose them may return an empty slice.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)

	// SampleRows fetches up to limit rows from a table for prompt context.
	SampleRows(ctx context.Context, table string, limit int) (*Result, error)

	// DialectName returns the SQL dialect name (e.g., "postgres").
	DialectName() string
}
