package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Query, TableMetadata, and SampleRows implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Ping verifies the connection is alive.
func (b *BaseSQLAdapter) Ping(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return b.DB.PingContext(ctx)
}

// Query executes one statement bounded by a context deadline and
// materializes the result. Adapters with server-side statement timeouts
// override this.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlText string, timeout time.Duration) (*Result, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rows, err := b.DB.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return CollectRows(rows)
}

// SampleRows fetches up to limit rows from a table.
func (b *BaseSQLAdapter) SampleRows(ctx context.Context, table string, limit int) (*Result, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	// Table names come from introspection, not user input.
	//nolint:gosec
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	return CollectRows(rows)
}

// ParseQualifiedName splits a table reference into schema and name,
// falling back to the given default schema.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// TableMetadataCommon provides a shared implementation of TableMetadata
// over information_schema.columns. The placeholder function formats
// positional parameters for the adapter's dialect ($N or ?).
func (b *BaseSQLAdapter) TableMetadataCommon(ctx context.Context, table, defaultSchema string, placeholder func(int) string) (*TableMetadata, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	// Placeholders come from the adapter's dialect and are safe.
	//nolint:gosec
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			COALESCE(column_default, ''),
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Default, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &TableMetadata{
		Schema:  schema,
		Name:    tableName,
		Columns: columns,
	}, nil
}

// CollectRows drains sql.Rows into a Result, converting []byte values to
// strings for readability.
func CollectRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		for i, val := range values {
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
