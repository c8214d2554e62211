package duckdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := New(nil)
	a.DB = db
	return a, mock
}

func TestAdapter_DialectName(t *testing.T) {
	assert.Equal(t, "duckdb", New(nil).DialectName())
}

func TestAdapter_Tables(t *testing.T) {
	a, mock := newMockAdapter(t)

	rows := sqlmock.NewRows([]string{"table_name"}).
		AddRow("events").
		AddRow("users")
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("main").
		WillReturnRows(rows)

	tables, err := a.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "users"}, tables)
}

func TestAdapter_Tables_CustomSchema(t *testing.T) {
	a, mock := newMockAdapter(t)
	a.Cfg.Schema = "analytics"

	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("analytics").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	tables, err := a.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestAdapter_TableMetadata(t *testing.T) {
	a, mock := newMockAdapter(t)

	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}).
		AddRow("event_id", "BIGINT", "NO", "", 1).
		AddRow("payload", "VARCHAR", "YES", "", 2)
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("main", "events").
		WillReturnRows(rows)

	meta, err := a.TableMetadata(context.Background(), "events")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	require.Len(t, meta.Columns, 2)
	assert.True(t, meta.Columns[1].Nullable)
}

func TestAdapter_ForeignKeys_Empty(t *testing.T) {
	a, _ := newMockAdapter(t)

	fks, err := a.ForeignKeys(context.Background(), "events")
	require.NoError(t, err)
	assert.Empty(t, fks)
}

func TestAdapter_NotConnected(t *testing.T) {
	a := New(nil)
	_, err := a.Tables(context.Background())
	assert.ErrorContains(t, err, "database connection not established")
}
