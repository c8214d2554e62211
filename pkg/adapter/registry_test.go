package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Driver:    "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()

	assert.NotEmpty(t, msg, "error message should not be empty")
	assert.Contains(t, msg, "fake_db", "error should mention the unknown driver 'fake_db'")
	assert.Contains(t, msg, "askdb.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_internal"), "test_adapter_internal should be registered after Register()")

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok, "Get(test_adapter_internal) should return true after Register()")
	assert.NotNil(t, factory, "Get(test_adapter_internal) should return non-nil factory")
}

func TestNewAdapter_EmptyDriver(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err, "NewAdapter with empty driver should fail")
	assert.Equal(t, "database driver not specified", err.Error())
}

func TestNewAdapter_UnknownDriver(t *testing.T) {
	_, err := NewAdapter(Config{Driver: "no_such_driver"}, nil)
	require.Error(t, err)

	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no_such_driver", unknown.Driver)
}
