// Package config loads and validates askdb configuration from file,
// environment variables, and CLI flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/askdb-labs/askdb/pkg/adapter"
)

// DatabaseConfig holds connection settings for one database target.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // postgres, duckdb

	// File-based databases (DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options (e.g. sslmode)
	Options map[string]string `koanf:"options"`
}

// AdapterConfig converts the target into the shape the adapters consume.
func (d *DatabaseConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Driver:   d.Driver,
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.Username,
		Password: d.Password,
		Schema:   d.Schema,
		Options:  d.Options,
	}
}

// Validate checks if the database configuration is valid.
// It uses the adapter registry to determine which drivers are available.
func (d *DatabaseConfig) Validate() error {
	if d.Driver == "" {
		return fmt.Errorf("database driver is required")
	}
	if !adapter.IsRegistered(strings.ToLower(d.Driver)) {
		return &adapter.UnknownAdapterError{
			Driver:    d.Driver,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// LLMConfig holds model provider settings.
type LLMConfig struct {
	Provider  string `koanf:"provider"` // anthropic, openai
	Model     string `koanf:"model"`
	Endpoint  string `koanf:"endpoint"`
	APIKeyEnv string `koanf:"api_key_env"`
	MaxTokens int    `koanf:"max_tokens"`
}

// AgentConfig tunes the question-answering loop.
type AgentConfig struct {
	MaxAttempts      int           `koanf:"max_attempts"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
	RowLimit         int           `koanf:"row_limit"`
	SampleRows       int           `koanf:"sample_rows"`
}

// Config is the full askdb configuration.
type Config struct {
	Database DatabaseConfig             `koanf:"database"`
	LLM      LLMConfig                  `koanf:"llm"`
	Agent    AgentConfig                `koanf:"agent"`
	Targets  map[string]*DatabaseConfig `koanf:"targets"`

	// HintsFile points at an optional schema hints yaml.
	HintsFile string `koanf:"hints_file"`

	Output  string `koanf:"output"` // table, json, csv, md
	Verbose bool   `koanf:"verbose"`

	// ConfigFile is the file the config was loaded from, if any.
	ConfigFile string `koanf:"-"`
}

// Validate checks the full configuration.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Agent.MaxAttempts < 1 {
		return fmt.Errorf("agent.max_attempts must be at least 1, got %d", c.Agent.MaxAttempts)
	}
	if c.Agent.RowLimit < 1 {
		return fmt.Errorf("agent.row_limit must be at least 1, got %d", c.Agent.RowLimit)
	}
	if c.Agent.StatementTimeout < 0 {
		return fmt.Errorf("agent.statement_timeout must not be negative")
	}
	switch c.Output {
	case "table", "json", "csv", "md":
	default:
		return fmt.Errorf("unknown output format %q (want table, json, csv, or md)", c.Output)
	}
	return nil
}
