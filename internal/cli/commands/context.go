package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/askdb-labs/askdb/internal/agent"
	"github.com/askdb-labs/askdb/internal/config"
	"github.com/askdb-labs/askdb/internal/llm"
	"github.com/askdb-labs/askdb/internal/schema"
	"github.com/askdb-labs/askdb/pkg/adapter"
	"github.com/spf13/cobra"

	// Register database adapters.
	_ "github.com/askdb-labs/askdb/pkg/adapters/duckdb"
	_ "github.com/askdb-labs/askdb/pkg/adapters/postgres"
)

// CommandContext bundles the wired dependencies a command needs.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	DB     adapter.Adapter
	Schema *schema.Provider
}

// NewCommandContext loads config from the command context and connects
// to the configured database. The returned cleanup closes the connection.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	logger := config.GetLogger(cmd.Context())

	db, err := adapter.NewAdapter(cfg.Database.AdapterConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Connect(cmd.Context(), cfg.Database.AdapterConfig()); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup := func() { _ = db.Close() }

	hints, err := schema.LoadHints(cfg.HintsFile)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	provider := schema.NewProvider(db, schema.Options{
		Hints:      hints,
		SampleRows: cfg.Agent.SampleRows,
		Logger:     logger,
	})

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		DB:     db,
		Schema: provider,
	}, cleanup, nil
}

// NewAgent wires a question-answering agent over the command context.
func (c *CommandContext) NewAgent(_ context.Context) (*agent.Agent, error) {
	generator, err := llm.New(llm.Config{
		Provider:  c.Cfg.LLM.Provider,
		Model:     c.Cfg.LLM.Model,
		Endpoint:  c.Cfg.LLM.Endpoint,
		APIKeyEnv: c.Cfg.LLM.APIKeyEnv,
		MaxTokens: c.Cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return agent.New(generator, c.DB, c.Schema, agent.Options{
		MaxAttempts:      c.Cfg.Agent.MaxAttempts,
		StatementTimeout: c.Cfg.Agent.StatementTimeout,
		DefaultRowLimit:  c.Cfg.Agent.RowLimit,
		Dialect:          c.DB.DialectName(),
		Logger:           c.Logger,
	}), nil
}
