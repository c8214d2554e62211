// Package agent runs the natural-language-to-SQL loop: generate a
// statement, gate it for safety, normalize it, execute it, and on
// execution failure feed the error back into a recovery prompt until
// the attempt budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/askdb-labs/askdb/internal/prompt"
	"github.com/askdb-labs/askdb/internal/sqlguard"
	"github.com/askdb-labs/askdb/pkg/adapter"
)

// Generator produces a SQL candidate from a prompt.
type Generator interface {
	Generate(ctx context.Context, promptText string) (string, error)
}

// Querier executes a read-only statement against the database.
type Querier interface {
	Query(ctx context.Context, sqlText string, timeout time.Duration) (*adapter.Result, error)
}

// SchemaSource renders the schema context injected into prompts.
type SchemaSource interface {
	Context(ctx context.Context) (string, error)
}

const (
	DefaultMaxAttempts = 3
	DefaultRowLimit    = 100
)

// Options tunes a single agent. Zero values pick the defaults.
type Options struct {
	MaxAttempts      int
	StatementTimeout time.Duration
	DefaultRowLimit  int
	Dialect          string
	Logger           *slog.Logger
}

// Agent orchestrates one question at a time. It is not safe for
// concurrent use; create one per question or serialize callers.
type Agent struct {
	llm    Generator
	db     Querier
	schema SchemaSource
	opts   Options
	logger *slog.Logger
}

// Result is a successfully executed answer.
type Result struct {
	SQL     string
	Columns []string
	Rows    [][]any
	Attempt int
}

func (r *Result) RowCount() int {
	return len(r.Rows)
}

// New creates an agent over a generator, an executor and a schema source.
func New(llm Generator, db Querier, schema SchemaSource, opts Options) *Agent {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.DefaultRowLimit <= 0 {
		opts.DefaultRowLimit = DefaultRowLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{llm: llm, db: db, schema: schema, opts: opts, logger: logger}
}

type state int

const (
	stateGenerating state = iota
	stateGating
	stateNormalizing
	stateExecuting
	stateSucceeded
	stateExhausted
)

// Answer runs the full loop for one question. It returns the executed
// result, an *UnsafeError when generation produced a statement the gate
// rejects, or an *ExhaustedError when the attempt budget runs out.
func (a *Agent) Answer(ctx context.Context, question string) (*Result, error) {
	session := newSession(question)
	a.logger.Info("starting session", "session_id", session.ID, "question", question)

	var (
		candidate string
		lastErr   error
		result    *adapter.Result
	)

	st := stateGenerating
	for {
		switch st {
		case stateGenerating:
			if len(session.Attempts) >= a.opts.MaxAttempts {
				st = stateExhausted
				continue
			}
			sqlText, err := a.generate(ctx, session)
			if err != nil {
				a.logger.Warn("generation failed",
					"session_id", session.ID,
					"attempt", len(session.Attempts)+1,
					"error", err)
				session.record(candidate, err)
				lastErr = err
				continue
			}
			candidate = sqlText
			st = stateGating
		case stateGating:
			if err := sqlguard.Check(candidate); err != nil {
				var gateErr *sqlguard.UnsafeError
				if errors.As(err, &gateErr) {
					a.logger.Error("unsafe statement rejected",
						"session_id", session.ID,
						"reason", gateErr.Reason)
					return nil, &UnsafeError{SQL: candidate, Gate: gateErr}
				}
				return nil, err
			}
			st = stateNormalizing
		case stateNormalizing:
			candidate = sqlguard.EnforceLimit(candidate, a.opts.DefaultRowLimit)
			st = stateExecuting
		case stateExecuting:
			res, err := a.db.Query(ctx, candidate, a.opts.StatementTimeout)
			if err != nil {
				a.logger.Warn("execution failed",
					"session_id", session.ID,
					"attempt", len(session.Attempts)+1,
					"error", err)
				session.record(candidate, err)
				lastErr = err
				st = stateGenerating
				continue
			}
			session.record(candidate, nil)
			result = res
			st = stateSucceeded
		case stateSucceeded:
			a.logger.Info("session succeeded",
				"session_id", session.ID,
				"attempts", len(session.Attempts),
				"rows", result.RowCount())
			return &Result{
				SQL:     candidate,
				Columns: result.Columns,
				Rows:    result.Rows,
				Attempt: len(session.Attempts),
			}, nil
		case stateExhausted:
			a.logger.Error("session exhausted",
				"session_id", session.ID,
				"attempts", len(session.Attempts))
			return nil, &ExhaustedError{
				Attempts: len(session.Attempts),
				LastSQL:  candidate,
				LastErr:  lastErr,
			}
		}
	}
}

// generate builds the prompt for the current attempt and asks the model
// for a statement. The first attempt uses the base prompt; later ones
// replay the failed statement and its error so the model can repair it.
func (a *Agent) generate(ctx context.Context, session *Session) (string, error) {
	schemaContext, err := a.schema.Context(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching schema context: %w", err)
	}

	var promptText string
	if last := session.LastAttempt(); last == nil {
		promptText = prompt.Base(a.opts.Dialect, schemaContext, session.Question)
	} else {
		promptText = prompt.Recovery(a.opts.Dialect, schemaContext, session.Question, last.SQL, last.Err.Error())
	}

	raw, err := a.llm.Generate(ctx, promptText)
	if err != nil {
		return "", fmt.Errorf("generating SQL: %w", err)
	}

	sqlText := sqlguard.Clean(raw)
	a.logger.Debug("generated candidate",
		"session_id", session.ID,
		"attempt", len(session.Attempts)+1,
		"sql", sqlText)
	return sqlText, nil
}
