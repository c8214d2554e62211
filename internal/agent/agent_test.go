package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/askdb-labs/askdb/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	responses []string
	errs      []error
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, promptText string) (string, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, promptText)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i >= len(g.responses) {
		return "", fmt.Errorf("unexpected generate call %d", i+1)
	}
	return g.responses[i], nil
}

type scriptedQuerier struct {
	results  []*adapter.Result
	errs     []error
	executed []string
}

func (q *scriptedQuerier) Query(_ context.Context, sqlText string, _ time.Duration) (*adapter.Result, error) {
	i := len(q.executed)
	q.executed = append(q.executed, sqlText)
	if i < len(q.errs) && q.errs[i] != nil {
		return nil, q.errs[i]
	}
	if i >= len(q.results) {
		return nil, fmt.Errorf("unexpected query call %d", i+1)
	}
	return q.results[i], nil
}

type staticSchema struct {
	context string
	err     error
}

func (s *staticSchema) Context(context.Context) (string, error) {
	return s.context, s.err
}

func TestAnswerFirstTrySuccess(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"```sql\nSELECT COUNT(*) FROM orders\n```"}}
	db := &scriptedQuerier{results: []*adapter.Result{{
		Columns: []string{"count"},
		Rows:    [][]any{{42}},
	}}}
	a := New(gen, db, &staticSchema{context: "TABLE: orders"}, Options{Dialect: "postgres"})

	result, err := a.Answer(context.Background(), "how many orders are there?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM orders LIMIT 100;", result.SQL)
	assert.Equal(t, []string{"count"}, result.Columns)
	assert.Equal(t, [][]any{{42}}, result.Rows)
	assert.Equal(t, 1, result.Attempt)
	assert.Equal(t, 1, result.RowCount())

	require.Len(t, db.executed, 1)
	assert.Equal(t, result.SQL, db.executed[0])

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "TABLE: orders")
	assert.Contains(t, gen.prompts[0], "how many orders are there?")
}

func TestAnswerUnsafeStatementFailsImmediately(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"DROP TABLE customers"}}
	db := &scriptedQuerier{}
	a := New(gen, db, &staticSchema{context: "TABLE: customers"}, Options{})

	_, err := a.Answer(context.Background(), "delete everything")
	require.Error(t, err)

	var unsafeErr *UnsafeError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Contains(t, unsafeErr.Error(), "dangerous keyword: DROP")
	assert.Equal(t, "DROP TABLE customers;", unsafeErr.SQL)
	assert.Empty(t, db.executed, "unsafe SQL must never reach the database")
	assert.Len(t, gen.prompts, 1, "unsafe SQL must not trigger a retry")
}

func TestAnswerMultipleStatementsRejected(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SELECT 1; SELECT 2"}}
	db := &scriptedQuerier{}
	a := New(gen, db, &staticSchema{context: "x"}, Options{})

	_, err := a.Answer(context.Background(), "two things at once")
	var unsafeErr *UnsafeError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Contains(t, err.Error(), "multiple statements")
	assert.Empty(t, db.executed)
}

func TestAnswerRetriesOnExecutionError(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"SELECT nme FROM customers",
		"SELECT name FROM customers",
	}}
	db := &scriptedQuerier{
		errs: []error{errors.New(`column "nme" does not exist`)},
		results: []*adapter.Result{nil, {
			Columns: []string{"name"},
			Rows:    [][]any{{"alice"}},
		}},
	}
	a := New(gen, db, &staticSchema{context: "TABLE: customers"}, Options{})

	result, err := a.Answer(context.Background(), "list customer names")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempt)
	assert.Equal(t, "SELECT name FROM customers LIMIT 100;", result.SQL)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "SELECT nme FROM customers LIMIT 100;")
	assert.Contains(t, gen.prompts[1], `column "nme" does not exist`)
}

func TestAnswerExhaustsBudget(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"SELECT a FROM t",
		"SELECT b FROM t",
		"SELECT c FROM t",
	}}
	db := &scriptedQuerier{errs: []error{
		errors.New("error one"),
		errors.New("error two"),
		errors.New("error three"),
	}}
	a := New(gen, db, &staticSchema{context: "x"}, Options{MaxAttempts: 3})

	_, err := a.Answer(context.Background(), "hard question")
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "SELECT c FROM t LIMIT 100;", exhausted.LastSQL)
	assert.EqualError(t, exhausted.LastErr, "error three")
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Len(t, db.executed, 3)
}

func TestAnswerGenerationErrorConsumesBudget(t *testing.T) {
	gen := &scriptedGenerator{
		errs:      []error{errors.New("model overloaded"), nil},
		responses: []string{"", "SELECT 1"},
	}
	db := &scriptedQuerier{results: []*adapter.Result{{Columns: []string{"?column?"}, Rows: [][]any{{1}}}}}
	a := New(gen, db, &staticSchema{context: "x"}, Options{MaxAttempts: 2})

	result, err := a.Answer(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempt)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "model overloaded")
}

func TestAnswerGenerationErrorsExhaustBudget(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		errors.New("boom"),
		errors.New("boom"),
	}}
	db := &scriptedQuerier{}
	a := New(gen, db, &staticSchema{context: "x"}, Options{MaxAttempts: 2})

	_, err := a.Answer(context.Background(), "anything")
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Empty(t, db.executed)
}

func TestAnswerSchemaErrorConsumesBudget(t *testing.T) {
	gen := &scriptedGenerator{}
	db := &scriptedQuerier{}
	a := New(gen, db, &staticSchema{err: errors.New("connection refused")}, Options{MaxAttempts: 2})

	_, err := a.Answer(context.Background(), "anything")
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Contains(t, exhausted.LastErr.Error(), "connection refused")
	assert.Empty(t, gen.prompts)
}

func TestAnswerPreservesExistingLimit(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SELECT id FROM t LIMIT 5"}}
	db := &scriptedQuerier{results: []*adapter.Result{{Columns: []string{"id"}}}}
	a := New(gen, db, &staticSchema{context: "x"}, Options{DefaultRowLimit: 10})

	result, err := a.Answer(context.Background(), "five rows")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t LIMIT 5;", result.SQL)
	assert.Equal(t, 0, result.RowCount())
}

func TestAnswerCustomRowLimit(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SELECT id FROM t"}}
	db := &scriptedQuerier{results: []*adapter.Result{{Columns: []string{"id"}}}}
	a := New(gen, db, &staticSchema{context: "x"}, Options{DefaultRowLimit: 25})

	result, err := a.Answer(context.Background(), "ids")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t LIMIT 25;", result.SQL)
}
