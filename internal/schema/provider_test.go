package schema

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/askdb-labs/askdb/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIntrospector struct {
	tables     []string
	meta       map[string]*adapter.TableMetadata
	fks        map[string][]adapter.ForeignKey
	samples    map[string]*adapter.Result
	sampleErr  error
	tableCalls atomic.Int64
}

func (f *fakeIntrospector) Tables(context.Context) ([]string, error) {
	f.tableCalls.Add(1)
	return f.tables, nil
}

func (f *fakeIntrospector) TableMetadata(_ context.Context, table string) (*adapter.TableMetadata, error) {
	return f.meta[table], nil
}

func (f *fakeIntrospector) ForeignKeys(_ context.Context, table string) ([]adapter.ForeignKey, error) {
	return f.fks[table], nil
}

func (f *fakeIntrospector) SampleRows(_ context.Context, table string, _ int) (*adapter.Result, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	return f.samples[table], nil
}

func newFake() *fakeIntrospector {
	return &fakeIntrospector{
		tables: []string{"customers", "orders"},
		meta: map[string]*adapter.TableMetadata{
			"customers": {
				Schema: "public",
				Name:   "customers",
				Columns: []adapter.Column{
					{Name: "customer_id", Type: "integer", Position: 1},
					{Name: "email", Type: "text", Nullable: true, Position: 2},
				},
			},
			"orders": {
				Schema: "public",
				Name:   "orders",
				Columns: []adapter.Column{
					{Name: "order_id", Type: "integer", Position: 1},
					{Name: "customer_id", Type: "integer", Position: 2},
					{Name: "order_status", Type: "varchar", Position: 3},
				},
			},
		},
		fks: map[string][]adapter.ForeignKey{
			"orders": {{Column: "customer_id", RefTable: "customers", RefColumn: "customer_id"}},
		},
		samples: map[string]*adapter.Result{
			"customers": {
				Columns: []string{"customer_id", "email"},
				Rows:    [][]any{{1, "alice@example.com"}},
			},
		},
	}
}

func TestProvider_Context(t *testing.T) {
	p := NewProvider(newFake(), Options{SampleRows: 1})

	got, err := p.Context(context.Background())
	require.NoError(t, err)

	assert.Contains(t, got, "DATABASE SCHEMA INFORMATION")
	assert.Contains(t, got, "TABLE: customers")
	assert.Contains(t, got, "TABLE: orders")
	assert.Contains(t, got, "- customer_id (integer, NOT NULL)")
	assert.Contains(t, got, "- email (text, NULL)")
	assert.Contains(t, got, "customer_id -> customers.customer_id")
	assert.Contains(t, got, "Sample: (1, alice@example.com)")

	// Tables are rendered in introspection order.
	assert.Less(t, indexOf(got, "TABLE: customers"), indexOf(got, "TABLE: orders"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestProvider_ContextCachedOnce(t *testing.T) {
	fake := newFake()
	p := NewProvider(fake, Options{})

	first, err := p.Context(context.Background())
	require.NoError(t, err)
	second, err := p.Context(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fake.tableCalls.Load(), "introspection must run once")
}

func TestProvider_EnumHints(t *testing.T) {
	hints := &Hints{
		Enums: map[string]map[string][]string{
			"orders": {"order_status": {"pending", "shipped", "delivered"}},
		},
	}
	p := NewProvider(newFake(), Options{Hints: hints})

	got, err := p.Context(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "order_status (varchar, NOT NULL, Enum: [pending, shipped, delivered])")
}

func TestProvider_RelationshipHintsWinOverForeignKeys(t *testing.T) {
	hints := &Hints{
		Relationships: []Relationship{
			{Source: "customers", Target: "orders", Description: "one customer has many orders"},
		},
	}
	p := NewProvider(newFake(), Options{Hints: hints})

	got, err := p.Context(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "- customers -> orders (one customer has many orders)")
	assert.NotContains(t, got, "(via customer_id)")
}

func TestProvider_RelationshipFallbackToForeignKeys(t *testing.T) {
	p := NewProvider(newFake(), Options{})

	got, err := p.Context(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "- orders -> customers (via customer_id)")
}

func TestProvider_SampleErrorIsNotFatal(t *testing.T) {
	fake := newFake()
	fake.sampleErr = assert.AnError
	p := NewProvider(fake, Options{SampleRows: 2})

	got, err := p.Context(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "Sample Data: unable to fetch")
}

func TestProvider_NoTables(t *testing.T) {
	p := NewProvider(&fakeIntrospector{}, Options{})

	_, err := p.Context(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tables found")
}
