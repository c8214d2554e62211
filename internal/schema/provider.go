// Package schema builds the textual schema context included in every
// generation prompt: tables, columns, foreign keys, sample rows, and
// operator-supplied hints.
package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/askdb-labs/askdb/pkg/adapter"
	"golang.org/x/sync/errgroup"
)

// Introspector is the slice of the adapter contract the provider needs.
type Introspector interface {
	Tables(ctx context.Context) ([]string, error)
	TableMetadata(ctx context.Context, table string) (*adapter.TableMetadata, error)
	ForeignKeys(ctx context.Context, table string) ([]adapter.ForeignKey, error)
	SampleRows(ctx context.Context, table string, limit int) (*adapter.Result, error)
}

// introspectConcurrency bounds parallel metadata queries so a wide
// schema does not exhaust the connection pool.
const introspectConcurrency = 4

// Options configures a Provider.
type Options struct {
	// Hints supplies relationship and enum knowledge. May be nil.
	Hints *Hints

	// SampleRows is the number of example rows included per table.
	// Zero disables sampling.
	SampleRows int

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Provider renders and caches the schema context. Introspection runs
// once on first use; later calls return the cached string.
type Provider struct {
	db   Introspector
	opts Options

	once   sync.Once
	cached string
	err    error
}

// NewProvider creates a schema context provider over an introspector.
func NewProvider(db Introspector, opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Hints == nil {
		opts.Hints = &Hints{}
	}
	return &Provider{db: db, opts: opts}
}

// Context returns the schema context, introspecting the database on the
// first call. The first caller's ctx bounds the introspection queries.
func (p *Provider) Context(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.opts.Logger.Debug("loading database schema")
		p.cached, p.err = p.build(ctx)
	})
	return p.cached, p.err
}

// tableSection is the rendered context block for one table plus the
// foreign keys used for relationship discovery.
type tableSection struct {
	text string
	fks  []adapter.ForeignKey
	name string
}

func (p *Provider) build(ctx context.Context) (string, error) {
	tables, err := p.db.Tables(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list tables: %w", err)
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables found in schema")
	}

	sections := make([]tableSection, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(introspectConcurrency)
	for i, table := range tables {
		i, table := i, table
		g.Go(func() error {
			section, err := p.buildTableSection(gctx, table)
			if err != nil {
				return err
			}
			sections[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("DATABASE SCHEMA INFORMATION\n")
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n")

	for _, section := range sections {
		b.WriteString(section.text)
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\nRELATIONSHIP SUMMARY\n")
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n")
	b.WriteString(p.relationshipSummary(sections))

	return b.String(), nil
}

func (p *Provider) buildTableSection(ctx context.Context, table string) (tableSection, error) {
	meta, err := p.db.TableMetadata(ctx, table)
	if err != nil {
		return tableSection{}, fmt.Errorf("failed to introspect %s: %w", table, err)
	}

	fks, err := p.db.ForeignKeys(ctx, table)
	if err != nil {
		return tableSection{}, fmt.Errorf("failed to introspect foreign keys of %s: %w", table, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nTABLE: %s\n", table)
	b.WriteString(strings.Repeat("-", 80))
	b.WriteString("\nColumns:\n")

	for _, col := range meta.Columns {
		nullable := "NOT NULL"
		if col.Nullable {
			nullable = "NULL"
		}
		var extras strings.Builder
		if col.Default != "" {
			fmt.Fprintf(&extras, ", DEFAULT: %s", col.Default)
		}
		if values := p.opts.Hints.EnumValues(table, col.Name); len(values) > 0 {
			fmt.Fprintf(&extras, ", Enum: [%s]", strings.Join(values, ", "))
		}
		fmt.Fprintf(&b, "  - %s (%s, %s%s)\n", col.Name, col.Type, nullable, extras.String())
	}

	if len(fks) > 0 {
		b.WriteString("\nForeign Keys:\n")
		for _, fk := range fks {
			fmt.Fprintf(&b, "  - %s -> %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}

	if p.opts.SampleRows > 0 {
		p.writeSampleData(ctx, &b, table)
	}

	return tableSection{text: b.String(), fks: fks, name: table}, nil
}

// writeSampleData appends example rows to a table section. Sampling
// failures are reported inline, never fatal: a table that cannot be read
// still has useful column metadata.
func (p *Provider) writeSampleData(ctx context.Context, b *strings.Builder, table string) {
	sample, err := p.db.SampleRows(ctx, table, p.opts.SampleRows)
	if err != nil {
		fmt.Fprintf(b, "\nSample Data: unable to fetch (%v)\n", err)
		return
	}
	if sample.RowCount() == 0 {
		return
	}

	fmt.Fprintf(b, "\nSample Data (%d rows):\n", sample.RowCount())
	fmt.Fprintf(b, "  Columns: %s\n", strings.Join(sample.Columns, ", "))
	for _, row := range sample.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintf(b, "  Sample: (%s)\n", strings.Join(values, ", "))
	}
}

// relationshipSummary prefers configured hints and falls back to
// foreign-key discovery.
func (p *Provider) relationshipSummary(sections []tableSection) string {
	seen := make(map[string]struct{})
	var lines []string
	add := func(line string) {
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
	}

	for _, rel := range p.opts.Hints.Relationships {
		if rel.Source == "" || rel.Target == "" {
			continue
		}
		add(fmt.Sprintf("- %s -> %s (%s)", rel.Source, rel.Target, rel.Description))
	}

	if len(lines) == 0 {
		for _, section := range sections {
			for _, fk := range section.fks {
				add(fmt.Sprintf("- %s -> %s (via %s)", section.name, fk.RefTable, fk.Column))
			}
		}
	}

	if len(lines) == 0 {
		return "No specific table relationships defined.\n"
	}

	sort.Strings(lines)
	return "Key Relationships:\n" + strings.Join(lines, "\n") + "\n"
}
