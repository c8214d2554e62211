package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table]",
		Short: "Show the database schema",
		Long: `Show the schema context the model sees when generating SQL.

With a table name, shows that table's columns and foreign keys instead.`,
		Example: `  # Full schema context
  askdb schema

  # One table
  askdb schema orders`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) > 0 {
				return showTableSchema(cmd.Context(), cmd.OutOrStdout(), cmdCtx, args[0])
			}

			text, err := cmdCtx.Schema.Context(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List queryable tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tables, err := cmdCtx.DB.Tables(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func showTableSchema(ctx context.Context, w io.Writer, cmdCtx *CommandContext, tableName string) error {
	meta, err := cmdCtx.DB.TableMetadata(ctx, tableName)
	if err != nil {
		return err
	}
	if len(meta.Columns) == 0 {
		return fmt.Errorf("table %q not found", tableName)
	}

	_, _ = fmt.Fprintf(w, "Table: %s\n", tableName)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default"})

	for _, col := range meta.Columns {
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}
		t.AppendRow(table.Row{col.Name, col.Type, nullable, col.Default})
	}
	t.Render()

	fks, err := cmdCtx.DB.ForeignKeys(ctx, tableName)
	if err == nil && len(fks) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Foreign Keys:")
		for _, fk := range fks {
			_, _ = fmt.Fprintf(w, "  %s -> %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}

	return nil
}
