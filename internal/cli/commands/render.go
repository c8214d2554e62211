package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/askdb-labs/askdb/internal/agent"
	"github.com/askdb-labs/askdb/pkg/adapter"
	"github.com/jedib0t/go-pretty/v6/table"
)

// resultData adapts an agent result for rendering.
func resultData(r *agent.Result) *adapter.Result {
	return &adapter.Result{Columns: r.Columns, Rows: r.Rows}
}

func renderResult(w io.Writer, result *adapter.Result, format string) error {
	switch format {
	case "json":
		return renderJSON(w, result)
	case "csv":
		return renderCSV(w, result)
	case "md", "markdown":
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

func renderTable(w io.Writer, result *adapter.Result) error {
	if result.RowCount() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range result.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", result.RowCount())
	return nil
}

func renderJSON(w io.Writer, result *adapter.Result) error {
	rows := make([]map[string]any, 0, result.RowCount())
	for _, values := range result.Rows {
		row := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		rows = append(rows, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, result *adapter.Result) error {
	_, _ = fmt.Fprintln(w, strings.Join(result.Columns, ","))

	for _, values := range result.Rows {
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(fields, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, result *adapter.Result) error {
	if result.RowCount() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(result.Columns, " | "))
	seps := make([]string, len(result.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range result.Rows {
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(fields, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
