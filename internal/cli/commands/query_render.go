package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/rosterdq/internal/engine"
)

func renderResult(w io.Writer, res *engine.Result, format string) error {
	if v, ok := res.Scalar(); ok {
		return renderScalar(w, res.Intent, v, format)
	}
	return renderTableResult(w, res.Table, format)
}

func renderScalar(w io.Writer, intent string, v any, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"intent": intent, "value": v})
	}
	_, err := fmt.Fprintln(w, formatValue(v))
	return err
}

func renderTableResult(w io.Writer, tbl *engine.Table, format string) error {
	switch format {
	case "json":
		return renderJSON(w, tbl.Records())
	case "csv":
		return renderCSV(w, tbl)
	case "md", "markdown":
		return renderMarkdown(w, tbl)
	default:
		return renderTable(w, tbl)
	}
}

func renderTable(w io.Writer, tbl *engine.Table) error {
	if len(tbl.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(tbl.Columns))
	for i, col := range tbl.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, cells := range tbl.Rows {
		row := make(table.Row, len(tbl.Columns))
		for i := range tbl.Columns {
			var v any
			if i < len(cells) {
				v = cells[i]
			}
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(tbl.Rows))
	return nil
}

func renderJSON(w io.Writer, records []map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderCSV(w io.Writer, tbl *engine.Table) error {
	// Header
	_, _ = fmt.Fprintln(w, strings.Join(tbl.Columns, ","))

	// Rows
	for _, cells := range tbl.Rows {
		values := make([]string, len(tbl.Columns))
		for i := range tbl.Columns {
			var v any
			if i < len(cells) {
				v = cells[i]
			}
			values[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, tbl *engine.Table) error {
	if len(tbl.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(tbl.Columns, " | "))
	// Separator
	seps := make([]string, len(tbl.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, cells := range tbl.Rows {
		values := make([]string, len(tbl.Columns))
		for i := range tbl.Columns {
			var v any
			if i < len(cells) {
				v = cells[i]
			}
			values[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
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
