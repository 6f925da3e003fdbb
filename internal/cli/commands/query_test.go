package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rosterdq/internal/engine"
)

// sampleTable builds a small tabular result for render tests.
func sampleTable() *engine.Table {
	return &engine.Table{
		Columns: []string{"full_name", "npi"},
		Rows: [][]any{
			{"Maria Garcia", "1234567890"},
			{"John Smith", nil},
		},
	}
}

func TestParseQueryLine(t *testing.T) {
	tests := []struct {
		name       string
		fields     []string
		wantIntent string
		wantParams map[string]any
		wantErr    string
	}{
		{
			name:       "intent only",
			fields:     []string{"expired_license_count"},
			wantIntent: "expired_license_count",
		},
		{
			name:       "intent with params",
			fields:     []string{"filter_by_expiration_window", "days=30"},
			wantIntent: "filter_by_expiration_window",
			wantParams: map[string]any{"days": "30"},
		},
		{
			name:       "value containing equals",
			fields:     []string{"search_provider_by_name", "name=a=b"},
			wantIntent: "search_provider_by_name",
			wantParams: map[string]any{"name": "a=b"},
		},
		{
			name:    "empty",
			fields:  nil,
			wantErr: "empty query",
		},
		{
			name:    "bare parameter",
			fields:  []string{"missing_npi", "days"},
			wantErr: "invalid parameter",
		},
		{
			name:    "parameter without key",
			fields:  []string{"missing_npi", "=30"},
			wantErr: "invalid parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, params, err := parseQueryLine(tt.fields)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, intent)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestRenderResult_ScalarText(t *testing.T) {
	res := &engine.Result{Intent: "expired_license_count", Kind: engine.KindInt, Int: 3}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "table")
	require.NoError(t, err)

	assert.Equal(t, "3\n", buf.String())
}

func TestRenderResult_ScalarFloat(t *testing.T) {
	res := &engine.Result{Intent: "overall_quality_score", Kind: engine.KindFloat, Float: 92.5}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "table")
	require.NoError(t, err)

	assert.Equal(t, "92.5\n", buf.String())
}

func TestRenderResult_ScalarJSON(t *testing.T) {
	res := &engine.Result{Intent: "expired_license_count", Kind: engine.KindInt, Int: 3}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "json")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"intent": "expired_license_count"`)
	assert.Contains(t, output, `"value": 3`)
}

func TestRenderResult_Table(t *testing.T) {
	res := &engine.Result{Intent: "missing_npi", Kind: engine.KindTable, Table: sampleTable()}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "table")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Maria Garcia")
	assert.Contains(t, output, "John Smith")
	assert.Contains(t, output, "(2 rows)")
}

func TestRenderResult_JSONFormat(t *testing.T) {
	res := &engine.Result{Intent: "missing_npi", Kind: engine.KindTable, Table: sampleTable()}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "json")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"full_name"`)
	assert.Contains(t, output, `"Maria Garcia"`)
	assert.Contains(t, output, `"npi": null`)
}

func TestRenderResult_CSVFormat(t *testing.T) {
	res := &engine.Result{Intent: "missing_npi", Kind: engine.KindTable, Table: sampleTable()}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header + 2 rows

	assert.Equal(t, "full_name,npi", lines[0])
	assert.Equal(t, "Maria Garcia,1234567890", lines[1])
	assert.Equal(t, "John Smith,NULL", lines[2])
}

func TestRenderResult_MarkdownFormat(t *testing.T) {
	res := &engine.Result{Intent: "missing_npi", Kind: engine.KindTable, Table: sampleTable()}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "md")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "| full_name | npi |")
	assert.Contains(t, output, "| --- | --- |")
	assert.Contains(t, output, "| Maria Garcia | 1234567890 |")
}

func TestRenderResult_EmptyResults(t *testing.T) {
	res := &engine.Result{
		Intent: "missing_npi",
		Kind:   engine.KindTable,
		Table:  &engine.Table{Columns: []string{"full_name", "npi"}},
	}

	buf := new(bytes.Buffer)
	err := renderResult(buf, res, "table")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "(0 rows)")
}

func TestRenderIntents(t *testing.T) {
	buf := new(bytes.Buffer)
	err := renderIntents(buf, "table")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "expired_license_count")
	assert.Contains(t, output, "duplicate_records")
	assert.Contains(t, output, "filter_by_expiration_window")
	assert.Contains(t, output, "days (int, default 90)")
}

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()
	assert.Equal(t, "query", cmd.Use[:5])
	assert.NotNil(t, cmd.RunE)

	assert.NotNil(t, cmd.Flags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("param"))

	// Check subcommands
	subCmds := cmd.Commands()
	var names []string
	for _, c := range subCmds {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "intents")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{nil, "NULL"},
		{"hello", "hello"},
		{42, "42"},
		{3.14, "3.14"},
		{true, "true"},
	}

	for _, tt := range tests {
		result := formatValue(tt.input)
		assert.Equal(t, tt.expected, result)
	}
}

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"with,comma", `"with,comma"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", `"with
newline"`},
		{`complex,"values"`, `"complex,""values"""`},
	}

	for _, tt := range tests {
		result := escapeCSV(tt.input)
		assert.Equal(t, tt.expected, result)
	}
}
