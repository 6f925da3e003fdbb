package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(isTTY bool, mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"explicit markdown on terminal", ModeMarkdown, true, ModeMarkdown},
		{"empty defaults to auto", Mode(""), false, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestHeaderMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeMarkdown)
	r.Header(1, "Roster Report")
	r.Header(2, "Checks")
	assert.Equal(t, "# Roster Report\n## Checks\n", out.String())
}

func TestHeaderTextWithoutTerminal(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeText)
	r.Header(1, "Roster Report")
	assert.Equal(t, "Roster Report\n", out.String())
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeText)
	r.StatusLine("roster.csv", "success", "120 rows")
	r.StatusLine("npi.csv", "failed", "")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  ✓ roster.csv (120 rows)", lines[0])
	assert.Equal(t, "  ✗ npi.csv", lines[1])
}

func TestStatusLineMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeMarkdown)
	r.StatusLine("roster.csv", "success", "")
	assert.Equal(t, "- ✓ roster.csv\n", out.String())
}

func TestSuccessWarningMuted(t *testing.T) {
	r, out, errOut := newTestRenderer(false, ModeText)
	r.Success("roster loaded")
	r.Warning("no NPI registry supplied")
	r.Muted("3 columns carried through unchanged")

	assert.Contains(t, out.String(), "✓ roster loaded")
	assert.Contains(t, out.String(), "3 columns carried through unchanged")
	assert.Contains(t, errOut.String(), "! no NPI registry supplied")
	assert.NotContains(t, out.String(), "no NPI registry supplied")
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeJSON)
	require.NoError(t, r.JSON(map[string]any{"intent": "missing_npi", "rows": 2}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "missing_npi", decoded["intent"])
	assert.Contains(t, out.String(), "\n  \"intent\"")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Checks", FormatHeader(2, "Checks"))
	assert.Equal(t, "# Checks", FormatHeader(0, "Checks"))
	assert.Equal(t, "###### Deep", FormatHeader(9, "Deep"))
	assert.Equal(t, "- **Rows:** 42", FormatKeyValue("Rows", "42"))

	block := FormatCodeBlock("csv", "a,b\n1,2\n")
	assert.Equal(t, "```csv\na,b\n1,2\n```", block)
	assert.Equal(t, 2, strings.Count(block, "```"))
}

func TestSpinnerWithoutTerminal(t *testing.T) {
	r, out, errOut := newTestRenderer(false, ModeText)

	sp := r.NewSpinner("loading roster")
	sp.Start()
	sp.Success("roster loaded")

	assert.Contains(t, out.String(), "loading roster")
	assert.Contains(t, out.String(), "✓ roster loaded")
	assert.NotContains(t, out.String(), "\r")

	sp = r.NewSpinner("loading licenses")
	sp.Start()
	sp.Fail("licenses unreadable")
	assert.Contains(t, errOut.String(), "✗ licenses unreadable")
}

func TestWriterAndTTY(t *testing.T) {
	r, out, _ := newTestRenderer(true, ModeAuto)
	assert.True(t, r.IsTTY())
	_, err := r.Writer().Write([]byte("direct"))
	require.NoError(t, err)
	assert.Equal(t, "direct", out.String())
}
