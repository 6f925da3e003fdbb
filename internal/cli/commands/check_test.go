package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/rosterdq/internal/cli/config"
	"github.com/leapstack-labs/rosterdq/internal/cli/testutil"
	"github.com/leapstack-labs/rosterdq/internal/rules"
)

func sampleCheckOutput() *CheckOutput {
	return &CheckOutput{
		Rows:              8,
		OverallScore:      74.5,
		DuplicatePairs:    2,
		DuplicateClusters: 1,
		Flags: map[string]int{
			"license_expired": 2,
			"npi_missing":     1,
			"phone_issue":     1,
		},
	}
}

func sampleCheckContext() *CommandContext {
	return &CommandContext{
		Cfg: &config.Config{
			RosterPath: "data/roster.csv",
			Licenses:   []config.LicenseSource{{Jurisdiction: "CA", Path: "data/ca_licenses.csv"}},
			NPIPath:    "data/npi_registry.csv",
		},
	}
}

func TestRenderCheckText(t *testing.T) {
	tr := testutil.NewTestRendererText()
	renderCheck(tr.Renderer, sampleCheckContext(), sampleCheckOutput(), rules.StandardFlags())

	out := tr.Output()
	assert.Contains(t, out, "Roster Check")
	assert.Contains(t, out, "data/roster.csv")
	assert.Contains(t, out, "8 rows")
	assert.Contains(t, out, "license registry CA")
	assert.Contains(t, out, "NPI registry")
	assert.Contains(t, out, "license_expired")
	assert.Contains(t, out, "duplicate pairs")
	assert.Contains(t, out, "duplicate clusters")
	assert.Contains(t, out, "overall score")
	assert.Contains(t, out, "74.5")
}

func TestRenderCheckTextListsEveryFlag(t *testing.T) {
	tr := testutil.NewTestRendererText()
	flagCols := rules.StandardFlags()
	renderCheck(tr.Renderer, sampleCheckContext(), sampleCheckOutput(), flagCols)

	out := tr.Output()
	for _, col := range flagCols {
		assert.Contains(t, out, col.Name, "flag %q should be listed even at zero", col.Name)
	}
}

func TestRenderCheckMarkdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	renderCheck(tr.Renderer, sampleCheckContext(), sampleCheckOutput(), rules.StandardFlags())

	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "# Roster Check")
	assert.Contains(t, out, "- ✓ data/roster.csv (8 rows)")
	assert.Contains(t, out, "## Flags")
	assert.Contains(t, out, "- **license_expired:** 2")
	assert.Contains(t, out, "- **duplicate_pairs:** 2")
	assert.Contains(t, out, "- **duplicate_clusters:** 1")
	assert.Contains(t, out, "- **overall_score:** 74.5")
}

func TestRenderCheckWithoutRegistries(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cmdCtx := &CommandContext{Cfg: &config.Config{RosterPath: "data/roster.csv"}}
	renderCheck(tr.Renderer, cmdCtx, sampleCheckOutput(), rules.StandardFlags())

	out := tr.Output()
	assert.Contains(t, out, "data/roster.csv")
	assert.NotContains(t, out, "license registry")
	assert.NotContains(t, out, "NPI registry")
}
