package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rosterdq/internal/cli/output"
	"github.com/leapstack-labs/rosterdq/internal/dedupe"
	"github.com/leapstack-labs/rosterdq/internal/rules"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	FailUnder float64
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the roster and summarize quality flags",
		Long: `Run the full pipeline over the configured sources and print a short
summary: rows loaded, flag totals, duplicate suspects, and the overall
data quality score.

With --fail-under the command exits non-zero when the overall score
falls below the threshold, so it can gate a CI pipeline or a scheduled
roster import.`,
		Example: `  # Load and summarize the configured roster
  rosterdq check

  # Gate an import on quality
  rosterdq check --fail-under 80

  # Machine-readable totals
  rosterdq check -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.FailUnder, "fail-under", 0, "Fail when the overall score is below this value")

	return cmd
}

// CheckOutput is the payload for the check command.
type CheckOutput struct {
	Rows              int            `json:"rows"`
	OverallScore      float64        `json:"overall_score"`
	DuplicatePairs    int            `json:"duplicate_pairs"`
	DuplicateClusters int            `json:"duplicate_clusters"`
	Flags             map[string]int `json:"flags"`
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner("Loading roster...")
		spinner.Start()
	}

	snap, err := cmdCtx.LoadRoster()
	if err != nil {
		if spinner != nil {
			spinner.Fail("Failed to load roster")
		}
		return err
	}
	if spinner != nil {
		spinner.Success(fmt.Sprintf("Loaded %d providers", len(snap.Providers)))
	}

	flagCols := rules.StandardFlags()
	flagCounts := make(map[string]int, len(flagCols))
	for _, col := range flagCols {
		n := 0
		for _, p := range snap.Providers {
			if col.Get(p) {
				n++
			}
		}
		flagCounts[col.Name] = n
	}

	out := &CheckOutput{
		Rows:              len(snap.Providers),
		OverallScore:      snap.Overall,
		DuplicatePairs:    len(snap.Pairs),
		DuplicateClusters: dedupe.ClusterCount(snap.Pairs),
		Flags:             flagCounts,
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderCheck(r, cmdCtx, out, flagCols)
	}

	if opts.FailUnder > 0 && snap.Overall < opts.FailUnder {
		return fmt.Errorf("overall score %.1f is below threshold %.1f", snap.Overall, opts.FailUnder)
	}

	return nil
}

func renderCheck(r *output.Renderer, cmdCtx *CommandContext, out *CheckOutput, flagCols []rules.FlagColumn) {
	markdown := r.EffectiveMode() == output.ModeMarkdown

	r.Header(1, "Roster Check")
	if markdown {
		r.Println("")
	}

	r.StatusLine(cmdCtx.Cfg.RosterPath, "success", fmt.Sprintf("%d rows", out.Rows))
	for _, src := range cmdCtx.Cfg.Licenses {
		r.StatusLine(src.Path, "success", "license registry "+src.Jurisdiction)
	}
	if cmdCtx.Cfg.NPIPath != "" {
		r.StatusLine(cmdCtx.Cfg.NPIPath, "success", "NPI registry")
	}

	r.Println("")
	r.Header(2, "Flags")
	if markdown {
		r.Println("")
		for _, col := range flagCols {
			r.Println(output.FormatKeyValue(col.Name, fmt.Sprintf("%d", out.Flags[col.Name])))
		}
		r.Println("")
		r.Println(output.FormatKeyValue("duplicate_pairs", fmt.Sprintf("%d", out.DuplicatePairs)))
		r.Println(output.FormatKeyValue("duplicate_clusters", fmt.Sprintf("%d", out.DuplicateClusters)))
		r.Println(output.FormatKeyValue("overall_score", fmt.Sprintf("%.1f", out.OverallScore)))
		return
	}

	styles := r.Styles()
	for _, col := range flagCols {
		label := col.Name
		count := out.Flags[col.Name]
		line := fmt.Sprintf("  %-28s %d", label, count)
		if count > 0 {
			r.Println(line)
		} else {
			r.Println(styles.Muted.Render(line))
		}
	}

	r.Println("")
	r.Printf("  %-28s %d\n", "duplicate pairs", out.DuplicatePairs)
	r.Printf("  %-28s %d\n", "duplicate clusters", out.DuplicateClusters)

	scoreStyle := styles.Success
	if out.OverallScore < 50 {
		scoreStyle = styles.Error
	} else if out.OverallScore < 70 {
		scoreStyle = styles.Warning
	}
	r.Printf("  %-28s %s\n", "overall score", scoreStyle.Render(fmt.Sprintf("%.1f", out.OverallScore)))
}
