package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/rosterdq/internal/cli/output"
	"github.com/leapstack-labs/rosterdq/internal/report"
)

// ReportOptions holds options for the report command.
type ReportOptions struct {
	Format string
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a comprehensive roster health report",
		Long: `Run every data quality check against the loaded roster and print a
health report: ingest coverage, registry verification, duplicate
suspects, contact format issues, license compliance, and an overall
health score with recommendations.`,
		Example: `  # Report on the configured roster
  rosterdq report

  # Machine-readable output for dashboards
  rosterdq report --format json

  # Markdown for tickets and wikis
  rosterdq report --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions) error {
	cmdCtx := NewCommandContext(cmd)

	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	snap, err := cmdCtx.LoadRoster()
	if err != nil {
		return err
	}

	rep := report.Build(snap, time.Now())

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rep)
	case output.ModeMarkdown:
		renderReportMarkdown(r, rep)
	default:
		renderReportText(r, rep)
	}

	return nil
}

func renderReportText(r *output.Renderer, rep *report.Report) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Roster Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))

	r.Println(styles.Header2.Render("Roster Summary"))
	r.Printf("   Rows:               %d\n", rep.Summary.Rows)
	r.Printf("   States:             %d\n", rep.Summary.States)
	r.Printf("   Specialties:        %d\n", rep.Summary.Specialties)
	r.Printf("   License registry:   %s\n", yesNo(rep.Summary.LicenseRegistry))
	r.Printf("   NPI registry:       %s\n", yesNo(rep.Summary.NPIRegistry))
	r.Printf("   Duplicate pairs:    %d\n", rep.Summary.DuplicatePairs)
	r.Printf("   Duplicate clusters: %d\n", rep.Summary.DuplicateClusters)
	r.Printf("   Overall DQ score:   %.1f\n", rep.Summary.OverallScore)
	r.Println("")

	r.Println(styles.Header2.Render("Checks"))
	titleCaser := cases.Title(language.English)
	currentSection := ""
	for _, check := range rep.Checks {
		if check.Section != currentSection {
			currentSection = check.Section
			r.Println("")
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentSection)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		var icon string
		switch check.Status {
		case report.StatusPass:
			icon = styles.StatusSuccess.String()
		case report.StatusWarn:
			icon = styles.Warning.Render("!")
		default:
			icon = styles.StatusFailed.String()
		}

		line := fmt.Sprintf("   %s %s: %s", icon, check.ID, check.Name)
		if check.Count > 0 {
			line += fmt.Sprintf(" (%d rows)", check.Count)
		}
		r.Println(line)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-i)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))

	scoreStyle := styles.Success
	if rep.Score < 50 {
		scoreStyle = styles.Error
	} else if rep.Score < 70 {
		scoreStyle = styles.Warning
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", rep.Score)))

	if len(rep.Recommendations) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range rep.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
	}
	r.Println("")
}

func renderReportMarkdown(r *output.Renderer, rep *report.Report) {
	r.Println("# Roster Health Report")
	r.Println("")
	r.Println("## Roster Summary")
	r.Println("")
	r.Printf("- **Rows**: %d\n", rep.Summary.Rows)
	r.Printf("- **States**: %d\n", rep.Summary.States)
	r.Printf("- **Specialties**: %d\n", rep.Summary.Specialties)
	r.Printf("- **License registry**: %s\n", yesNo(rep.Summary.LicenseRegistry))
	r.Printf("- **NPI registry**: %s\n", yesNo(rep.Summary.NPIRegistry))
	r.Printf("- **Duplicate pairs**: %d\n", rep.Summary.DuplicatePairs)
	r.Printf("- **Duplicate clusters**: %d\n", rep.Summary.DuplicateClusters)
	r.Printf("- **Overall DQ score**: %.1f\n", rep.Summary.OverallScore)
	r.Println("")

	r.Println("## Checks")
	titleCaser := cases.Title(language.English)
	currentSection := ""
	for _, check := range rep.Checks {
		if check.Section != currentSection {
			currentSection = check.Section
			r.Println("")
			r.Printf("### %s\n", titleCaser.String(currentSection))
			r.Println("")
		}

		var marker string
		switch check.Status {
		case report.StatusPass:
			marker = "[PASS]"
		case report.StatusWarn:
			marker = "[WARN]"
		default:
			marker = "[FAIL]"
		}

		line := fmt.Sprintf("- **%s** %s: %s", marker, check.ID, check.Name)
		if check.Count > 0 {
			line += fmt.Sprintf(" (%d rows)", check.Count)
		}
		r.Println(line)

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}

	r.Println("")
	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", rep.Score)

	if len(rep.Recommendations) > 0 {
		r.Println("")
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range rep.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
