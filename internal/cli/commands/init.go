package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rosterdq/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new RosterDQ project",
		Long: `Initialize a new RosterDQ project with default configuration.

This creates:
  - rosterdq.yaml configuration file
  - data/ directory for roster and registry files
  - .gitignore

Use --example to create a working demo project with a sample roster,
state license registries, and an NPI registry exercising every check.`,
		Example: `  # Initialize in current directory
  rosterdq init

  # Initialize with a full working example
  rosterdq init --example

  # Initialize in a new directory
  rosterdq init my-roster --example

  # Force overwrite existing config
  rosterdq init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// Create renderer
			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			if example {
				return runInitExample(r, dir, force)
			}
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create a full example project with sample data")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := dir + "/rosterdq.yaml"
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("rosterdq.yaml already exists. Use --force to overwrite")
	}

	// Copy minimal template
	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	// List created files
	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("RosterDQ project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Replace data/roster.csv with your roster export")
	r.Println("  2. Point the licenses and npi entries at your registries")
	r.Println("  3. Run 'rosterdq check' to load and score the roster")
	r.Println("  4. Run 'rosterdq report' for the full health report")

	return nil
}

func runInitExample(r *output.Renderer, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := dir + "/rosterdq.yaml"
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("rosterdq.yaml already exists. Use --force to overwrite")
	}

	// Copy example template
	if err := copyTemplate("example", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	// List created files by category
	files, _ := listTemplateFiles("example")
	groups := groupTemplateFiles(files)

	// Display files by category
	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Header(2, "Data")
	for _, f := range groups["data"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("RosterDQ project initialized with example data!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  rosterdq check     Load the sample roster and print flag totals")
	r.Println("  rosterdq report    Run every check and print the health report")
	r.Println("  rosterdq query     Explore the roster interactively")
	r.Println("  rosterdq serve     Expose the roster over a local JSON API")

	return nil
}
