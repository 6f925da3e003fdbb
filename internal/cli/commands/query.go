package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rosterdq/internal/engine"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Params []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [INTENT [KEY=VALUE...]]",
		Short: "Query the loaded roster",
		Long: `Run a named query intent against the roster.

Intents are fixed, structured questions the engine answers from the
loaded snapshot: counts, issue tables, compliance exports. Supports
multiple output formats for scripting and integration.

When invoked without arguments on a terminal, enters interactive REPL
mode.`,
		Example: `  # Scalar intents
  rosterdq query expired_license_count
  rosterdq query overall_quality_score

  # Tabular intents
  rosterdq query missing_npi
  rosterdq query duplicate_records --format json

  # Parameterized intents
  rosterdq query filter_by_expiration_window days=30
  rosterdq query search_provider_by_name --param name=smith

  # List available intents
  rosterdq query intents

  # Interactive mode
  rosterdq query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Intent parameter as key=value (repeatable)")

	// Subcommands
	cmd.AddCommand(newQueryIntentsCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContext(cmd)

	if _, err := cmdCtx.LoadRoster(); err != nil {
		return err
	}

	switch {
	case len(args) > 0:
		fields := append(append([]string{}, args...), opts.Params...)
		intent, params, err := parseQueryLine(fields)
		if err != nil {
			return err
		}
		res, err := cmdCtx.Session.RunQuery(intent, params)
		if err != nil {
			return err
		}
		return renderResult(cmd.OutOrStdout(), res, opts.Format)
	case !isTerminal(os.Stdin):
		// Read intent invocations from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return runQueryScript(cmd, cmdCtx, string(content), opts.Format)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, opts)
	}
}

// runQueryScript executes one intent invocation per line. Blank lines
// and lines starting with # are skipped.
func runQueryScript(cmd *cobra.Command, cmdCtx *CommandContext, input, format string) error {
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		intent, params, err := parseQueryLine(strings.Fields(line))
		if err != nil {
			return err
		}
		res, err := cmdCtx.Session.RunQuery(intent, params)
		if err != nil {
			return err
		}
		if err := renderResult(cmd.OutOrStdout(), res, format); err != nil {
			return err
		}
	}
	return nil
}

// parseQueryLine splits "intent key=value key=value" into the intent
// name and its parameters.
func parseQueryLine(fields []string) (string, map[string]any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty query")
	}
	params, err := parseParams(fields[1:])
	if err != nil {
		return "", nil, err
	}
	return fields[0], params, nil
}

func parseParams(entries []string) (map[string]any, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", entry)
		}
		params[key] = value
	}
	return params, nil
}

// newQueryIntentsCommand creates the intents subcommand.
func newQueryIntentsCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "intents",
		Short: "List available query intents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderIntents(cmd.OutOrStdout(), opts.Format)
		},
	}
}

func renderIntents(w io.Writer, format string) error {
	tbl := &engine.Table{Columns: []string{"intent", "params", "description"}}
	for _, info := range engine.Intents() {
		tbl.Rows = append(tbl.Rows, []any{info.Name, info.Params, info.Description})
	}
	return renderTableResult(w, tbl, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
