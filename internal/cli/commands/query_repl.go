package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rosterdq/internal/engine"
)

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, opts *QueryOptions) error {
	// Setup history file (project-local)
	historyFile := filepath.Join(cmdCtx.Cfg.ProjectRoot, ".rosterdq_history")

	// Get intent names for completion
	completer := newIntentCompleter()

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rosterdq> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "RosterDQ Query REPL (roster: %s)\n", cmdCtx.Cfg.RosterPath)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(cmd, cmdCtx, line, opts.Format); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Execute the intent
		intent, params, err := parseQueryLine(strings.Fields(line))
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		res, err := cmdCtx.Session.RunQuery(intent, params)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		if err := renderResult(cmd.OutOrStdout(), res, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, line, format string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".intents":
		if err := renderIntents(cmd.OutOrStdout(), format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".reload":
		snap, err := cmdCtx.LoadRoster()
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %d rows (overall score %.1f)\n", len(snap.Providers), snap.Overall)
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .intents        List available query intents
  .reload         Reload the roster from the configured sources
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Run an intent by name, with key=value parameters after it
  - Example: filter_by_expiration_window days=30
  - Use arrow keys to navigate history
  - Tab completion works for intent names
`
	_, _ = fmt.Fprintln(w, help)
}

// newIntentCompleter creates a readline completer for intent names.
func newIntentCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, info := range engine.Intents() {
		items = append(items, readline.PcItem(info.Name))
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".intents"),
		readline.PcItem(".reload"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
