package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rosterdq/internal/cli/config"
	"github.com/leapstack-labs/rosterdq/internal/cli/output"
	"github.com/leapstack-labs/rosterdq/internal/engine"
	"github.com/leapstack-labs/rosterdq/internal/standardize"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Session  *engine.Session
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a fresh session and renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Session:  engine.NewSession(cfg.EngineConfig(logger)),
		Renderer: r,
	}
}

// NewCommandContextWithoutSession creates a CommandContext without a session.
// Useful for commands that never touch roster data.
func NewCommandContextWithoutSession(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// LoadRoster validates the configured sources and runs the pipeline over
// them, returning the resulting generation.
func (c *CommandContext) LoadRoster() (*engine.Snapshot, error) {
	if err := c.Cfg.Validate(); err != nil {
		return nil, err
	}
	if err := c.Cfg.ValidateSources(); err != nil {
		return nil, err
	}
	if err := c.Session.Load(c.Cfg.LoadSpec()); err != nil {
		return nil, err
	}
	snap, _ := c.Session.Snapshot()
	return snap, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	roster := os.Getenv("ROSTERDQ_ROSTER")
	npi := os.Getenv("ROSTERDQ_NPI")
	phoneRegion := getEnvOrDefault("ROSTERDQ_PHONE_REGION", standardize.DefaultRegion)
	verbose := os.Getenv("ROSTERDQ_VERBOSE") == "true"
	outputFormat := getEnvOrDefault("ROSTERDQ_OUTPUT", config.DefaultOutput)

	return &config.Config{
		RosterPath:   roster,
		NPIPath:      npi,
		PhoneRegion:  phoneRegion,
		Verbose:      verbose,
		OutputFormat: outputFormat,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
