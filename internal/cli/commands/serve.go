package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rosterdq/internal/cli/config"
	"github.com/leapstack-labs/rosterdq/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Host  string
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the roster over a local JSON API",
		Long: `Start a local HTTP server exposing the loaded roster.

The API provides:
- GET  /api/health   - server and snapshot status
- GET  /api/intents  - available query intents
- GET  /api/report   - full health report
- POST /api/load     - reload from the configured sources
- POST /api/query    - run a query intent`,
		Example: `  # Serve on the default port
  rosterdq serve

  # Custom port, reload when source files change
  rosterdq serve --port 9000 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind (default: 127.0.0.1)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8733)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload when source files change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	logger := config.GetLogger(cmd.Context())

	// Get server config with defaults
	srvCfg := cmdCtx.Cfg.GetServerConfig()

	// CLI flags override config file
	host := srvCfg.Host
	if opts.Host != "" {
		host = opts.Host
	}

	port := srvCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	watch := srvCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	// Load before binding so a bad source fails fast
	snap, err := cmdCtx.LoadRoster()
	if err != nil {
		return err
	}

	srv := server.NewServer(server.Config{
		Session: cmdCtx.Session,
		Spec:    cmdCtx.Cfg.LoadSpec(),
		Host:    host,
		Port:    port,
		Watch:   watch,
		Logger:  logger,
	})

	fmt.Printf("Loaded %d roster rows (overall score %.1f)\n", len(snap.Providers), snap.Overall)
	fmt.Printf("Starting API server on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
