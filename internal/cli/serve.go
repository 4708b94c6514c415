package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/internal/config"
	"github.com/matzehuels/gridboard/internal/server"
)

// serveCommand creates the serve command for running the JSON API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		latency     time.Duration
		concurrency int
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dashboards over a JSON HTTP API",
		Long: `Serve dashboards over a JSON HTTP API.

Each client gets its own dashboard of sample widgets, identified by the
X-Dashboard-Session header. Arrangements and themes are stored in the
configured storage backend under a per-session prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("latency") && cfg.Server.Latency != "" {
				if latency, err = time.ParseDuration(cfg.Server.Latency); err != nil {
					return fmt.Errorf("server latency: %w", err)
				}
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Server.Concurrency
			}
			g, err := cfg.GridConfig()
			if err != nil {
				return err
			}

			backend, err := c.openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			srv, err := server.New(server.Options{
				Grid:        g,
				Widgets:     widgetSet(demoOptions{latency: latency}),
				Backend:     backend,
				Concurrency: concurrency,
				MaxSessions: maxSessions,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			printSuccess("Serving dashboards on %s", StyleLink.Render("http://"+addr))
			printStats(fmt.Sprintf("storage %s", cfg.Storage.Kind), fmt.Sprintf("%d columns", g.Columns[g.DesignBreakpoint]))
			printNextStep("Try", "curl -i http://"+addr+"/api/dashboard")
			printNewline()

			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().DurationVar(&latency, "latency", 0, "simulated widget fetch latency")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent widget loads per dashboard (0 = unlimited)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", server.DefaultMaxSessions, "max live dashboards kept in memory")

	return cmd
}
