package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/internal/config"
	"github.com/matzehuels/gridboard/pkg/buildinfo"
	"github.com/matzehuels/gridboard/pkg/catalog"
	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/storage"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	storageKind string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gridboard",
		Short: "Gridboard runs responsive dashboard grids",
		Long: `Gridboard is a responsive dashboard grid engine. It keeps one layout per
breakpoint, moves widgets between the dashboard and its palette, loads widget
data concurrently and persists every arrangement.

Run 'gridboard preview' for a terminal dashboard or 'gridboard serve' for the
JSON API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/gridboard/config.toml)")
	root.PersistentFlags().StringVar(&c.storageKind, "storage", "", "storage backend: file, memory, none, redis, mongo, sqlite")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.themeCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig reads the config file and applies persistent flag overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.storageKind != "" {
		cfg.Storage.Kind = storage.Kind(c.storageKind)
	}
	return cfg, nil
}

// openStorage opens the configured backend, showing a spinner for the
// network backends.
func (c *CLI) openStorage(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch cfg.Storage.Kind {
	case storage.KindRedis, storage.KindMongo:
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Connecting to %s...", cfg.Storage.Kind))
		spinner.Start()
		b, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			spinner.StopWithError("Storage unavailable")
			return nil, err
		}
		spinner.Stop()
		return b, nil
	}
	return storage.Open(ctx, cfg.Storage)
}

// demoOptions tunes the sample widgets.
type demoOptions struct {
	latency     time.Duration
	tick        time.Duration
	concurrency int
	scheduler   grid.Scheduler
	// skipInitialize leaves the widgets unloaded.
	skipInitialize bool
}

// widgetSet returns the sample widgets for a grid of cols columns.
func widgetSet(o demoOptions) func(cols int) ([]*widget.Widget, []*widget.Widget) {
	opts := catalog.Options{Latency: o.latency, TickInterval: o.tick}
	return func(cols int) ([]*widget.Widget, []*widget.Widget) {
		return catalog.Dashboard(cols, opts), catalog.Palette(cols, opts)
	}
}

// openDashboard builds the sample dashboard over backend.
func (c *CLI) openDashboard(ctx context.Context, g grid.Config, backend storage.Backend, o demoOptions) (*dashboard.Dashboard, error) {
	dash, palette := widgetSet(o)(g.Columns[g.DesignBreakpoint])
	return dashboard.New(ctx, dashboard.Options{
		Grid:           g,
		Widgets:        dash,
		Palette:        palette,
		Backend:        backend,
		Scheduler:      o.scheduler,
		Concurrency:    o.concurrency,
		SkipInitialize: o.skipInitialize,
		Logger:         c.Logger,
	})
}
