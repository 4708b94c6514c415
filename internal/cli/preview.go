package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
)

// previewCommand creates the preview command for the terminal dashboard.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		latency     time.Duration
		tick        time.Duration
		concurrency int
		breakpoint  string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Open the sample dashboard in the terminal",
		Long: `Open the sample dashboard in the terminal.

Widgets load with simulated latency and the live ticker streams updates.
Press e to edit: move widgets with the arrow keys, remove them with d, and
add palette widgets with a or drag them onto the grid with g. Layout changes
are saved to the configured storage and restored on the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
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

			restore := quiet(c.Logger, LogWarn)
			defer restore()

			prog := newProgress(c.Logger)
			ticks := &grid.TickQueue{}
			d, err := c.openDashboard(ctx, g, backend, demoOptions{
				latency:        latency,
				tick:           tick,
				concurrency:    concurrency,
				scheduler:      ticks,
				skipInitialize: true,
			})
			if err != nil {
				return err
			}
			defer d.Close()

			th, err := d.Theme(ctx)
			if err != nil {
				printWarning("Using the default theme: %v", err)
			}

			m := NewDashboardModel(ctx, d, ticks, th)
			if breakpoint != "" {
				bp, err := layout.ParseBreakpoint(breakpoint)
				if err != nil {
					return err
				}
				if err := d.HandleBreakpointChange(ctx, bp); err != nil {
					return err
				}
				ticks.Flush()
				m.followWindow = false
			}

			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("run preview: %w", err)
			}
			restore()
			prog.done("Closed dashboard", "widgets", d.Widgets().Dashboard().Len())
			return nil
		},
	}

	cmd.Flags().DurationVar(&latency, "latency", 400*time.Millisecond, "simulated widget fetch latency")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "live ticker update interval")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "max concurrent widget loads (0 = unlimited)")
	cmd.Flags().StringVarP(&breakpoint, "breakpoint", "b", "", "fix the breakpoint instead of following the window: lg, md, sm, xs, xxs")
	_ = cmd.RegisterFlagCompletionFunc("breakpoint", completeBreakpoints)

	return cmd
}
