package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/persist"
)

// layoutCommand groups the layout subcommands.
func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Fit and inspect grid layouts",
	}
	cmd.AddCommand(c.layoutFitCommand())
	cmd.AddCommand(c.layoutShowCommand())
	return cmd
}

// layoutFitCommand creates the "layout fit" subcommand.
func (c *CLI) layoutFitCommand() *cobra.Command {
	var (
		output     string
		breakpoint string
	)

	cmd := &cobra.Command{
		Use:   "fit [layout.json|-]",
		Short: "Derive every breakpoint's layout from a design layout",
		Long: `Derive every breakpoint's layout from a design layout.

The input is a JSON array of grid items authored for the design breakpoint
(lg unless configured otherwise). Narrower breakpoints are re-packed from it:
items keep their reading order, sizes follow per-item responsive rules and are
clamped to the breakpoint's column count.

With --breakpoint only that breakpoint's layout is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			g, err := cfg.GridConfig()
			if err != nil {
				return err
			}
			return c.runLayoutFit(cmd.InOrStdin(), args[0], g, breakpoint, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&breakpoint, "breakpoint", "b", "", "only output this breakpoint: lg, md, sm, xs, xxs")
	_ = cmd.RegisterFlagCompletionFunc("breakpoint", completeBreakpoints)

	return cmd
}

func (c *CLI) runLayoutFit(stdin io.Reader, input string, g grid.Config, breakpoint, output string) error {
	l, err := readLayout(stdin, input)
	if err != nil {
		return err
	}
	if err := layout.Validate(l, g.Columns[g.DesignBreakpoint]); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	mgr, err := grid.New(g, dashboard.NewLiveGrid(l), nil, grid.WithLogger(c.Logger))
	if err != nil {
		return err
	}

	var out any = mgr.Layouts()
	if breakpoint != "" {
		bp, err := layout.ParseBreakpoint(breakpoint)
		if err != nil {
			return err
		}
		fitted, ok := mgr.Layout(bp)
		if !ok {
			return fmt.Errorf("breakpoint %s is not configured", bp)
		}
		out = fitted
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Fitted %d items", len(l))
	printFile(output)
	printStats(fmt.Sprintf("%d breakpoints", len(mgr.Order())), fmt.Sprintf("design %s", g.DesignBreakpoint))
	return nil
}

// readLayout reads a JSON layout from path, or stdin when path is "-".
func readLayout(stdin io.Reader, path string) (layout.Layout, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return l, nil
}

// layoutShowCommand creates the "layout show" subcommand.
func (c *CLI) layoutShowCommand() *cobra.Command {
	var breakpoint string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored dashboard layout",
		Long: `Show the stored dashboard layout for one breakpoint as a table and a
grid map. Without a stored layout the default arrangement is shown.`,
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
			bp := g.DesignBreakpoint
			if breakpoint != "" {
				if bp, err = layout.ParseBreakpoint(breakpoint); err != nil {
					return err
				}
			}

			backend, err := c.openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			stored, err := persist.NewStore(backend, c.Logger).Has(ctx)
			if err != nil {
				return err
			}
			d, err := c.openDashboard(ctx, g, backend, demoOptions{skipInitialize: true})
			if err != nil {
				return err
			}
			defer d.Close()

			view := d.Snapshot()
			labels := make(map[layout.ID]string, len(view.Widgets)+len(view.Palette))
			for _, w := range append(view.Widgets, view.Palette...) {
				labels[w.ID] = w.DisplayName
			}
			l, _ := d.Layouts().Layout(bp)
			th, err := d.Theme(ctx)
			if err != nil {
				return err
			}

			source := "default arrangement"
			if stored {
				source = "stored"
			}
			fmt.Println(StyleTitle.Render(fmt.Sprintf("Layout %s", bp)) + " " + StyleDim.Render("("+source+")"))
			printNewline()
			fmt.Println(layoutTable(l, labels))
			printNewline()
			fmt.Println(gridView{cols: g.Columns[bp], labels: labels, colours: th.MainPalette()}.render(l))
			return nil
		},
	}

	cmd.Flags().StringVarP(&breakpoint, "breakpoint", "b", "", "breakpoint to show (default: design breakpoint)")
	_ = cmd.RegisterFlagCompletionFunc("breakpoint", completeBreakpoints)
	return cmd
}

func layoutTable(l layout.Layout, labels map[layout.ID]string) string {
	rows := make([][]string, len(l))
	for i, it := range l {
		rows[i] = []string{
			string(it.I), labels[it.I],
			strconv.Itoa(it.X), strconv.Itoa(it.Y), strconv.Itoa(it.W), strconv.Itoa(it.H),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Widget", "X", "Y", "W", "H").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
