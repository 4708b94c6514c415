package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/pkg/theme"
)

// themeCommand groups the theme subcommands.
func (c *CLI) themeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the dashboard colours",
	}
	cmd.AddCommand(c.themeShowCommand())
	cmd.AddCommand(c.themeSetCommand())
	return cmd
}

// themeShowCommand creates the "theme show" subcommand.
func (c *CLI) themeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored theme and its chart colours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			backend, err := c.openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			th, err := theme.NewStore(backend, c.Logger).Load(ctx)
			if err != nil {
				printWarning("Could not read stored theme, showing defaults")
				printDetail("%v", err)
			}
			printTheme(th)
			return nil
		},
	}
}

// themeSetCommand creates the "theme set" subcommand.
func (c *CLI) themeSetCommand() *cobra.Command {
	var (
		primary string
		surface string
		dark    bool
		light   bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the stored theme",
		Long: `Change the stored theme. Only the given settings change.

Primary palettes: ` + paletteNames(theme.Primaries) + `
Surface palettes: ` + paletteNames(theme.Surfaces),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dark && light {
				return fmt.Errorf("--dark and --light are mutually exclusive")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			backend, err := c.openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			store := theme.NewStore(backend, c.Logger)
			th, err := store.Load(ctx)
			if err != nil {
				return err
			}
			if primary != "" {
				th.Primary = primary
			}
			if surface != "" {
				th.Surface = surface
			}
			switch {
			case dark:
				th.IsDark = true
			case light:
				th.IsDark = false
			}
			if err := store.Save(ctx, th); err != nil {
				return err
			}

			printSuccess("Theme saved")
			printTheme(th)
			return nil
		},
	}

	cmd.Flags().StringVar(&primary, "primary", "", "primary palette")
	cmd.Flags().StringVar(&surface, "surface", "", "surface palette")
	cmd.Flags().BoolVar(&dark, "dark", false, "use dark mode")
	cmd.Flags().BoolVar(&light, "light", false, "use light mode")
	return cmd
}

func printTheme(th theme.Config) {
	mode := "light"
	if th.IsDark {
		mode = "dark"
	}
	printKeyValue("Primary", swatchFor(theme.Primaries, th.Primary)+" "+th.Primary)
	printKeyValue("Surface", swatchFor(theme.Surfaces, th.Surface)+" "+th.Surface)
	printKeyValue("Mode", mode)

	charts := th.Charts()
	printKeyValue("Charts", swatches(charts.Main))
	printKeyValue("Light", swatches(charts.Light))
}

func swatchFor(list []theme.Palette, name string) string {
	for _, p := range list {
		if p.Name == name {
			return swatch(p.Color)
		}
	}
	return " "
}

func swatches(colours []string) string {
	parts := make([]string, len(colours))
	for i, col := range colours {
		parts[i] = swatch(col)
	}
	return strings.Join(parts, " ")
}

func paletteNames(list []theme.Palette) string {
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
