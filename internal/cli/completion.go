package cli

import (
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/pkg/layout"
)

// completionShells maps each supported shell to its script generator.
var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
}

func (c *CLI) completionCommand() *cobra.Command {
	shells := make([]string, 0, len(completionShells))
	for name := range completionShells {
		shells = append(shells, name)
	}
	slices.Sort(shells)

	return &cobra.Command{
		Use:   "completion [bash|fish|zsh]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for gridboard and write it to stdout.

  $ source <(gridboard completion bash)
  $ gridboard completion zsh > "${fpath[1]}/_gridboard"
  $ gridboard completion fish > ~/.config/fish/completions/gridboard.fish

Breakpoint flags complete to lg, md, sm, xs and xxs.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// completeBreakpoints completes --breakpoint values.
func completeBreakpoints(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(layout.Breakpoints))
	for i, bp := range layout.Breakpoints {
		out[i] = string(bp)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
