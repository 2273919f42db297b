package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/floor"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for wayfinder.

To load completions:

Bash:
  $ source <(wayfinder completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ wayfinder completion bash > /etc/bash_completion.d/wayfinder
  # macOS:
  $ wayfinder completion bash > $(brew --prefix)/etc/bash_completion.d/wayfinder

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ wayfinder completion zsh > "${fpath[1]}/_wayfinder"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ wayfinder completion fish | source

  # To load completions for each session, execute once:
  $ wayfinder completion fish > ~/.config/fish/completions/wayfinder.fish

PowerShell:
  PS> wayfinder completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> wayfinder completion powershell > wayfinder.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeFloors offers the floor prefixes for --floor flags.
func completeFloors(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	all := floor.All()
	out := make([]string, len(all))
	for i, f := range all {
		out[i] = f.Prefix() + "\t" + f.Name()
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeModes offers the travel modes for --mode flags.
func completeModes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"escalator\tprefer escalators", "elevator\tstep-free, elevators only"}, cobra.ShellCompDirectiveNoFileComp
}
