package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
)

// NewCompletionCommand writes shell completion scripts to stdout.
func NewCompletionCommand(_ *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mvnops.

To load completions:

Bash:
  $ source <(mvnops completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ mvnops completion bash > /etc/bash_completion.d/mvnops
  # macOS:
  $ mvnops completion bash > $(brew --prefix)/etc/bash_completion.d/mvnops

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ mvnops completion zsh > "${fpath[1]}/_mvnops"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ mvnops completion fish | source

  # To load completions for each session, execute once:
  $ mvnops completion fish > ~/.config/fish/completions/mvnops.fish

PowerShell:
  PS> mvnops completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> mvnops completion powershell > mvnops.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}
