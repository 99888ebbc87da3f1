package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/cmd/mvnops/commands"
	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints the simplified form of err and returns the exit code
// of the original.
func reportError(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", dserrors.SimplifyError(err))
	return exitCode(err)
}

// exitCode mirrors Maven's status for failed builds and is 1 otherwise.
func exitCode(err error) int {
	var bf *commands.BuildFailure
	if errors.As(err, &bf) {
		return bf.ExitCode()
	}
	return 1
}

func newRootCommand() *cobra.Command {
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "mvnops",
		Short: "Run Maven builds with managed options and credentials",
		Long: `mvnops invokes Apache Maven with options from mvnops.yaml, installs and
deploys standalone artifacts, and injects repository credentials from
secret stores without writing them to disk.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewInstallCommand(cfg),
		commands.NewDeployCommand(cfg),
		commands.NewDescribeCommand(cfg),
		commands.NewHistoryCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd
}
