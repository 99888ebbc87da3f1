package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
)

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter mvnops.yaml",
		Long:  "Write an mvnops.yaml with the default invoker options and commented examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.Path); err == nil && !force {
				return fmt.Errorf("%s already exists. Use --force to overwrite it", cfg.Path)
			}

			if err := os.WriteFile(cfg.Path, []byte(config.StarterTemplate), 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cfg.Logger.Info("Created %s", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Set maven.invoker.maven_home or put mvn on PATH")
			cfg.Logger.Info("  2. Run 'mvnops doctor' to verify the setup")
			cfg.Logger.Info("  3. Run 'mvnops exec -- verify' in a project directory")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
