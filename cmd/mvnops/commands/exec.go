package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/invoker"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		baseDir   string
		timeout   time.Duration
		offline   bool
		profiles  []string
		repoAlias string
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- <goal> [goal...]",
		Short: "Run Maven goals with the configured options",
		Long: `Run arbitrary Maven goals. Goals are passed to Maven verbatim after the
flags derived from maven.invoker in mvnops.yaml.

The goals must be separated from mvnops flags with '--'.

Examples:
  mvnops exec -- clean verify
  mvnops exec --basedir services/api --timeout 20m -- package -DskipTests
  mvnops exec --basedir build/custom-pom.xml -- validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return dserrors.UserError{
					Message:    "No goals specified",
					Suggestion: "Use: mvnops exec -- <goal> [goal...]",
				}
			}

			f, err := openFacade(cmd.Context(), cmd, cfg, func(o *invoker.Options) {
				if cmd.Flags().Changed("timeout") {
					o.Timeout = timeout
				}
				if offline {
					o.Offline = true
				}
				if len(profiles) > 0 {
					o.Profiles = profiles
				}
			})
			if err != nil {
				return err
			}
			defer f.Close()

			f, err = f.UsingLocalRepository(repoAlias)
			if err != nil {
				return dserrors.Explain(err)
			}

			return finish(f.Execute(cmd.Context(), baseDir, args...))
		},
	}

	cmd.Flags().StringVar(&baseDir, "basedir", "", "Project directory or pom file (default: current directory)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill Maven after this long (overrides maven.invoker.timeout)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Run Maven offline")
	cmd.Flags().StringSliceVarP(&profiles, "profile", "P", nil, "Profiles to activate (replaces maven.invoker.profiles)")
	cmd.Flags().StringVar(&repoAlias, "local-repository", "", "Use a named alias from maven.invoker.local_repositories")

	return cmd
}
