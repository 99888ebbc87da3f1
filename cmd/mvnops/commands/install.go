package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/coordinate"
)

func NewInstallCommand(cfg *config.Config) *cobra.Command {
	var (
		file           string
		generatePom    bool
		createChecksum bool
		repoAlias      string
	)

	cmd := &cobra.Command{
		Use:   "install --file <path> <group:artifact[:extension[:classifier]]:version>",
		Short: "Install a file into the local repository",
		Long: `Install a file as an artifact into the local Maven repository using
install:install-file.

Examples:
  mvnops install --file target/demo.jar com.example:demo:1.0.0
  mvnops install --file dist/app.zip --generate-pom com.example:app:zip:dist:2.1
  mvnops install --file lib.jar --local-repository scratch com.example:lib:0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := coordinate.Parse(args[0])
			if err != nil {
				return dserrors.Explain(err)
			}
			a, err := coordinate.NewBuilder().
				Group(c.Group).
				Artifact(c.Artifact).
				Extension(c.Extension).
				Classifier(c.Classifier).
				Version(c.Version).
				File(file).
				GeneratePom(generatePom).
				CreateChecksum(createChecksum).
				Build()
			if err != nil {
				return dserrors.Explain(err)
			}

			f, err := openFacade(cmd.Context(), cmd, cfg, nil)
			if err != nil {
				return err
			}
			defer f.Close()

			f, err = f.UsingLocalRepository(repoAlias)
			if err != nil {
				return dserrors.Explain(err)
			}

			res, err := f.Install(cmd.Context(), a)
			if err == nil && res.Succeeded() {
				cfg.Logger.Info("Installed %s", a.Coordinate)
			}
			return finish(res, err)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "File to install (required)")
	cmd.Flags().BoolVar(&generatePom, "generate-pom", false, "Generate a minimal pom for the artifact")
	cmd.Flags().BoolVar(&createChecksum, "create-checksum", false, "Write checksums next to the installed file")
	cmd.Flags().StringVar(&repoAlias, "local-repository", "", "Install into a named alias from maven.invoker.local_repositories")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
