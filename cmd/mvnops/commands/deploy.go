package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/coordinate"
)

func NewDeployCommand(cfg *config.Config) *cobra.Command {
	var (
		file         string
		url          string
		repositoryID string
	)

	cmd := &cobra.Command{
		Use:   "deploy --file <path> --url <url> --repository-id <id> <coordinates>",
		Short: "Deploy a file to a remote repository",
		Long: `Deploy a file as an artifact to a remote repository using
deploy:deploy-file. Credentials for the repository id are read from the
stores configured under credentials in mvnops.yaml.

Examples:
  mvnops deploy --file target/demo.jar --url https://nexus.example.com/repository/releases \
      --repository-id releases com.example:demo:1.0.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := coordinate.ParseArtifact(file, args[0])
			if err != nil {
				return dserrors.Explain(err)
			}
			a.RepositoryURL = url
			a.RepositoryID = repositoryID

			f, err := openFacade(cmd.Context(), cmd, cfg, nil)
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := f.Deploy(cmd.Context(), a)
			if err == nil && res.Succeeded() {
				cfg.Logger.Info("Deployed %s to %s", a.Coordinate, repositoryID)
			}
			return finish(res, err)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "File to deploy (required)")
	cmd.Flags().StringVar(&url, "url", "", "Repository URL (required)")
	cmd.Flags().StringVar(&repositoryID, "repository-id", "", "Server id used to look up credentials (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("repository-id")

	return cmd
}
