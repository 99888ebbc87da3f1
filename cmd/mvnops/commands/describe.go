package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/descriptor"
)

func NewDescribeCommand(cfg *config.Config) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <archive>",
		Short: "Show the project descriptor embedded in an artifact",
		Long: `Read the pom.xml embedded in a jar, war or ear and print its coordinates.

Examples:
  mvnops describe target/demo-1.0.jar
  mvnops describe --format json app.war`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := descriptor.Read(args[0])
			if err != nil {
				return dserrors.Explain(err)
			}
			cfg.Logger.Debug("Descriptor read from entry %s", d.Entry)

			out := cmd.OutOrStdout()
			if format != "text" {
				return writeStructured(out, format, d)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID:\t%s\n", d.ID)
			fmt.Fprintf(w, "Group:\t%s\n", d.GroupID)
			fmt.Fprintf(w, "Artifact:\t%s\n", d.ArtifactID)
			fmt.Fprintf(w, "Version:\t%s\n", d.Version)
			fmt.Fprintf(w, "Packaging:\t%s\n", d.Packaging)
			if d.Name != "" {
				fmt.Fprintf(w, "Name:\t%s\n", d.Name)
			}
			if d.Parent != nil {
				fmt.Fprintf(w, "Parent:\t%s:%s:%s\n", d.Parent.GroupID, d.Parent.ArtifactID, d.Parent.Version)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")

	return cmd
}
