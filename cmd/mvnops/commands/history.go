package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/internal/history"
)

func NewHistoryCommand(cfg *config.Config) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent Maven invocations",
		Long: `List the invocations recorded by the configured history backend,
newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}
			lookup := cfg.LookupEnv
			if lookup == nil {
				lookup = os.LookupEnv
			}
			store, err := history.Open(cmd.Context(), cfg.Definition.History, history.DefaultDir(cfg.Home, lookup))
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "text" {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeStructured(out, format, entries)
			}
			if len(entries) == 0 {
				cfg.Logger.Info("No invocations recorded")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tOPERATION\tEXIT\tDURATION\tTARGET")
			for _, e := range entries {
				target := e.Coordinate
				if target == "" {
					target = strings.Join(e.Goals, " ")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.StartedAt.Local().Format(time.DateTime), e.Operation, e.ExitCode,
					e.Duration.Round(time.Millisecond), target)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")

	return cmd
}
