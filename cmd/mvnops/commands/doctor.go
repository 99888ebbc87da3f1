package commands

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/internal/facade"
	"github.com/systmms/mvnops/pkg/invoker"
)

// CheckResult is one line of the doctor report.
type CheckResult struct {
	Name    string
	Status  string // ok, error
	Message string
	Err     error
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check Maven, repositories and credential stores",
		Long: `Verify that mvnops can run Maven with the current configuration.

This command checks:
- Configuration file validity
- Maven executable resolution and version
- Local repository directories
- Credential store connectivity
- The history backend`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg.Logger.Info("Checking mvnops configuration...")
			if err := loadConfig(cfg); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}
			f, err := facade.FromConfig(cmd.Context(), cfg, facade.Wiring{
				Stdout: invoker.NewWriterHandler(io.Discard),
				Stderr: invoker.NewWriterHandler(io.Discard),
			})
			if err != nil {
				cfg.Logger.Error("Setup failed: %v", err)
				return dserrors.Explain(err)
			}
			defer f.Close()
			cfg.Logger.Info("✓ Configuration loaded successfully")

			results := runChecks(cmd, f)
			displayCheckResults(out, results, verbose)

			failed := 0
			for _, r := range results {
				if r.Status != "ok" {
					failed++
				}
			}
			fmt.Fprintf(out, "\nSummary: %d/%d checks passed\n", len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			cfg.Logger.Info("✓ All systems operational!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for failed checks")

	return cmd
}

func runChecks(cmd *cobra.Command, f *facade.Facade) []CheckResult {
	ctx := cmd.Context()
	var results []CheckResult

	mvn, err := f.Executable()
	results = append(results, check("maven executable", mvn, err))
	if err == nil {
		v, err := f.DetectVersion(ctx, nil)
		msg := ""
		if v != nil {
			msg = fmt.Sprintf("Apache Maven %s, Java %s", v.Maven, v.Java)
		}
		results = append(results, check("maven version", msg, err))
	}

	opts := f.Options()
	results = append(results, check("local repository", opts.LocalRepository, nil))
	for _, alias := range slices.Sorted(maps.Keys(opts.LocalRepositories)) {
		results = append(results, check("local repository "+alias, opts.LocalRepositories[alias], nil))
	}

	for _, s := range f.ValidateStores(ctx) {
		name := fmt.Sprintf("store %s (%s)", s.Name, s.Type)
		if s.Err != nil {
			results = append(results, check(name, "", dserrors.ProviderError(s.Type, "validate", s.Err)))
			continue
		}
		results = append(results, check(name, "ready", nil))
	}

	_, err = f.History(ctx, 1)
	results = append(results, check("history", "readable", err))

	return results
}

func check(name, message string, err error) CheckResult {
	if err != nil {
		return CheckResult{Name: name, Status: "error", Err: err}
	}
	return CheckResult{Name: name, Status: "ok", Message: message}
}

func displayCheckResults(w io.Writer, results []CheckResult, verbose bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(tw, "-----\t------\t-------\n")
	for _, r := range results {
		status := "✓ " + r.Status
		message := r.Message
		if r.Err != nil {
			status = "✗ " + r.Status
			message = headline(r.Err)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, status, message)
	}
	_ = tw.Flush()

	if !verbose {
		return
	}
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s:\n", r.Name)
		var ue dserrors.UserError
		if errors.As(r.Err, &ue) && ue.Err != nil {
			_, _ = fmt.Fprintf(w, "  • %v\n", ue.Err)
			if ue.Suggestion != "" {
				_, _ = fmt.Fprintf(w, "  • %s\n", ue.Suggestion)
			}
			continue
		}
		_, _ = fmt.Fprintf(w, "  • %v\n", dserrors.Explain(r.Err))
	}
}

// headline is the first line of an error message.
func headline(err error) string {
	msg := err.Error()
	for i, c := range msg {
		if c == '\n' {
			return msg[:i]
		}
	}
	return msg
}
