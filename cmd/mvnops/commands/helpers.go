package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/internal/facade"
	"github.com/systmms/mvnops/pkg/invoker"
)

// BuildFailure carries Maven's exit code up to main.
type BuildFailure struct {
	Code int
	Err  error
}

func (e *BuildFailure) Error() string { return e.Err.Error() }

func (e *BuildFailure) Unwrap() error { return e.Err }

// ExitCode is the status mvnops exits with.
func (e *BuildFailure) ExitCode() int { return e.Code }

// resultError converts a failed result into a BuildFailure. A build that
// never produced an exit code maps to 1.
func resultError(res *invoker.Result) error {
	if res == nil || res.Succeeded() {
		return nil
	}
	code := res.ExitCode
	if code <= 0 {
		code = 1
	}
	return &BuildFailure{Code: code, Err: dserrors.Explain(res.Err)}
}

// loadConfig loads the configuration once per command invocation.
func loadConfig(cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		return dserrors.UserError{
			Message:    "Failed to load configuration",
			Details:    err.Error(),
			Suggestion: "Check that mvnops.yaml is valid. Run 'mvnops init' for a starter file",
			Err:        err,
		}
	}
	return nil
}

// openFacade loads the configuration, lets the command adjust the options
// and assembles a facade writing Maven output to the command's streams.
func openFacade(ctx context.Context, cmd *cobra.Command, cfg *config.Config, adjust func(*invoker.Options)) (*facade.Facade, error) {
	if err := loadConfig(cfg); err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(&cfg.Definition.Maven.Invoker)
	}
	f, err := facade.FromConfig(ctx, cfg, facade.Wiring{
		Stdout: invoker.NewWriterHandler(cmd.OutOrStdout()),
		Stderr: invoker.NewWriterHandler(cmd.ErrOrStderr()),
	})
	if err != nil {
		return nil, dserrors.Explain(err)
	}
	return f, nil
}

// finish turns the outcome of a facade call into the command's error.
func finish(res *invoker.Result, err error) error {
	if err != nil {
		return dserrors.Explain(err)
	}
	return resultError(res)
}

func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
}
