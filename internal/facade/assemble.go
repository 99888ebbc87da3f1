package facade

import (
	"context"
	"os"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/internal/credentials"
	"github.com/systmms/mvnops/internal/history"
	"github.com/systmms/mvnops/internal/metrics"
	"github.com/systmms/mvnops/internal/providers"
	"github.com/systmms/mvnops/pkg/invoker"
)

// Wiring carries the pieces FromConfig cannot derive from the file.
type Wiring struct {
	Stdout        invoker.OutputHandler
	Stderr        invoker.OutputHandler
	Registry      *providers.Registry
	RunnerOptions []invoker.RunnerOption
}

// FromConfig assembles a facade from a loaded configuration in dependency
// order: options, credentials, metrics, history, then New.
func FromConfig(ctx context.Context, cfg *config.Config, w Wiring) (*Facade, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	def := cfg.Definition

	var creds *credentials.Resolver
	if len(def.Credentials.Servers) > 0 || len(def.Credentials.Stores) > 0 {
		creds = credentials.New(def.Credentials, w.Registry, cfg.Logger)
	}

	var recorder *metrics.Recorder
	if metrics.Enabled(def.Metrics) {
		recorder = metrics.New()
	}

	lookup := cfg.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	store, err := history.Open(ctx, def.History, history.DefaultDir(cfg.Home, lookup))
	if err != nil {
		return nil, err
	}

	f, err := New(ctx, Config{
		Options:       opts,
		Logger:        cfg.Logger,
		Stdout:        w.Stdout,
		Stderr:        w.Stderr,
		Credentials:   creds,
		Metrics:       recorder,
		MetricsExport: def.Metrics,
		History:       store,
		Home:          cfg.Home,
		RunnerOptions: w.RunnerOptions,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return f, nil
}
