// Package facade composes invocation options, the process runner and the
// optional credential, metrics and history hooks into the operations the
// CLI exposes.
package facade

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/internal/credentials"
	"github.com/systmms/mvnops/internal/history"
	"github.com/systmms/mvnops/internal/logging"
	"github.com/systmms/mvnops/internal/metrics"
	"github.com/systmms/mvnops/pkg/coordinate"
	"github.com/systmms/mvnops/pkg/descriptor"
	"github.com/systmms/mvnops/pkg/exec"
	"github.com/systmms/mvnops/pkg/invoker"
)

// Operation names used for metrics and history.
const (
	OpInstall = "install"
	OpDeploy  = "deploy"
	OpExec    = "exec"
)

// Config lists everything New needs. Only Options is required.
type Config struct {
	Options invoker.Options
	Logger  *logging.Logger

	// Stdout and Stderr receive Maven's output lines. Nil writes to the
	// process streams.
	Stdout invoker.OutputHandler
	Stderr invoker.OutputHandler

	Credentials   *credentials.Resolver
	Metrics       *metrics.Recorder
	MetricsExport config.MetricsConfig
	History       history.Store

	// Home locates the user's .m2/settings.xml, which generated deploy
	// settings are merged into. Empty means os.UserHomeDir.
	Home string

	// RunnerOptions are appended after the ones New derives.
	RunnerOptions []invoker.RunnerOption

	now func() time.Time
}

// Facade runs Maven operations.
type Facade struct {
	options invoker.Options
	runner  *invoker.Runner
	logger  *logging.Logger

	creds         *credentials.Resolver
	metrics       *metrics.Recorder
	metricsExport config.MetricsConfig
	history       history.Store
	home          string
	now           func() time.Time
}

// New validates the options, creates the default local repository and
// every alias, builds the runner and returns the facade.
func New(_ context.Context, cfg Config) (*Facade, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if err := invoker.EnsureLocalRepository(cfg.Options.LocalRepository); err != nil {
		return nil, err
	}
	for _, alias := range sortedAliases(cfg.Options.LocalRepositories) {
		if err := invoker.EnsureLocalRepository(cfg.Options.LocalRepositories[alias]); err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(false, true)
	}
	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = invoker.NewWriterHandler(os.Stdout)
	}
	if stderr == nil {
		stderr = invoker.NewWriterHandler(os.Stderr)
	}

	opts := append([]invoker.RunnerOption{
		invoker.WithLogger(logger),
		invoker.WithOutput(stdout, stderr),
	}, cfg.RunnerOptions...)

	now := cfg.now
	if now == nil {
		now = time.Now
	}

	return &Facade{
		options:       cfg.Options,
		runner:        invoker.NewRunner(opts...),
		logger:        logger,
		creds:         cfg.Credentials,
		metrics:       cfg.Metrics,
		metricsExport: cfg.MetricsExport,
		history:       cfg.History,
		home:          cfg.Home,
		now:           now,
	}, nil
}

// Options returns the options the facade was built with.
func (f *Facade) Options() invoker.Options {
	return f.options
}

// UsingLocalRepository returns a facade that installs into and resolves
// from the repository registered under alias. An empty alias returns f.
func (f *Facade) UsingLocalRepository(alias string) (*Facade, error) {
	if alias == "" {
		return f, nil
	}
	path, err := f.options.LocalRepositoryFor(alias)
	if err != nil {
		return nil, err
	}
	c := *f
	c.options.LocalRepository = path
	return &c, nil
}

// Install copies a file into the local repository under the artifact's
// coordinates.
func (f *Facade) Install(ctx context.Context, a coordinate.Artifact) (*invoker.Result, error) {
	if err := validateArtifact(a); err != nil {
		return nil, err
	}
	req, err := f.options.NewRequest("")
	if err != nil {
		return nil, err
	}
	return f.run(ctx, OpInstall, a.Coordinate.String(), req.InstallFileRequest(a))
}

func validateArtifact(a coordinate.Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(a.File) == "" {
		return fmt.Errorf("%w: artifact %s has no file", invoker.ErrInvalidRequest, a.Coordinate)
	}
	return nil
}

// InstallFile parses coordinates and installs file under them.
func (f *Facade) InstallFile(ctx context.Context, file, coordinates string) (*invoker.Result, error) {
	a, err := coordinate.ParseArtifact(file, coordinates)
	if err != nil {
		return nil, err
	}
	return f.Install(ctx, a)
}

// Deploy uploads a file to the remote repository named by the artifact.
func (f *Facade) Deploy(ctx context.Context, a coordinate.Artifact) (*invoker.Result, error) {
	if err := validateArtifact(a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.RepositoryURL) == "" || strings.TrimSpace(a.RepositoryID) == "" {
		return nil, fmt.Errorf("%w: deploy requires a repository url and id", invoker.ErrInvalidRequest)
	}
	req, err := f.options.NewRequest("")
	if err != nil {
		return nil, err
	}
	return f.run(ctx, OpDeploy, a.Coordinate.String(), req.DeployFileRequest(a))
}

// DeployFile parses coordinates and deploys file to url under id.
func (f *Facade) DeployFile(ctx context.Context, file, coordinates, url, id string) (*invoker.Result, error) {
	a, err := coordinate.ParseArtifact(file, coordinates)
	if err != nil {
		return nil, err
	}
	a.RepositoryURL = url
	a.RepositoryID = id
	return f.Deploy(ctx, a)
}

// Execute runs goals in baseDir exactly as given.
func (f *Facade) Execute(ctx context.Context, baseDir string, goals ...string) (*invoker.Result, error) {
	req, err := f.options.NewRequest(baseDir, goals...)
	if err != nil {
		return nil, err
	}
	return f.run(ctx, OpExec, "", req)
}

// ReadDescriptor returns the project descriptor embedded in an archive.
func (f *Facade) ReadDescriptor(path string) (*descriptor.Descriptor, error) {
	return descriptor.Read(path)
}

// Executable reports which Maven executable would be started.
func (f *Facade) Executable() (string, error) {
	req, err := f.options.NewRequest("")
	if err != nil {
		return "", err
	}
	return f.runner.Executable(req)
}

// DetectVersion runs the resolved executable with --version in the same
// environment a build would get.
func (f *Facade) DetectVersion(ctx context.Context, executor exec.CommandExecutor) (*exec.MavenVersion, error) {
	mvn, err := f.Executable()
	if err != nil {
		return nil, err
	}
	if executor == nil {
		req, err := f.options.NewRequest("")
		if err != nil {
			return nil, err
		}
		executor = &exec.RealCommandExecutor{Env: req.Environ(os.Environ())}
	}
	return exec.DetectVersion(ctx, executor, mvn)
}

// ValidateStores checks every configured credential store.
func (f *Facade) ValidateStores(ctx context.Context) []credentials.StoreStatus {
	if f.creds == nil {
		return nil
	}
	return f.creds.Validate(ctx)
}

// History returns up to limit recorded invocations, newest first.
func (f *Facade) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if f.history == nil {
		return nil, nil
	}
	return f.history.List(ctx, limit)
}

// Close releases the history store.
func (f *Facade) Close() error {
	if f.history == nil {
		return nil
	}
	return f.history.Close()
}

func (f *Facade) run(ctx context.Context, op, coords string, req *invoker.Request) (*invoker.Result, error) {
	cleanup := func() {}
	if op == OpDeploy {
		var err error
		if cleanup, err = f.injectCredentials(ctx, req); err != nil {
			return nil, err
		}
	}
	defer cleanup()

	entry := history.NewEntry(op, f.now())
	entry.Coordinate = coords
	entry.Goals = append([]string(nil), req.Goals...)
	entry.BaseDir = req.BaseDirectory

	f.logger.Debug("Running %s: %s", op, strings.Join(req.Goals, " "))
	if len(req.Environment) > 0 {
		f.logger.Debug("Child environment: %s", strings.Join(logging.RedactEnv(environment(req)), " "))
	}
	res, err := f.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	f.observe(ctx, op, entry.Complete(res), res)
	return res, nil
}

func environment(req *invoker.Request) []string {
	env := make([]string, 0, len(req.Environment))
	for k, v := range req.Environment {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// injectCredentials resolves server credentials into the request
// environment and, without an explicit user settings file, points Maven at
// a copy of ~/.m2/settings.xml with server entries that reference them.
func (f *Facade) injectCredentials(ctx context.Context, req *invoker.Request) (func(), error) {
	noop := func() {}
	if f.creds == nil || len(f.creds.ServerIDs()) == 0 {
		return noop, nil
	}

	bag, err := f.creds.Resolve(ctx)
	if err != nil {
		return noop, err
	}
	defer bag.Destroy()

	env, err := bag.Environ()
	if err != nil {
		return noop, err
	}
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		req.WithEnv(k, v)
	}

	if req.UserSettings != "" {
		return noop, nil
	}
	path, cleanup, err := credentials.WriteSettings(f.creds.ServerIDs(), f.userSettings())
	if err != nil {
		return noop, err
	}
	req.WithUserSettings(path)
	f.logger.Debug("Using generated settings %s for %d server(s)", path, len(f.creds.ServerIDs()))
	return cleanup, nil
}

// userSettings is Maven's default user settings path, or "" when the home
// directory is unknown.
func (f *Facade) userSettings() string {
	home := f.home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		home = h
	}
	return filepath.Join(home, ".m2", "settings.xml")
}

func (f *Facade) observe(ctx context.Context, op string, entry history.Entry, res *invoker.Result) {
	if f.metrics != nil {
		f.metrics.Observe(op, res)
		if metrics.Enabled(f.metricsExport) {
			if err := f.metrics.Export(ctx, f.metricsExport); err != nil {
				f.logger.Warn("Failed to export metrics: %v", err)
			}
		}
	}
	if f.history != nil {
		if err := f.history.Record(ctx, entry); err != nil {
			f.logger.Warn("Failed to record history: %v", err)
		}
	}
}

func sortedAliases(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
