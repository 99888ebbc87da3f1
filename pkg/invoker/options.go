package invoker

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ReactorFailureBehavior controls how a multi-module build reacts to failures.
type ReactorFailureBehavior string

const (
	FailFast  ReactorFailureBehavior = "fail-fast"
	FailAtEnd ReactorFailureBehavior = "fail-at-end"
	FailNever ReactorFailureBehavior = "fail-never"
)

// ParseReactorFailureBehavior accepts the canonical names plus the
// CamelCase spellings used by Maven's own documentation.
func ParseReactorFailureBehavior(s string) (ReactorFailureBehavior, error) {
	switch normalizeEnum(s) {
	case "", "failfast":
		return FailFast, nil
	case "failatend":
		return FailAtEnd, nil
	case "failnever":
		return FailNever, nil
	}
	return "", fmt.Errorf("%w: unknown reactor failure behavior %q", ErrInvalidRequest, s)
}

// ChecksumPolicy controls how checksum mismatches are treated.
type ChecksumPolicy string

const (
	ChecksumWarn ChecksumPolicy = "warn"
	ChecksumFail ChecksumPolicy = "fail"
)

// ParseChecksumPolicy accepts "warn" and "fail" in any case.
func ParseChecksumPolicy(s string) (ChecksumPolicy, error) {
	switch normalizeEnum(s) {
	case "", "warn":
		return ChecksumWarn, nil
	case "fail":
		return ChecksumFail, nil
	}
	return "", fmt.Errorf("%w: unknown checksum policy %q", ErrInvalidRequest, s)
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// Options is the flat set of settings that control how Maven is run.
// Path-valued options that are blank are left out of the request entirely.
type Options struct {
	AlsoMake                  bool                   `yaml:"also_make" json:"also_make"`
	AlsoMakeDependents        bool                   `yaml:"also_make_dependents" json:"also_make_dependents"`
	BatchMode                 bool                   `yaml:"batch_mode" json:"batch_mode"`
	Debug                     bool                   `yaml:"debug" json:"debug"`
	GlobalChecksumPolicy      ChecksumPolicy         `yaml:"global_checksum_policy" json:"global_checksum_policy"`
	GlobalSettings            string                 `yaml:"global_settings" json:"global_settings"`
	GlobalToolchains          string                 `yaml:"global_toolchains" json:"global_toolchains"`
	JavaHome                  string                 `yaml:"java_home" json:"java_home"`
	LocalRepository           string                 `yaml:"local_repository" json:"local_repository"`
	LocalRepositories         map[string]string      `yaml:"local_repositories" json:"local_repositories"`
	MavenExecutable           string                 `yaml:"maven_executable" json:"maven_executable"`
	MavenHome                 string                 `yaml:"maven_home" json:"maven_home"`
	MavenOpts                 string                 `yaml:"maven_opts" json:"maven_opts"`
	NonPluginUpdates          bool                   `yaml:"non_plugin_updates" json:"non_plugin_updates"`
	Offline                   bool                   `yaml:"offline" json:"offline"`
	PomFilename               string                 `yaml:"pom_filename" json:"pom_filename"`
	Profiles                  []string               `yaml:"profiles" json:"profiles"`
	Projects                  []string               `yaml:"projects" json:"projects"`
	Properties                map[string]string      `yaml:"properties" json:"properties"`
	ReactorFailureBehavior    ReactorFailureBehavior `yaml:"reactor_failure_behavior" json:"reactor_failure_behavior"`
	Recursive                 bool                   `yaml:"recursive" json:"recursive"`
	ResumeFrom                string                 `yaml:"resume_from" json:"resume_from"`
	ShellEnvironmentInherited bool                   `yaml:"shell_environment_inherited" json:"shell_environment_inherited"`
	ShellEnvironments         map[string]string      `yaml:"shell_environments" json:"shell_environments"`
	ShowErrors                bool                   `yaml:"show_errors" json:"show_errors"`
	ShowVersion               bool                   `yaml:"show_version" json:"show_version"`
	Threads                   int                    `yaml:"threads" json:"threads"`
	Timeout                   time.Duration          `yaml:"timeout" json:"timeout"`
	UpdateSnapshots           bool                   `yaml:"update_snapshots" json:"update_snapshots"`
	UserSettings              string                 `yaml:"user_settings" json:"user_settings"`
}

// DefaultLocalRepository returns <home>/.m2/repository.
func DefaultLocalRepository(home string) string {
	return filepath.Join(home, ".m2", "repository")
}

// DefaultOptions returns the documented defaults. The home directory is
// passed in so callers and tests decide where the default repository lives.
func DefaultOptions(home string) Options {
	return Options{
		GlobalChecksumPolicy:      ChecksumWarn,
		LocalRepository:           DefaultLocalRepository(home),
		ReactorFailureBehavior:    FailFast,
		Recursive:                 true,
		ShellEnvironmentInherited: true,
		Threads:                   1,
	}
}

// LocalRepositoryFor returns the repository path registered under alias.
// An empty alias selects the default local repository.
func (o Options) LocalRepositoryFor(alias string) (string, error) {
	if alias == "" {
		return o.LocalRepository, nil
	}
	path, ok := o.LocalRepositories[alias]
	if !ok || isBlank(path) {
		return "", fmt.Errorf("%w: unknown local repository alias %q", ErrInvalidRequest, alias)
	}
	return path, nil
}

// Validate reports option values that can never produce a valid request.
func (o Options) Validate() error {
	if o.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalidRequest, o.Threads)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidRequest)
	}
	if isBlank(o.LocalRepository) {
		return fmt.Errorf("%w: local repository must be set", ErrInvalidRequest)
	}
	if _, err := ParseReactorFailureBehavior(string(o.ReactorFailureBehavior)); err != nil {
		return err
	}
	if _, err := ParseChecksumPolicy(string(o.GlobalChecksumPolicy)); err != nil {
		return err
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
