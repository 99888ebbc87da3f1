package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/internal/logging"
	"github.com/systmms/mvnops/pkg/invoker"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "mvnops.yaml"

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Home           string
	LookupEnv      func(string) (string, bool)
	Definition     *Definition
}

// Definition is the structure of mvnops.yaml
type Definition struct {
	Version     int               `yaml:"version"`
	Maven       MavenConfig       `yaml:"maven"`
	Credentials CredentialsConfig `yaml:"credentials,omitempty"`
	History     HistoryConfig     `yaml:"history,omitempty"`
	Metrics     MetricsConfig     `yaml:"metrics,omitempty"`
}

// MavenConfig carries the maven.invoker namespace.
type MavenConfig struct {
	Invoker invoker.Options `yaml:"invoker"`
}

// CredentialsConfig declares secret stores and the repository servers
// whose credentials are read from them.
type CredentialsConfig struct {
	Stores  map[string]StoreConfig  `yaml:"stores,omitempty"`
	Servers map[string]ServerConfig `yaml:"servers,omitempty"`
}

// StoreConfig holds secret store-specific configuration
type StoreConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// ServerConfig maps a repository id to its credentials.
type ServerConfig struct {
	Username SecretRef `yaml:"username"`
	Password SecretRef `yaml:"password"`
}

// SecretRef is either a literal value or a key in a named store.
type SecretRef struct {
	Literal string `yaml:"literal,omitempty"`
	Store   string `yaml:"store,omitempty"`
	Key     string `yaml:"key,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// IsZero reports whether the reference is unset.
func (r SecretRef) IsZero() bool {
	return r.Literal == "" && r.Store == "" && r.Key == ""
}

// HistoryConfig selects where invocation records are kept.
type HistoryConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
	Table   string `yaml:"table,omitempty"`
}

// MetricsConfig selects where invocation metrics are exported.
type MetricsConfig struct {
	Textfile       string `yaml:"textfile,omitempty"`
	PushgatewayURL string `yaml:"pushgateway_url,omitempty"`
	Job            string `yaml:"job,omitempty"`
}

// DefaultDefinition returns the configuration used when no file exists.
func DefaultDefinition(home string) *Definition {
	return &Definition{
		Maven:   MavenConfig{Invoker: invoker.DefaultOptions(home)},
		History: HistoryConfig{Backend: "file"},
		Metrics: MetricsConfig{Job: "mvnops"},
	}
}

// Load reads mvnops.yaml, applies MAVEN_INVOKER_* overrides and validates
// the result. A missing file is not an error.
func (c *Config) Load() error {
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return dserrors.UserError{
				Message:    "Cannot determine the home directory",
				Suggestion: "Set HOME or configure maven.invoker.local_repository explicitly",
				Err:        err,
			}
		}
		c.Home = home
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}

	def := DefaultDefinition(c.Home)

	data, err := os.ReadFile(c.Path)
	switch {
	case err == nil:
		if err := validateSchema(data); err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, def); err != nil {
			return dserrors.ConfigError{
				Message:    "invalid YAML in configuration file",
				Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
				Err:        err,
			}
		}
	case os.IsNotExist(err):
		if c.Logger != nil {
			c.Logger.Debug("No configuration file at %s, using defaults", c.Path)
		}
	default:
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if def.Version != 0 {
		return dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of mvnops.yaml",
		}
	}

	lookup := c.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := ApplyEnv(&def.Maven.Invoker, lookup); err != nil {
		return err
	}
	expandHome(&def.Maven.Invoker, c.Home)
	defaultRepositories(&def.Maven.Invoker, c.Home)

	if err := def.Maven.Invoker.Validate(); err != nil {
		return dserrors.ConfigError{
			Field:   "maven.invoker",
			Message: err.Error(),
			Err:     err,
		}
	}
	if err := def.validateCredentials(); err != nil {
		return err
	}

	c.Definition = def
	return nil
}

// ServerEnvKey is the upper-case, underscore-only form of a server id used
// in environment variable names.
func ServerEnvKey(id string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (d *Definition) validateCredentials() error {
	seen := make(map[string]string)
	for _, id := range sortedServerIDs(d.Credentials.Servers) {
		key := ServerEnvKey(id)
		if other, ok := seen[key]; ok {
			return dserrors.ConfigError{
				Field:      "credentials.servers." + id,
				Message:    fmt.Sprintf("server id collides with '%s' (both map to %s)", other, key),
				Suggestion: "Rename one of the servers so ids differ in letters or digits",
			}
		}
		seen[key] = id

		server := d.Credentials.Servers[id]
		for field, ref := range map[string]SecretRef{"username": server.Username, "password": server.Password} {
			path := fmt.Sprintf("credentials.servers.%s.%s", id, field)
			if ref.IsZero() {
				return dserrors.ConfigError{Field: path, Message: "credential reference is empty"}
			}
			if ref.Literal != "" && ref.Store != "" {
				return dserrors.ConfigError{Field: path, Message: "use either literal or store, not both"}
			}
			if ref.Store == "" {
				continue
			}
			if _, ok := d.Credentials.Stores[ref.Store]; !ok {
				return dserrors.ConfigError{
					Field:      path,
					Value:      ref.Store,
					Message:    "unknown secret store",
					Suggestion: availableStores(d.Credentials.Stores),
				}
			}
			if ref.Key == "" {
				return dserrors.ConfigError{Field: path, Message: "key is required when store is set"}
			}
		}
	}
	return nil
}

func sortedServerIDs(m map[string]ServerConfig) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func availableStores(stores map[string]StoreConfig) string {
	if len(stores) == 0 {
		return "Declare the store under credentials.stores"
	}
	names := make([]string, 0, len(stores))
	for n := range stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return "Available stores: " + strings.Join(names, ", ")
}

// expandHome rewrites a leading "~/" in path options.
func expandHome(o *invoker.Options, home string) {
	expand := func(p *string) {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}
	for _, p := range []*string{
		&o.LocalRepository, &o.UserSettings, &o.GlobalSettings, &o.GlobalToolchains,
		&o.JavaHome, &o.MavenHome, &o.MavenExecutable,
	} {
		expand(p)
	}
	for alias, path := range o.LocalRepositories {
		expand(&path)
		o.LocalRepositories[alias] = path
	}
}

// defaultRepositories resolves a blank local repository, or a blank alias,
// to <home>/.m2/repository.
func defaultRepositories(o *invoker.Options, home string) {
	if strings.TrimSpace(o.LocalRepository) == "" {
		o.LocalRepository = invoker.DefaultLocalRepository(home)
	}
	for alias, path := range o.LocalRepositories {
		if strings.TrimSpace(path) == "" {
			o.LocalRepositories[alias] = invoker.DefaultLocalRepository(home)
		}
	}
}

// Options returns the effective maven.invoker options.
func (c *Config) Options() (invoker.Options, error) {
	if c.Definition == nil {
		return invoker.Options{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}
	return c.Definition.Maven.Invoker, nil
}
