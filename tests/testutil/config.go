package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/internal/logging"
)

// TestConfigBuilder assembles an mvnops.yaml for a test and loads it the
// way the CLI does.
//
//	cfg := testutil.NewTestConfig(t).
//	    WithInvoker(map[string]any{"maven_home": fake.Home}).
//	    WithStore("env", "env", nil).
//	    Load(logger)
type TestConfigBuilder struct {
	t       *testing.T
	dir     string
	home    string
	env     map[string]string
	invoker map[string]any
	doc     map[string]any
}

// NewTestConfig starts from an empty configuration with a temporary home
// directory and history kept under it.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()
	dir := t.TempDir()
	return &TestConfigBuilder{
		t:       t,
		dir:     dir,
		home:    filepath.Join(dir, "home"),
		env:     map[string]string{},
		invoker: map[string]any{},
		doc: map[string]any{
			"version": 0,
			"history": map[string]any{"backend": "file", "dir": filepath.Join(dir, "history")},
		},
	}
}

// Home returns the injected home directory.
func (b *TestConfigBuilder) Home() string { return b.home }

// WithInvoker merges values into maven.invoker.
func (b *TestConfigBuilder) WithInvoker(values map[string]any) *TestConfigBuilder {
	for k, v := range values {
		b.invoker[k] = v
	}
	return b
}

// WithStore declares a credential store.
func (b *TestConfigBuilder) WithStore(name, storeType string, settings map[string]any) *TestConfigBuilder {
	store := map[string]any{"type": storeType}
	for k, v := range settings {
		store[k] = v
	}
	b.section("credentials", "stores")[name] = store
	return b
}

// WithServer declares repository credentials; refs are secret reference maps.
func (b *TestConfigBuilder) WithServer(id string, username, password map[string]any) *TestConfigBuilder {
	b.section("credentials", "servers")[id] = map[string]any{"username": username, "password": password}
	return b
}

// WithSection replaces a top-level section such as history or metrics.
func (b *TestConfigBuilder) WithSection(name string, values map[string]any) *TestConfigBuilder {
	b.doc[name] = values
	return b
}

// WithEnv sets a variable visible to the configuration's env lookup.
func (b *TestConfigBuilder) WithEnv(key, value string) *TestConfigBuilder {
	b.env[key] = value
	return b
}

func (b *TestConfigBuilder) section(top, sub string) map[string]any {
	parent, ok := b.doc[top].(map[string]any)
	if !ok {
		parent = map[string]any{}
		b.doc[top] = parent
	}
	child, ok := parent[sub].(map[string]any)
	if !ok {
		child = map[string]any{}
		parent[sub] = child
	}
	return child
}

// Write renders the configuration file and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()
	if len(b.invoker) > 0 {
		b.doc["maven"] = map[string]any{"invoker": b.invoker}
	}
	data, err := yaml.Marshal(b.doc)
	if err != nil {
		b.t.Fatalf("marshal test config: %v", err)
	}
	path := filepath.Join(b.dir, "mvnops.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		b.t.Fatalf("write test config: %v", err)
	}
	return path
}

// Config returns an unloaded Config pointing at the written file.
func (b *TestConfigBuilder) Config(logger *logging.Logger) *config.Config {
	b.t.Helper()
	env := b.env
	return &config.Config{
		Path:   b.Write(),
		Logger: logger,
		Home:   b.home,
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}
}

// Load writes and loads the configuration, failing the test on error.
func (b *TestConfigBuilder) Load(logger *logging.Logger) *config.Config {
	b.t.Helper()
	cfg := b.Config(logger)
	if err := cfg.Load(); err != nil {
		b.t.Fatalf("load test config: %v", err)
	}
	return cfg
}
