package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/internal/logging"
	"github.com/systmms/mvnops/pkg/invoker"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mvnops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cfg := &Config{
		Path:      filepath.Join(t.TempDir(), "absent.yaml"),
		Home:      home,
		LookupEnv: noEnv,
		Logger:    logging.New(false, true),
	}
	require.NoError(t, cfg.Load())

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, invoker.DefaultOptions(home), opts)
	assert.Equal(t, "file", cfg.Definition.History.Backend)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	path := writeConfig(t, `version: 0
maven:
  invoker:
    batch_mode: true
    threads: 4
    recursive: false
    reactor_failure_behavior: fail-at-end
    local_repository: ~/custom-repo
    local_repositories:
      scratch: ~/scratch
    profiles: [release, sign]
    properties:
      skipTests: true
      revision: 1.2
    timeout: 90s
credentials:
  stores:
    vault:
      type: aws.secretsmanager
      region: eu-west-1
  servers:
    releases:
      username: {literal: deployer}
      password: {store: vault, key: nexus#.password}
history:
  backend: none
`)
	cfg := &Config{Path: path, Home: home, LookupEnv: noEnv}
	require.NoError(t, cfg.Load())

	o := cfg.Definition.Maven.Invoker
	assert.True(t, o.BatchMode)
	assert.False(t, o.Recursive)
	assert.True(t, o.ShellEnvironmentInherited, "unset options keep their defaults")
	assert.Equal(t, 4, o.Threads)
	assert.Equal(t, invoker.FailAtEnd, o.ReactorFailureBehavior)
	assert.Equal(t, filepath.Join(home, "custom-repo"), o.LocalRepository)
	assert.Equal(t, filepath.Join(home, "scratch"), o.LocalRepositories["scratch"])
	assert.Equal(t, []string{"release", "sign"}, o.Profiles)
	assert.Equal(t, map[string]string{"skipTests": "true", "revision": "1.2"}, o.Properties)
	assert.Equal(t, 90*time.Second, o.Timeout)

	store := cfg.Definition.Credentials.Stores["vault"]
	assert.Equal(t, "aws.secretsmanager", store.Type)
	assert.Equal(t, "eu-west-1", store.Config["region"])
	assert.Equal(t, "deployer", cfg.Definition.Credentials.Servers["releases"].Username.Literal)
	assert.Equal(t, "none", cfg.Definition.History.Backend)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "maven:\n  invoker:\n    threads: 2\n    offline: false\n")
	cfg := &Config{
		Path: path,
		Home: t.TempDir(),
		LookupEnv: envMap(map[string]string{
			"MAVEN_INVOKER_THREADS":                "8",
			"MAVEN_INVOKER_OFFLINE":                "true",
			"MAVEN_INVOKER_PROFILES":               "a, b,,c",
			"MAVEN_INVOKER_PROPERTIES":             "x=1,y=2",
			"MAVEN_INVOKER_TIMEOUT":                "5m",
			"MAVEN_INVOKER_MAVEN_OPTS":             "-Xmx1g -Dfoo=bar",
			"MAVEN_INVOKER_GLOBAL_CHECKSUM_POLICY": "fail",
		}),
	}
	require.NoError(t, cfg.Load())

	o := cfg.Definition.Maven.Invoker
	assert.Equal(t, 8, o.Threads)
	assert.True(t, o.Offline)
	assert.Equal(t, []string{"a", "b", "c"}, o.Profiles)
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, o.Properties)
	assert.Equal(t, 5*time.Minute, o.Timeout)
	assert.Equal(t, "-Xmx1g -Dfoo=bar", o.MavenOpts)
	assert.Equal(t, invoker.ChecksumFail, o.GlobalChecksumPolicy)
}

func TestLoad_BlankLocalRepositoryUsesDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"blank in file", "maven:\n  invoker:\n    local_repository: \"\"\n    local_repositories:\n      scratch: \" \"\n", nil},
		{"blank in env", "maven:\n  invoker:\n    local_repository: /srv/repo\n", map[string]string{
			"MAVEN_INVOKER_LOCAL_REPOSITORY":   "",
			"MAVEN_INVOKER_LOCAL_REPOSITORIES": "scratch=",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			home := t.TempDir()
			cfg := &Config{Path: writeConfig(t, tt.content), Home: home, LookupEnv: envMap(tt.env)}
			require.NoError(t, cfg.Load())

			o := cfg.Definition.Maven.Invoker
			want := filepath.Join(home, ".m2", "repository")
			assert.Equal(t, want, o.LocalRepository)
			assert.Equal(t, want, o.LocalRepositories["scratch"])
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		env      map[string]string
		contains string
	}{
		{"bad yaml", "maven: [unclosed", nil, "invalid YAML"},
		{"unknown option", "maven:\n  invoker:\n    thread: 2\n", nil, "schema validation failed"},
		{"wrong type", "maven:\n  invoker:\n    offline: sometimes\n", nil, "schema validation failed"},
		{"bad threads", "maven:\n  invoker:\n    threads: 0\n", nil, "threads must be at least 1"},
		{"bad enum", "maven:\n  invoker:\n    reactor_failure_behavior: explode\n", nil, "unknown reactor failure behavior"},
		{"bad env bool", "", map[string]string{"MAVEN_INVOKER_BATCH_MODE": "maybe"}, "MAVEN_INVOKER_BATCH_MODE"},
		{"bad env map", "", map[string]string{"MAVEN_INVOKER_PROPERTIES": "novalue"}, "expected key=value"},
		{"unsupported version", "version: 3\n", nil, "unsupported configuration version"},
		{"unknown store", `credentials:
  servers:
    releases:
      username: {literal: u}
      password: {store: missing, key: k}
`, nil, "unknown secret store"},
		{"literal and store", `credentials:
  stores:
    e: {type: env}
  servers:
    releases:
      username: {literal: u, store: e, key: k}
      password: {literal: p}
`, nil, "either literal or store"},
		{"colliding server ids", `credentials:
  servers:
    nexus-releases:
      username: {literal: a}
      password: {literal: b}
    nexus.releases:
      username: {literal: c}
      password: {literal: d}
`, nil, "collides with 'nexus-releases'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{Path: writeConfig(t, tt.content), Home: t.TempDir(), LookupEnv: envMap(tt.env)}
			err := cfg.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)

			var ce dserrors.ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestStarterTemplateLoads(t *testing.T) {
	t.Parallel()

	cfg := &Config{Path: writeConfig(t, StarterTemplate), Home: t.TempDir(), LookupEnv: noEnv}
	require.NoError(t, cfg.Load())
	assert.True(t, cfg.Definition.Maven.Invoker.BatchMode)
	assert.Equal(t, "env", cfg.Definition.Credentials.Stores["env"].Type)
}

func TestOptionsBeforeLoad(t *testing.T) {
	t.Parallel()

	_, err := (&Config{}).Options()
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MAVEN_INVOKER_LOCAL_REPOSITORY", EnvName("local_repository"))
}
