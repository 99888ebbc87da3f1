package credentials

import (
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/internal/providers"
	"github.com/systmms/mvnops/pkg/provider"
)

type blockingProvider struct{}

func (blockingProvider) Name() string { return "slow" }

func (blockingProvider) Resolve(ctx context.Context, _ provider.Reference) (provider.SecretValue, error) {
	<-ctx.Done()
	return provider.SecretValue{}, ctx.Err()
}

func (blockingProvider) Validate(context.Context) error { return errors.New("unreachable") }

func literalStore(values map[string]interface{}) config.StoreConfig {
	return config.StoreConfig{Type: "literal", Config: map[string]interface{}{"values": values}}
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MVNOPS_SERVER_NEXUS_RELEASES_PASSWORD", EnvName("nexus-releases", "password"))
	assert.Equal(t, "MVNOPS_SERVER_CENTRAL_USERNAME", EnvName("central", "username"))
	assert.Equal(t, "MVNOPS_SERVER_A_B_C_USERNAME", EnvName("a.b/c", "username"))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cfg := config.CredentialsConfig{
		Stores: map[string]config.StoreConfig{
			"vault": literalStore(map[string]interface{}{
				"nexus": `{"user":"deployer","password":"s3cret"}`,
			}),
		},
		Servers: map[string]config.ServerConfig{
			"releases": {
				Username: config.SecretRef{Store: "vault", Key: "nexus#.user"},
				Password: config.SecretRef{Store: "vault", Key: "nexus#.password"},
			},
			"snapshots": {
				Username: config.SecretRef{Literal: "ci"},
				Password: config.SecretRef{Literal: "ci-pass"},
			},
		},
	}

	r := New(cfg, nil, nil)
	assert.Equal(t, []string{"releases", "snapshots"}, r.ServerIDs())

	bag, err := r.Resolve(context.Background())
	require.NoError(t, err)
	defer bag.Destroy()

	env, err := bag.Environ()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"MVNOPS_SERVER_RELEASES_PASSWORD=s3cret",
		"MVNOPS_SERVER_RELEASES_USERNAME=deployer",
		"MVNOPS_SERVER_SNAPSHOTS_PASSWORD=ci-pass",
		"MVNOPS_SERVER_SNAPSHOTS_USERNAME=ci",
	}, env)
}

func TestResolve_MissingSecret(t *testing.T) {
	t.Parallel()

	cfg := config.CredentialsConfig{
		Stores: map[string]config.StoreConfig{"vault": literalStore(nil)},
		Servers: map[string]config.ServerConfig{
			"releases": {
				Username: config.SecretRef{Literal: "u"},
				Password: config.SecretRef{Store: "vault", Key: "absent"},
			},
		},
	}

	_, err := New(cfg, nil, nil).Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server 'releases'")

	var nf provider.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolve_StoreTimeout(t *testing.T) {
	t.Parallel()

	reg := providers.NewRegistry()
	reg.Register("slow", func(string, map[string]interface{}) (provider.Provider, error) {
		return blockingProvider{}, nil
	})
	cfg := config.CredentialsConfig{
		Stores: map[string]config.StoreConfig{
			"slow": {Type: "slow", Config: map[string]interface{}{"timeout_ms": 50}},
		},
		Servers: map[string]config.ServerConfig{
			"releases": {
				Username: config.SecretRef{Store: "slow", Key: "u"},
				Password: config.SecretRef{Store: "slow", Key: "p"},
			},
		},
	}

	_, err := New(cfg, reg, nil).Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	reg := providers.NewRegistry()
	reg.Register("slow", func(string, map[string]interface{}) (provider.Provider, error) {
		return blockingProvider{}, nil
	})
	cfg := config.CredentialsConfig{
		Stores: map[string]config.StoreConfig{
			"a-literal": literalStore(nil),
			"b-slow":    {Type: "slow"},
			"c-bogus":   {Type: "bogus"},
		},
	}

	statuses := New(cfg, reg, nil).Validate(context.Background())
	require.Len(t, statuses, 3)
	assert.Equal(t, "a-literal", statuses[0].Name)
	assert.NoError(t, statuses[0].Err)
	assert.ErrorContains(t, statuses[1].Err, "unreachable")
	assert.ErrorContains(t, statuses[2].Err, "unknown store type")
}

func TestRenderSettings(t *testing.T) {
	t.Parallel()

	data, err := RenderSettings([]string{"releases"})
	require.NoError(t, err)

	var doc settingsDocument
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "releases", doc.Servers[0].ID)
	assert.Equal(t, "${env.MVNOPS_SERVER_RELEASES_USERNAME}", doc.Servers[0].Username)
	assert.Equal(t, "${env.MVNOPS_SERVER_RELEASES_PASSWORD}", doc.Servers[0].Password)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
}

func TestWriteSettings(t *testing.T) {
	t.Parallel()

	path, cleanup, err := WriteSettings([]string{"releases"}, "")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret")

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

const userSettings = `<?xml version="1.0" encoding="UTF-8"?>
<settings xmlns="http://maven.apache.org/SETTINGS/1.0.0">
  <mirrors>
    <mirror><id>corp</id><url>https://mirror.example.com/maven2</url><mirrorOf>*</mirrorOf></mirror>
  </mirrors>
  <servers>
    <server><id>releases</id><username>stale</username></server>
  </servers>
</settings>
`

func TestMergeSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
	}{
		{"existing servers", userSettings},
		{"no servers", `<settings><proxies><proxy><id>p</id></proxy></proxies></settings>`},
		{"empty servers", `<settings><profiles/><servers/></settings>`},
		{"empty root", `<settings/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			merged, err := MergeSettings([]byte(tt.base), []string{"releases", "snapshots"})
			require.NoError(t, err)

			var doc settingsDocument
			require.NoError(t, xml.Unmarshal(merged, &doc), string(merged))
			require.GreaterOrEqual(t, len(doc.Servers), 2)
			assert.Equal(t, "releases", doc.Servers[0].ID)
			assert.Equal(t, "${env.MVNOPS_SERVER_RELEASES_PASSWORD}", doc.Servers[0].Password)
			assert.Equal(t, "snapshots", doc.Servers[1].ID)
		})
	}

	merged, err := MergeSettings([]byte(userSettings), []string{"releases"})
	require.NoError(t, err)
	assert.Contains(t, string(merged), "<mirrorOf>*</mirrorOf>")
	assert.Contains(t, string(merged), "<username>stale</username>")

	_, err = MergeSettings([]byte(`<project/>`), []string{"releases"})
	assert.ErrorContains(t, err, "parse settings")

	_, err = MergeSettings([]byte(`<settings><servers>`), []string{"releases"})
	assert.Error(t, err)
}

func TestWriteSettings_MergesBase(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "settings.xml")
	require.NoError(t, os.WriteFile(base, []byte(userSettings), 0o600))

	path, cleanup, err := WriteSettings([]string{"releases"}, base)
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://mirror.example.com/maven2")
	assert.Contains(t, string(data), "${env.MVNOPS_SERVER_RELEASES_USERNAME}")

	missing, cleanupMissing, err := WriteSettings([]string{"releases"}, filepath.Join(t.TempDir(), "absent.xml"))
	require.NoError(t, err)
	defer cleanupMissing()
	data, err = os.ReadFile(missing)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "mirror")
}
