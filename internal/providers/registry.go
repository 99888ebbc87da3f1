package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/pkg/provider"
)

// Factory builds a provider from the store's free-form configuration.
type Factory func(name string, cfg map[string]interface{}) (provider.Provider, error)

// Registry maps store types to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with every built-in store type.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register("literal", NewLiteralProviderFactory)
	r.Register("env", NewEnvProviderFactory)
	r.Register("keychain", NewKeychainProviderFactory)
	r.Register("aws.secretsmanager", NewAWSSecretsManagerProviderFactory)
	r.Register("aws.ssm", NewAWSSSMProviderFactory)
	r.Register("gcp.secretmanager", NewGCPSecretManagerProviderFactory)
	r.Register("azure.keyvault", NewAzureKeyVaultProviderFactory)
	r.Register("akeyless", NewAkeylessProviderFactory)

	return r
}

// Register adds or replaces the factory for a store type.
func (r *Registry) Register(storeType string, f Factory) {
	r.factories[storeType] = f
}

// Create instantiates the named store. Every store gains support for
// '#.field' selectors on JSON values.
func (r *Registry) Create(name string, store config.StoreConfig) (provider.Provider, error) {
	f, ok := r.factories[store.Type]
	if !ok {
		return nil, fmt.Errorf("unknown store type %q for store %q (supported: %s)",
			store.Type, name, strings.Join(r.SupportedTypes(), ", "))
	}
	p, err := f(name, store.Config)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", name, err)
	}
	return &fieldSelector{inner: p}, nil
}

// SupportedTypes returns the registered store types, sorted.
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) IsSupported(storeType string) bool {
	_, ok := r.factories[storeType]
	return ok
}

// fieldSelector strips a '#.field' suffix from keys, resolves the secret
// and extracts the field from its JSON value.
type fieldSelector struct {
	inner provider.Provider
}

func (f *fieldSelector) Name() string { return f.inner.Name() }

func (f *fieldSelector) Validate(ctx context.Context) error { return f.inner.Validate(ctx) }

func (f *fieldSelector) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	key, field := SplitKey(ref.Key)
	ref.Key = key

	v, err := f.inner.Resolve(ctx, ref)
	if err != nil || field == "" {
		return v, err
	}
	extracted, err := ExtractField(v.Value, field)
	if err != nil {
		return provider.SecretValue{}, fmt.Errorf("%s#%s: %w", key, field, err)
	}
	v.Value = extracted
	return v, nil
}

// Unwrap exposes the underlying store, mainly for tests.
func (f *fieldSelector) Unwrap() provider.Provider { return f.inner }

func stringOpt(cfg map[string]interface{}, key string) string {
	if v, ok := cfg[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func boolOpt(cfg map[string]interface{}, key string) bool {
	v, _ := cfg[key].(bool)
	return v
}
