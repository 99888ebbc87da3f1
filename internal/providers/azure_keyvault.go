package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/provider"
)

// AzureKeyVaultAPI is the subset of the Key Vault secrets client used here.
type AzureKeyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultProvider resolves keys as secret names in one vault.
type AzureKeyVaultProvider struct {
	name     string
	vaultURL string
	client   AzureKeyVaultAPI
}

type AzureOption func(*AzureKeyVaultProvider)

func WithAzureKeyVaultClient(c AzureKeyVaultAPI) AzureOption {
	return func(p *AzureKeyVaultProvider) { p.client = c }
}

func NewAzureKeyVaultProvider(name string, cfg map[string]interface{}, opts ...AzureOption) (*AzureKeyVaultProvider, error) {
	p := &AzureKeyVaultProvider{name: name, vaultURL: stringOpt(cfg, "vault_url")}
	if p.vaultURL == "" {
		return nil, dserrors.ConfigError{
			Field:      "vault_url",
			Message:    "vault_url is required for azure.keyvault",
			Suggestion: "Use the vault URI, e.g. https://my-vault.vault.azure.net/",
		}
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.client != nil {
		return p, nil
	}

	cred, err := azureCredential(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(p.vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	p.client = client
	return p, nil
}

// azureCredential picks managed identity, a service principal secret, or
// the default credential chain, in that order of configuration.
func azureCredential(cfg map[string]interface{}) (azcore.TokenCredential, error) {
	if boolOpt(cfg, "use_managed_identity") {
		var opts *azidentity.ManagedIdentityCredentialOptions
		if id := stringOpt(cfg, "user_assigned_identity_id"); id != "" {
			opts = &azidentity.ManagedIdentityCredentialOptions{ID: azidentity.ClientID(id)}
		}
		return azidentity.NewManagedIdentityCredential(opts)
	}

	tenant, clientID, secret := stringOpt(cfg, "tenant_id"), stringOpt(cfg, "client_id"), stringOpt(cfg, "client_secret")
	if tenant != "" && clientID != "" && secret != "" {
		return azidentity.NewClientSecretCredential(tenant, clientID, secret, nil)
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

func (p *AzureKeyVaultProvider) Name() string { return p.name }

func (p *AzureKeyVaultProvider) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	version := ref.Version
	if version == "latest" {
		version = ""
	}

	resp, err := p.client.GetSecret(ctx, ref.Key, version, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusNotFound:
				return provider.SecretValue{}, provider.NotFoundError{Provider: p.name, Key: ref.Key}
			case http.StatusUnauthorized, http.StatusForbidden:
				return provider.SecretValue{}, provider.AuthError{Provider: p.name, Message: respErr.ErrorCode}
			}
		}
		return provider.SecretValue{}, dserrors.ProviderError("azure.keyvault", "resolve", err)
	}
	if resp.Value == nil {
		return provider.SecretValue{}, fmt.Errorf("secret %q has no value", ref.Key)
	}

	sv := provider.SecretValue{Value: *resp.Value}
	if resp.ID != nil {
		sv.Version = resp.ID.Version()
	}
	if resp.Attributes != nil && resp.Attributes.Updated != nil {
		sv.UpdatedAt = *resp.Attributes.Updated
	}
	return sv, nil
}

// Validate lists one page of secret properties when talking to a real vault.
func (p *AzureKeyVaultProvider) Validate(ctx context.Context) error {
	client, ok := p.client.(*azsecrets.Client)
	if !ok {
		return nil
	}
	pager := client.NewListSecretPropertiesPager(nil)
	if pager.More() {
		if _, err := pager.NextPage(ctx); err != nil {
			return provider.AuthError{Provider: p.name, Message: err.Error()}
		}
	}
	return nil
}

func NewAzureKeyVaultProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewAzureKeyVaultProvider(name, cfg)
}
