package fakes

import (
	"context"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeAzureKeyVaultClient serves secrets keyed by name and by name/version.
type FakeAzureKeyVaultClient struct {
	VaultURL string
	Secrets  map[string]azsecrets.Secret
	Errors   map[string]error
}

func NewFakeAzureKeyVaultClient(vaultURL string) *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		VaultURL: vaultURL,
		Secrets:  make(map[string]azsecrets.Secret),
		Errors:   make(map[string]error),
	}
}

func (f *FakeAzureKeyVaultClient) AddSecretWithVersion(name, value, version string) {
	now := time.Now()
	id := azsecrets.ID(f.VaultURL + "secrets/" + name + "/" + version)
	s := azsecrets.Secret{
		ID:         &id,
		Value:      &value,
		Attributes: &azsecrets.SecretAttributes{Updated: &now},
	}
	f.Secrets[name] = s
	f.Secrets[name+"/"+version] = s
}

func (f *FakeAzureKeyVaultClient) GetSecret(_ context.Context, name, version string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	key := name
	if version != "" {
		key += "/" + version
	}
	if err, ok := f.Errors[key]; ok {
		return azsecrets.GetSecretResponse{}, err
	}
	s, ok := f.Secrets[key]
	if !ok {
		return azsecrets.GetSecretResponse{}, AzureResponseError(http.StatusNotFound, "SecretNotFound")
	}
	return azsecrets.GetSecretResponse{Secret: s}, nil
}

// AzureResponseError builds the error type returned by the Azure SDK.
func AzureResponseError(statusCode int, code string) error {
	return &azcore.ResponseError{StatusCode: statusCode, ErrorCode: code}
}
