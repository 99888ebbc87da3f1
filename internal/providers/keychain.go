package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/systmms/mvnops/pkg/provider"
)

const defaultKeychainService = "mvnops"

// KeychainClient is the subset of the OS keyring used here.
type KeychainClient interface {
	Get(service, account string) (string, error)
}

type osKeyring struct{}

func (osKeyring) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

// KeychainProvider reads items from the OS keychain (macOS Keychain,
// Secret Service on Linux, Windows Credential Manager). Keys are account
// names under the configured service.
type KeychainProvider struct {
	name    string
	service string
	client  KeychainClient
}

type KeychainOption func(*KeychainProvider)

func WithKeychainClient(c KeychainClient) KeychainOption {
	return func(p *KeychainProvider) { p.client = c }
}

func NewKeychainProvider(name, service string, opts ...KeychainOption) *KeychainProvider {
	if service == "" {
		service = defaultKeychainService
	}
	p := &KeychainProvider{name: name, service: service, client: osKeyring{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (k *KeychainProvider) Name() string { return k.name }

func (k *KeychainProvider) Resolve(_ context.Context, ref provider.Reference) (provider.SecretValue, error) {
	value, err := k.client.Get(k.service, ref.Key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return provider.SecretValue{}, provider.NotFoundError{Provider: k.name, Key: k.service + "/" + ref.Key}
		}
		return provider.SecretValue{}, fmt.Errorf("keychain lookup %s/%s: %w", k.service, ref.Key, err)
	}
	return provider.SecretValue{Value: value, UpdatedAt: time.Now()}, nil
}

// Validate reads a sentinel item from the keyring. A missing item still
// proves the keyring backend is reachable.
func (k *KeychainProvider) Validate(context.Context) error {
	_, err := k.client.Get(k.service, "mvnops-healthcheck")
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return provider.AuthError{Provider: k.name, Message: err.Error()}
}

func NewKeychainProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewKeychainProvider(name, stringOpt(cfg, "service")), nil
}
