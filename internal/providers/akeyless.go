package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	akeyless "github.com/akeylesslabs/akeyless-go/v3"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/provider"
)

const (
	defaultAkeylessGateway = "https://api.akeyless.io"
	akeylessTokenTTL       = 25 * time.Minute
)

// ErrAkeylessSecretNotFound is returned by an AkeylessClient when the path has no value.
var ErrAkeylessSecretNotFound = errors.New("akeyless secret not found")

// AkeylessClient is the subset of the Akeyless API used here.
type AkeylessClient interface {
	Authenticate(ctx context.Context) (string, error)
	GetSecret(ctx context.Context, token, path string) (string, error)
}

type akeylessSDKClient struct {
	api       *akeyless.APIClient
	accessID  string
	accessKey string
	method    string
}

func newAkeylessSDKClient(gateway, accessID, accessKey, method string) *akeylessSDKClient {
	cfg := akeyless.NewConfiguration()
	cfg.Servers = []akeyless.ServerConfiguration{{URL: gateway}}
	return &akeylessSDKClient{
		api:       akeyless.NewAPIClient(cfg),
		accessID:  accessID,
		accessKey: accessKey,
		method:    method,
	}
}

func (c *akeylessSDKClient) Authenticate(ctx context.Context) (string, error) {
	body := akeyless.NewAuthWithDefaults()
	body.SetAccessId(c.accessID)
	switch c.method {
	case "", "api_key":
		body.SetAccessKey(c.accessKey)
	case "aws_iam", "azure_ad", "gcp":
		body.SetAccessType(c.method)
	default:
		return "", fmt.Errorf("unsupported akeyless auth method %q", c.method)
	}

	res, _, err := c.api.V2Api.Auth(ctx).Body(*body).Execute()
	if err != nil {
		return "", err
	}
	return res.GetToken(), nil
}

func (c *akeylessSDKClient) GetSecret(ctx context.Context, token, path string) (string, error) {
	body := akeyless.NewGetSecretValue([]string{path})
	body.SetToken(token)

	res, _, err := c.api.V2Api.GetSecretValue(ctx).Body(*body).Execute()
	if err != nil {
		return "", err
	}
	v, ok := res[path]
	if !ok {
		return "", ErrAkeylessSecretNotFound
	}
	return v, nil
}

// AkeylessProvider resolves keys as item paths. Tokens are cached until
// shortly before they expire.
type AkeylessProvider struct {
	name   string
	client AkeylessClient
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

type AkeylessOption func(*AkeylessProvider)

func WithAkeylessClient(c AkeylessClient) AkeylessOption {
	return func(p *AkeylessProvider) { p.client = c }
}

func NewAkeylessProvider(name string, cfg map[string]interface{}, opts ...AkeylessOption) (*AkeylessProvider, error) {
	p := &AkeylessProvider{name: name, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.client != nil {
		return p, nil
	}

	accessID := stringOpt(cfg, "access_id")
	if accessID == "" {
		return nil, dserrors.ConfigError{
			Field:      "access_id",
			Message:    "access_id is required for akeyless",
			Suggestion: "Create an auth method in Akeyless and copy its access ID",
		}
	}
	gateway := stringOpt(cfg, "gateway_url")
	if gateway == "" {
		gateway = defaultAkeylessGateway
	}
	p.client = newAkeylessSDKClient(gateway, accessID, stringOpt(cfg, "access_key"), stringOpt(cfg, "auth_method"))
	return p, nil
}

func (p *AkeylessProvider) Name() string { return p.name }

func (p *AkeylessProvider) authToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expires) {
		return p.token, nil
	}
	token, err := p.client.Authenticate(ctx)
	if err != nil {
		return "", provider.AuthError{Provider: p.name, Message: err.Error()}
	}
	p.token = token
	p.expires = p.now().Add(akeylessTokenTTL)
	return token, nil
}

func (p *AkeylessProvider) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	token, err := p.authToken(ctx)
	if err != nil {
		return provider.SecretValue{}, err
	}
	value, err := p.client.GetSecret(ctx, token, ref.Key)
	if err != nil {
		if errors.Is(err, ErrAkeylessSecretNotFound) {
			return provider.SecretValue{}, provider.NotFoundError{Provider: p.name, Key: ref.Key}
		}
		return provider.SecretValue{}, dserrors.ProviderError("akeyless", "resolve", err)
	}
	return provider.SecretValue{Value: value, UpdatedAt: p.now()}, nil
}

func (p *AkeylessProvider) Validate(ctx context.Context) error {
	_, err := p.authToken(ctx)
	return err
}

func NewAkeylessProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewAkeylessProvider(name, cfg)
}
