package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/provider"
)

// GCPSecretManagerAPI is the subset of Secret Manager used here.
type GCPSecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
	ListFirstSecret(ctx context.Context, parent string) error
}

// gcpClient adapts the generated client to GCPSecretManagerAPI.
type gcpClient struct {
	c *secretmanager.Client
}

func (g gcpClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return g.c.AccessSecretVersion(ctx, req)
}

func (g gcpClient) ListFirstSecret(ctx context.Context, parent string) error {
	it := g.c.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{Parent: parent, PageSize: 1})
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}

// GCPSecretManagerProvider resolves keys as secret ids in the configured
// project, or as full "projects/..." resource names.
type GCPSecretManagerProvider struct {
	name      string
	projectID string
	client    GCPSecretManagerAPI
}

type GCPOption func(*GCPSecretManagerProvider)

func WithGCPClient(c GCPSecretManagerAPI) GCPOption {
	return func(p *GCPSecretManagerProvider) { p.client = c }
}

func NewGCPSecretManagerProvider(name string, cfg map[string]interface{}, opts ...GCPOption) (*GCPSecretManagerProvider, error) {
	p := &GCPSecretManagerProvider{name: name, projectID: stringOpt(cfg, "project_id")}
	if p.projectID == "" {
		p.projectID = gcpProjectFromEnv()
	}
	if p.projectID == "" {
		return nil, dserrors.ConfigError{
			Field:      "project_id",
			Message:    "project_id is required for gcp.secretmanager",
			Suggestion: "Set project_id on the store or export GOOGLE_CLOUD_PROJECT",
		}
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.client != nil {
		return p, nil
	}

	clientOpts, err := gcpClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	c, err := secretmanager.NewClient(context.Background(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}
	p.client = gcpClient{c: c}
	return p, nil
}

func gcpClientOptions(cfg map[string]interface{}) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	if path := stringOpt(cfg, "credentials_file"); path != "" {
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, path[2:])
		}
		opts = append(opts, option.WithCredentialsFile(path))
	}

	if target := stringOpt(cfg, "impersonate_service_account"); target != "" {
		ts, err := impersonate.CredentialsTokenSource(context.Background(), impersonate.CredentialsConfig{
			TargetPrincipal: target,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to impersonate %s: %w", target, err)
		}
		opts = []option.ClientOption{option.WithTokenSource(ts)}
	}
	return opts, nil
}

func gcpProjectFromEnv() string {
	for _, k := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func (p *GCPSecretManagerProvider) Name() string { return p.name }

func (p *GCPSecretManagerProvider) resourceName(key, version string) string {
	if version == "" {
		version = "latest"
	}
	if strings.HasPrefix(key, "projects/") {
		if strings.Contains(key, "/versions/") {
			return key
		}
		return key + "/versions/" + version
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", p.projectID, key, version)
}

func (p *GCPSecretManagerProvider) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	name := p.resourceName(ref.Key, ref.Version)
	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return provider.SecretValue{}, provider.NotFoundError{Provider: p.name, Key: name}
		case codes.PermissionDenied, codes.Unauthenticated:
			return provider.SecretValue{}, provider.AuthError{Provider: p.name, Message: err.Error()}
		}
		return provider.SecretValue{}, dserrors.ProviderError("gcp.secretmanager", "resolve", err)
	}

	sv := provider.SecretValue{Version: resp.GetName()}
	if resp.GetPayload() != nil {
		sv.Value = string(resp.GetPayload().GetData())
	}
	if i := strings.LastIndex(sv.Version, "/"); i != -1 {
		sv.Version = sv.Version[i+1:]
	}
	return sv, nil
}

func (p *GCPSecretManagerProvider) Validate(ctx context.Context) error {
	if err := p.client.ListFirstSecret(ctx, "projects/"+p.projectID); err != nil {
		return provider.AuthError{Provider: p.name, Message: err.Error()}
	}
	return nil
}

func NewGCPSecretManagerProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewGCPSecretManagerProvider(name, cfg)
}
