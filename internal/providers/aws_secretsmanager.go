package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/google/uuid"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/provider"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// AWSSecretsManagerProvider resolves keys as secret names or ARNs.
type AWSSecretsManagerProvider struct {
	name   string
	client SecretsManagerAPI
}

type SecretsManagerOption func(*AWSSecretsManagerProvider)

func WithSecretsManagerClient(c SecretsManagerAPI) SecretsManagerOption {
	return func(p *AWSSecretsManagerProvider) { p.client = c }
}

func NewAWSSecretsManagerProvider(name string, cfg map[string]interface{}, opts ...SecretsManagerOption) (*AWSSecretsManagerProvider, error) {
	p := &AWSSecretsManagerProvider{name: name}
	for _, opt := range opts {
		opt(p)
	}
	if p.client != nil {
		return p, nil
	}

	s := parseAWSSettings(cfg)
	awsCfg, err := loadAWSConfig(context.Background(), s)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*secretsmanager.Options)
	if s.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) { o.BaseEndpoint = aws.String(s.Endpoint) })
	}
	p.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	return p, nil
}

func (p *AWSSecretsManagerProvider) Name() string { return p.name }

// Resolve reads the current value, or the version named by ref.Version.
// A UUID selects a version id, anything else a staging label.
func (p *AWSSecretsManagerProvider) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(ref.Key)}
	if ref.Version != "" && ref.Version != "latest" {
		if _, err := uuid.Parse(ref.Version); err == nil {
			input.VersionId = aws.String(ref.Version)
		} else {
			input.VersionStage = aws.String(ref.Version)
		}
	}

	out, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return provider.SecretValue{}, provider.NotFoundError{Provider: p.name, Key: ref.Key}
		}
		return provider.SecretValue{}, dserrors.ProviderError("aws.secretsmanager", "resolve", err)
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case out.SecretBinary != nil:
		value = string(out.SecretBinary)
	default:
		return provider.SecretValue{}, fmt.Errorf("secret %q has no value", ref.Key)
	}

	sv := provider.SecretValue{Value: value, Version: aws.ToString(out.VersionId)}
	if out.CreatedDate != nil {
		sv.UpdatedAt = *out.CreatedDate
	}
	return sv, nil
}

func (p *AWSSecretsManagerProvider) Validate(ctx context.Context) error {
	if _, err := p.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{MaxResults: aws.Int32(1)}); err != nil {
		return provider.AuthError{Provider: p.name, Message: err.Error()}
	}
	return nil
}

func NewAWSSecretsManagerProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewAWSSecretsManagerProvider(name, cfg)
}
