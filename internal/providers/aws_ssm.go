package providers

import (
	"context"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/provider"
)

// SSMAPI is the subset of the Parameter Store client used here.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// AWSSSMProvider resolves keys as parameter names. SecureString values are
// always decrypted.
type AWSSSMProvider struct {
	name   string
	client SSMAPI
}

type SSMOption func(*AWSSSMProvider)

func WithSSMClient(c SSMAPI) SSMOption {
	return func(p *AWSSSMProvider) { p.client = c }
}

func NewAWSSSMProvider(name string, cfg map[string]interface{}, opts ...SSMOption) (*AWSSSMProvider, error) {
	p := &AWSSSMProvider{name: name}
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
	var clientOpts []func(*ssm.Options)
	if s.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) { o.BaseEndpoint = aws.String(s.Endpoint) })
	}
	p.client = ssm.NewFromConfig(awsCfg, clientOpts...)
	return p, nil
}

func (p *AWSSSMProvider) Name() string { return p.name }

// Resolve reads a parameter. ref.Version selects a version number or label
// using the name:selector form understood by Parameter Store.
func (p *AWSSSMProvider) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	name := ref.Key
	if ref.Version != "" && ref.Version != "latest" {
		name += ":" + ref.Version
	}

	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var nf *types.ParameterNotFound
		if errors.As(err, &nf) {
			return provider.SecretValue{}, provider.NotFoundError{Provider: p.name, Key: name}
		}
		return provider.SecretValue{}, dserrors.ProviderError("aws.ssm", "resolve", err)
	}
	if out.Parameter == nil {
		return provider.SecretValue{}, provider.NotFoundError{Provider: p.name, Key: name}
	}

	sv := provider.SecretValue{
		Value:   aws.ToString(out.Parameter.Value),
		Version: strconv.FormatInt(out.Parameter.Version, 10),
	}
	if out.Parameter.LastModifiedDate != nil {
		sv.UpdatedAt = *out.Parameter.LastModifiedDate
	}
	return sv, nil
}

func (p *AWSSSMProvider) Validate(ctx context.Context) error {
	if _, err := p.client.DescribeParameters(ctx, &ssm.DescribeParametersInput{MaxResults: aws.Int32(1)}); err != nil {
		return provider.AuthError{Provider: p.name, Message: err.Error()}
	}
	return nil
}

func NewAWSSSMProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewAWSSSMProvider(name, cfg)
}
