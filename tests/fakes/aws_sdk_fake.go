package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// FakeSecretsManagerClient serves secrets from memory.
type FakeSecretsManagerClient struct {
	mu       sync.Mutex
	Secrets  map[string]*secretsmanager.GetSecretValueOutput
	Errors   map[string]error
	ListErr  error
	Requests []*secretsmanager.GetSecretValueInput
}

func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*secretsmanager.GetSecretValueOutput),
		Errors:  make(map[string]error),
	}
}

func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	now := time.Now()
	f.Secrets[name] = &secretsmanager.GetSecretValueOutput{
		Name:          aws.String(name),
		SecretString:  aws.String(value),
		VersionId:     aws.String("c5b2a9d4-7c8e-4f3a-9d1e-2b6f8a0c4e71"),
		VersionStages: []string{"AWSCURRENT"},
		CreatedDate:   &now,
	}
}

func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	f.Secrets[name] = &secretsmanager.GetSecretValueOutput{
		Name:         aws.String(name),
		SecretBinary: value,
		VersionId:    aws.String("v1"),
	}
}

func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.Errors[name] = err
}

func (f *FakeSecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, params)
	f.mu.Unlock()

	name := aws.ToString(params.SecretId)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	out, ok := f.Secrets[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", name)),
		}
	}
	return out, nil
}

func (f *FakeSecretsManagerClient) ListSecrets(context.Context, *secretsmanager.ListSecretsInput, ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return &secretsmanager.ListSecretsOutput{}, nil
}

// FakeSSMClient serves parameters from memory.
type FakeSSMClient struct {
	Parameters  map[string]*ssmtypes.Parameter
	Errors      map[string]error
	DescribeErr error
	Requests    []*ssm.GetParameterInput
}

func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]*ssmtypes.Parameter),
		Errors:     make(map[string]error),
	}
}

// AddSecureStringParameter registers name and also name:version.
func (f *FakeSSMClient) AddSecureStringParameter(name, value string, version int64) {
	now := time.Now()
	p := &ssmtypes.Parameter{
		Name:             aws.String(name),
		Type:             ssmtypes.ParameterTypeSecureString,
		Value:            aws.String(value),
		Version:          version,
		LastModifiedDate: &now,
	}
	f.Parameters[name] = p
	f.Parameters[fmt.Sprintf("%s:%d", name, version)] = p
}

func (f *FakeSSMClient) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.Requests = append(f.Requests, params)

	name := aws.ToString(params.Name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	p, ok := f.Parameters[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String("parameter " + name + " not found")}
	}
	return &ssm.GetParameterOutput{Parameter: p}, nil
}

func (f *FakeSSMClient) DescribeParameters(context.Context, *ssm.DescribeParametersInput, ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	return &ssm.DescribeParametersOutput{}, nil
}
