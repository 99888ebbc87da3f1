package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const defaultAWSRegion = "us-east-1"

// awsSettings are the connection options shared by the AWS stores.
type awsSettings struct {
	Region          string
	Profile         string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	AssumeRole      string
	ExternalID      string
}

func parseAWSSettings(cfg map[string]interface{}) awsSettings {
	s := awsSettings{
		Region:          stringOpt(cfg, "region"),
		Profile:         stringOpt(cfg, "profile"),
		Endpoint:        stringOpt(cfg, "endpoint"),
		AccessKeyID:     stringOpt(cfg, "access_key_id"),
		SecretAccessKey: stringOpt(cfg, "secret_access_key"),
		SessionToken:    stringOpt(cfg, "session_token"),
		AssumeRole:      stringOpt(cfg, "assume_role"),
		ExternalID:      stringOpt(cfg, "external_id"),
	}
	if s.Region == "" {
		s.Region = defaultAWSRegion
	}
	return s
}

// loadAWSConfig builds an SDK config from the default chain, static keys
// when both are given, and an optional role to assume through STS.
func loadAWSConfig(ctx context.Context, s awsSettings) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(s.Profile))
	}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, s.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if s.AssumeRole != "" {
		roleProvider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), s.AssumeRole, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = "mvnops"
			if s.ExternalID != "" {
				o.ExternalID = aws.String(s.ExternalID)
			}
		})
		cfg.Credentials = aws.NewCredentialsCache(roleProvider)
	}
	return cfg, nil
}
