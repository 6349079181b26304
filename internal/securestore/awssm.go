package securestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of the AWS Secrets Manager client this
// store uses. It exists so tests can inject a fake client.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// AWSSecretsManager is a Store backed by AWS Secrets Manager, one managed
// secret per key.
type AWSSecretsManager struct {
	client SecretsManagerAPI
}

// AWSConfig configures the AWS Secrets Manager store.
type AWSConfig struct {
	Region string

	// Endpoint overrides the service endpoint, for LocalStack or testing.
	Endpoint string

	// Static credentials, for LocalStack or testing. When empty the default
	// credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

// AWSOption is a functional option for the AWS store.
type AWSOption func(*AWSSecretsManager)

// WithSecretsManagerClient injects a custom client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) AWSOption {
	return func(s *AWSSecretsManager) {
		s.client = client
	}
}

// NewAWSSecretsManager creates an AWS Secrets Manager store.
func NewAWSSecretsManager(ctx context.Context, cfg AWSConfig, opts ...AWSOption) (*AWSSecretsManager, error) {
	s := &AWSSecretsManager{}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	configOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	s.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	return s, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *AWSSecretsManager) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(key),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}
	if out.SecretString == nil {
		return "", ErrNotFound
	}
	return *out.SecretString, nil
}

// Set stores value under key, creating the managed secret on first write.
func (s *AWSSecretsManager) Set(ctx context.Context, key, value string) error {
	_, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(key),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		return fmt.Errorf("failed to create secret %s: %w", key, err)
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(key),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("failed to update secret %s: %w", key, err)
	}
	return nil
}

// Delete removes the secret under key without a recovery window, so a
// cleanup sweep takes effect immediately. Absent keys are a no-op.
func (s *AWSSecretsManager) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(key),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete secret %s: %w", key, err)
	}
	return nil
}

// Keys lists every secret name, paginating through the account's secrets.
func (s *AWSSecretsManager) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	var nextToken *string

	for {
		out, err := s.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
			MaxResults: aws.Int32(100),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list secrets: %w", err)
		}

		for _, secret := range out.SecretList {
			if secret.Name != nil {
				keys = append(keys, *secret.Name)
			}
		}

		if out.NextToken == nil {
			return keys, nil
		}
		nextToken = out.NextToken
	}
}

var _ Store = (*AWSSecretsManager)(nil)
