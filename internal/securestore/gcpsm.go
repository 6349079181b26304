package securestore

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPSecretManager is a Store backed by Google Cloud Secret Manager, one
// secret per key, reading the latest version.
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
}

// GCPConfig configures the GCP Secret Manager store.
type GCPConfig struct {
	ProjectID string

	// ServiceAccountKeyPath optionally points at a credentials JSON file;
	// when empty, application default credentials apply.
	ServiceAccountKeyPath string
}

// NewGCPSecretManager creates a GCP Secret Manager store.
func NewGCPSecretManager(ctx context.Context, cfg GCPConfig) (*GCPSecretManager, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required for GCP Secret Manager")
	}

	var clientOptions []option.ClientOption
	if cfg.ServiceAccountKeyPath != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(cfg.ServiceAccountKeyPath))
	}

	client, err := secretmanager.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}

	return &GCPSecretManager{
		client:    client,
		projectID: cfg.ProjectID,
	}, nil
}

// Close releases the underlying gRPC connection.
func (s *GCPSecretManager) Close() error {
	return s.client.Close()
}

// GCP secret IDs allow [A-Za-z0-9_-] but not dots, while this system's keys
// are dot-separated. Keys never contain underscores (kind segments use
// hyphens, UUIDs are hex and hyphens), so a dot<->underscore swap is an
// invertible mapping. Foreign secrets that natively contain underscores
// surface with dots from Keys; they fail the owned-prefix check and are
// ignored upstream either way.
func gcpSecretID(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}

func gcpKeyFromSecretID(id string) string {
	return strings.ReplaceAll(id, "_", ".")
}

func (s *GCPSecretManager) secretName(key string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, gcpSecretID(key))
}

// Get returns the latest version of the secret under key, or ErrNotFound.
func (s *GCPSecretManager) Get(ctx context.Context, key string) (string, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretName(key) + "/versions/latest",
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to access secret %s: %w", key, err)
	}
	return string(result.Payload.Data), nil
}

// Set stores value as a new version of the secret under key, creating the
// secret on first write.
func (s *GCPSecretManager) Set(ctx context.Context, key, value string) error {
	_, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + s.projectID,
		SecretId: gcpSecretID(key),
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to create secret %s: %w", key, err)
	}

	_, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(key),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(value),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add secret version for %s: %w", key, err)
	}
	return nil
}

// Delete removes the secret under key and all its versions. Absent keys are
// a no-op.
func (s *GCPSecretManager) Delete(ctx context.Context, key string) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(key),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("failed to delete secret %s: %w", key, err)
	}
	return nil
}

// Keys lists every secret in the project, mapped back to key form.
func (s *GCPSecretManager) Keys(ctx context.Context) ([]string, error) {
	it := s.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: "projects/" + s.projectID,
	})

	var keys []string
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list secrets: %w", err)
		}

		// Names come back as projects/<number>/secrets/<id>.
		name := secret.Name
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		keys = append(keys, gcpKeyFromSecretID(name))
	}
}

var _ Store = (*GCPSecretManager)(nil)
