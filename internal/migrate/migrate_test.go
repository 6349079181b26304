package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallmain/unichat-secrets/internal/auth"
	"github.com/smallmain/unichat-secrets/internal/config"
	"github.com/smallmain/unichat-secrets/internal/logging"
	"github.com/smallmain/unichat-secrets/internal/secretref"
	"github.com/smallmain/unichat-secrets/internal/secrets"
	"github.com/smallmain/unichat-secrets/internal/securestore"
)

// recordingConfig wraps a real settings store and counts writes, so tests
// can assert that no-op migrations skip persistence entirely.
type recordingConfig struct {
	*config.Store
	rawWrites   int
	typedWrites int
}

func (r *recordingConfig) SetRawEndpoints(raw []any) error {
	r.rawWrites++
	return r.Store.SetRawEndpoints(raw)
}

func (r *recordingConfig) SetEndpoints(endpoints []auth.EndpointConfig) error {
	r.typedWrites++
	return r.Store.SetEndpoints(endpoints)
}

func newTestMigrator(t *testing.T) (*Migrator, *recordingConfig) {
	t.Helper()
	cfg := &recordingConfig{Store: config.NewStore(t.TempDir(), nil)}
	return &Migrator{
		Config:  cfg,
		Secrets: secrets.New(securestore.NewMemory(), nil),
		Methods: auth.NewRegistry(),
		Logger:  logging.New(false, true),
	}, cfg
}

func TestMigrateAPIKeyToAuth(t *testing.T) {
	m, cfg := newTestMigrator(t)

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		// Legacy field, no auth: synthesize one.
		map[string]any{"name": "x", "apiKey": "sk-legacy"},
		// Legacy field alongside existing auth: strip the field, keep auth.
		map[string]any{
			"name":   "y",
			"apiKey": "sk-stray",
			"auth":   map[string]any{"method": "oauth2", "clientId": "app"},
		},
		// Blank legacy value: just remove it.
		map[string]any{"name": "z", "apiKey": ""},
		// Untouched records pass through.
		map[string]any{"name": "w"},
		"not-a-record",
	}))
	cfg.rawWrites = 0

	changed, err := m.MigrateAPIKeyToAuth()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, cfg.rawWrites)

	raw, err := cfg.RawEndpoints()
	require.NoError(t, err)
	require.Len(t, raw, 5)

	x := raw[0].(map[string]any)
	assert.NotContains(t, x, "apiKey")
	assert.Equal(t, map[string]any{"method": "api-key", "apiKey": "sk-legacy"}, x["auth"])

	y := raw[1].(map[string]any)
	assert.NotContains(t, y, "apiKey")
	assert.Equal(t, map[string]any{"method": "oauth2", "clientId": "app"}, y["auth"])

	z := raw[2].(map[string]any)
	assert.NotContains(t, z, "apiKey")
	assert.NotContains(t, z, "auth")

	assert.Equal(t, map[string]any{"name": "w"}, raw[3])
	assert.Equal(t, "not-a-record", raw[4])
}

func TestMigrateAPIKeyToAuthIdempotent(t *testing.T) {
	m, cfg := newTestMigrator(t)

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{"name": "x", "apiKey": "sk-legacy"},
	}))

	changed, err := m.MigrateAPIKeyToAuth()
	require.NoError(t, err)
	require.True(t, changed)

	cfg.rawWrites = 0
	changed, err = m.MigrateAPIKeyToAuth()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, cfg.rawWrites, "no-op migration must not write")
}

func TestMigrateAPIKeyStorageMovesSecretsToStore(t *testing.T) {
	ctx := context.Background()
	m, cfg := newTestMigrator(t)

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{
			"name": "openai",
			"auth": map[string]any{"method": "api-key", "apiKey": "sk-plain"},
		},
		map[string]any{"name": "local"},
	}))

	changed, err := m.MigrateAPIKeyStorage(ctx, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	endpoints, err := cfg.Endpoints()
	require.NoError(t, err)
	require.Len(t, endpoints, 2)

	ref, _ := endpoints[0].Auth["apiKey"].(string)
	require.True(t, secretref.IsReference(ref))

	value, found, err := m.Secrets.GetAPIKey(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sk-plain", value)
}

func TestMigrateAPIKeyStorageIdempotent(t *testing.T) {
	ctx := context.Background()
	m, cfg := newTestMigrator(t)

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{
			"name": "openai",
			"auth": map[string]any{"method": "api-key", "apiKey": "sk-plain"},
		},
	}))

	changed, err := m.MigrateAPIKeyStorage(ctx, nil)
	require.NoError(t, err)
	require.True(t, changed)

	cfg.typedWrites = 0
	changed, err = m.MigrateAPIKeyStorage(ctx, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, cfg.typedWrites, "no-op migration must not write")
}

// countingProgress records reports; results must match the silent run.
type countingProgress struct {
	reports []string
}

func (p *countingProgress) Report(message string) {
	p.reports = append(p.reports, message)
}

func TestMigrateAPIKeyStorageProgressIsPurePresentation(t *testing.T) {
	ctx := context.Background()
	m, cfg := newTestMigrator(t)

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{
			"name": "openai",
			"auth": map[string]any{"method": "api-key", "apiKey": "sk-plain"},
		},
	}))

	progress := &countingProgress{}
	changed, err := m.MigrateAPIKeyStorage(ctx, progress)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"Normalizing credentials for openai"}, progress.reports)
}

func TestMigrateAPIKeyStorageSkipsUnknownMethods(t *testing.T) {
	ctx := context.Background()
	m, cfg := newTestMigrator(t)

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{
			"name": "custom",
			"auth": map[string]any{"method": "hmac-v1", "secret": "raw"},
		},
	}))

	cfg.typedWrites = 0
	changed, err := m.MigrateAPIKeyStorage(ctx, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, cfg.typedWrites)
}

func TestDeleteAPIKeySecretIfUnused(t *testing.T) {
	ctx := context.Background()
	m, cfg := newTestMigrator(t)

	ref := secretref.New()
	require.NoError(t, m.Secrets.SetAPIKey(ctx, ref, "sk-v"))

	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{
			"name": "openai",
			"auth": map[string]any{"method": "api-key", "apiKey": ref},
		},
	}))

	// Still referenced: must not delete.
	require.NoError(t, m.DeleteAPIKeySecretIfUnused(ctx, ref))
	_, found, err := m.Secrets.GetAPIKey(ctx, ref)
	require.NoError(t, err)
	assert.True(t, found)

	// Reference removed from every endpoint: must delete.
	require.NoError(t, cfg.Store.SetRawEndpoints([]any{
		map[string]any{"name": "openai", "auth": map[string]any{"method": "none"}},
	}))
	require.NoError(t, m.DeleteAPIKeySecretIfUnused(ctx, ref))
	_, found, err = m.Secrets.GetAPIKey(ctx, ref)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAPIKeySecretIfUnusedIgnoresNonReferences(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMigrator(t)

	assert.NoError(t, m.DeleteAPIKeySecretIfUnused(ctx, "sk-plain"))
	assert.NoError(t, m.DeleteAPIKeySecretIfUnused(ctx, ""))
}
