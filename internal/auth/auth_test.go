package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallmain/unichat-secrets/internal/secretref"
	"github.com/smallmain/unichat-secrets/internal/secrets"
	"github.com/smallmain/unichat-secrets/internal/securestore"
)

func newTestOpts(t *testing.T) NormalizeOptions {
	t.Helper()
	return NormalizeOptions{
		Secrets: secrets.New(securestore.NewMemory(), nil),
	}
}

func TestRegistryCoversBuiltinMethods(t *testing.T) {
	r := NewRegistry()

	for _, method := range []string{MethodNone, MethodAPIKey, MethodOAuth2} {
		n, ok := r.Lookup(method)
		require.True(t, ok, "method %s not registered", method)
		assert.Equal(t, method, n.Method())
	}

	_, ok := r.Lookup("basic")
	assert.False(t, ok)
}

func TestEndpointConfigMethod(t *testing.T) {
	assert.Equal(t, MethodNone, EndpointConfig{}.Method())
	assert.Equal(t, MethodNone, EndpointConfig{Auth: map[string]any{}}.Method())
	assert.Equal(t, MethodAPIKey, EndpointConfig{Auth: map[string]any{"method": "api-key"}}.Method())
}

func TestAPIKeyNormalizeMovesKeyToStore(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodAPIKey)

	payload := map[string]any{"method": "api-key", "apiKey": "sk-plain"}
	out, err := n.NormalizeOnImport(ctx, payload, opts)
	require.NoError(t, err)

	ref, _ := out["apiKey"].(string)
	require.True(t, secretref.IsReference(ref))

	value, found, err := opts.Secrets.GetAPIKey(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sk-plain", value)

	// Input payload is not mutated.
	assert.Equal(t, "sk-plain", payload["apiKey"])
}

func TestAPIKeyNormalizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodAPIKey)

	out, err := n.NormalizeOnImport(ctx, map[string]any{"method": "api-key", "apiKey": "sk-plain"}, opts)
	require.NoError(t, err)

	opts.Existing = out
	again, err := n.NormalizeOnImport(ctx, out, opts)
	require.NoError(t, err)

	// Same map back, not a copy with a fresh reference.
	assert.Equal(t, out["apiKey"], again["apiKey"])
}

func TestAPIKeyNormalizeReusesExistingReference(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodAPIKey)

	existingRef := secretref.New()
	opts.Existing = map[string]any{"method": "api-key", "apiKey": existingRef}

	out, err := n.NormalizeOnImport(ctx, map[string]any{"method": "api-key", "apiKey": "sk-reentered"}, opts)
	require.NoError(t, err)
	assert.Equal(t, existingRef, out["apiKey"])

	value, found, err := opts.Secrets.GetAPIKey(ctx, existingRef)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sk-reentered", value)
}

func TestAPIKeyNormalizeInlinesBackToSettings(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodAPIKey)

	ref := secretref.New()
	require.NoError(t, opts.Secrets.SetAPIKey(ctx, ref, "sk-stored"))

	opts.StoreInSettings = true
	out, err := n.NormalizeOnImport(ctx, map[string]any{"method": "api-key", "apiKey": ref}, opts)
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", out["apiKey"])

	// The secret is gone once it lives inline.
	_, found, err := opts.Secrets.GetAPIKey(ctx, ref)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAPIKeyNormalizeLeavesDanglingReferenceAlone(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	opts.StoreInSettings = true
	n, _ := NewRegistry().Lookup(MethodAPIKey)

	ref := secretref.New()
	payload := map[string]any{"method": "api-key", "apiKey": ref}
	out, err := n.NormalizeOnImport(ctx, payload, opts)
	require.NoError(t, err)
	assert.Equal(t, ref, out["apiKey"])
}

func TestAPIKeyNormalizeEmptyField(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodAPIKey)

	for _, payload := range []map[string]any{
		{"method": "api-key"},
		{"method": "api-key", "apiKey": ""},
		{"method": "api-key", "apiKey": "   "},
	} {
		out, err := n.NormalizeOnImport(ctx, payload, opts)
		require.NoError(t, err)
		assert.Equal(t, payload["apiKey"], out["apiKey"])
	}
}

func TestOAuth2NormalizeHandlesClientSecret(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodOAuth2)

	payload := map[string]any{
		"method":       "oauth2",
		"clientId":     "app-123",
		"clientSecret": "cs-plain",
	}
	out, err := n.NormalizeOnImport(ctx, payload, opts)
	require.NoError(t, err)

	// Client ID is not a secret and stays inline.
	assert.Equal(t, "app-123", out["clientId"])

	ref, _ := out["clientSecret"].(string)
	require.True(t, secretref.IsReference(ref))

	value, found, err := opts.Secrets.GetOAuth2ClientSecret(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "cs-plain", value)
}

func TestNoneNormalizePassesThrough(t *testing.T) {
	ctx := context.Background()
	opts := newTestOpts(t)
	n, _ := NewRegistry().Lookup(MethodNone)

	payload := map[string]any{"method": "none"}
	out, err := n.NormalizeOnImport(ctx, payload, opts)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}
