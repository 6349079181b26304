package securestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newMockKeyring(t *testing.T) *Keyring {
	t.Helper()
	keyring.MockInit()
	return NewKeyring("unichat-secrets-test")
}

func TestKeyringCRUD(t *testing.T) {
	ctx := context.Background()
	store := newMockKeyring(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "unichat.secret.api-key.k1", "v1"))
	require.NoError(t, store.Set(ctx, "unichat.secret.api-key.k2", "v2"))

	got, err := store.Get(ctx, "unichat.secret.api-key.k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"unichat.secret.api-key.k1", "unichat.secret.api-key.k2"}, keys)

	require.NoError(t, store.Delete(ctx, "unichat.secret.api-key.k1"))
	_, err = store.Get(ctx, "unichat.secret.api-key.k1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Index follows the deletion
	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"unichat.secret.api-key.k2"}, keys)

	// Deleting an absent key is a no-op
	require.NoError(t, store.Delete(ctx, "unichat.secret.api-key.k1"))
}

func TestKeyringIndexNeverListsItself(t *testing.T) {
	ctx := context.Background()
	store := newMockKeyring(t)

	require.NoError(t, store.Set(ctx, "only", "v"))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, keys)
}
