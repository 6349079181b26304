package securestore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "a", "value-a"))
	require.NoError(t, store.Set(ctx, "b", "value-b"))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", got)

	// Overwrite
	require.NoError(t, store.Set(ctx, "a", "value-a2"))
	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a2", got)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error
	require.NoError(t, store.Delete(ctx, "a"))

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Set(ctx, "shared", "v"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, "shared")
			_ = store.Set(ctx, "shared", "v")
			_, _ = store.Keys(ctx)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
