package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "docs/a.txt", []byte("one")))
	require.NoError(t, store.Put(ctx, "docs/a.txt", []byte("two")))

	got, err := store.Get(ctx, "docs/a.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got)

	require.NoError(t, store.Delete(ctx, "docs/a.txt"))
	require.True(t, IsKind(store.Delete(ctx, "docs/a.txt"), NotFound))

	exists, err := store.Exists(ctx, "docs/a.txt")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemoryStoreCopiesPayloads(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := []byte("original")
	require.NoError(t, store.Put(ctx, "a.bin", payload))
	payload[0] = 'X'

	got, err := store.Get(ctx, "a.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)
}
