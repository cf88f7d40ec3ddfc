package store

import (
	"bytes"
	"context"
	"io"
	"testing"

	"uttt-node/utils"

	"github.com/stretchr/testify/require"
)

func TestLocalFsBackendRoundTrip(t *testing.T) {
	b, err := NewLocalFsBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, b.Open())

	content := []byte("module cache archive bytes")
	c, err := utils.CalculateCid(content)
	require.NoError(t, err)

	has, err := b.Has(c)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, b.Store(c, bytes.NewReader(content)))

	has, err = b.Has(c)
	require.NoError(t, err)
	require.True(t, has)

	r, err := b.Get(c)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, content, got)

	cids, err := b.List()
	require.NoError(t, err)
	require.Len(t, cids, 1)
	require.Equal(t, c, cids[0])

	require.NoError(t, b.Remove(c))
	has, err = b.Has(c)
	require.NoError(t, err)
	require.False(t, has)

	// removing a missing blob is not an error
	require.NoError(t, b.Remove(c))
}

func TestManagerReplicatesAndFallsBack(t *testing.T) {
	b1, err := NewLocalFsBackend(t.TempDir())
	require.NoError(t, err)
	b2, err := NewLocalFsBackend(t.TempDir())
	require.NoError(t, err)

	sm := NewStoreManager([]StoreBackend{b1})
	sm.AddBackend(b2)
	require.NoError(t, sm.Open())
	defer sm.Close(context.Background()) //nolint:errcheck

	content := []byte("dist archive")
	c, err := utils.CalculateCid(content)
	require.NoError(t, err)

	require.NoError(t, sm.Store(c, bytes.NewReader(content)))

	for _, b := range []*LocalFsBackend{b1, b2} {
		has, err := b.Has(c)
		require.NoError(t, err)
		require.True(t, has)
	}

	// drop the blob from the first backend; the manager reads from the second
	require.NoError(t, b1.Remove(c))
	r, err := sm.Get(c)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, content, got)

	has, err := sm.Has(c)
	require.NoError(t, err)
	require.True(t, has)
}
