package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"uttt-node/node/config"
	"uttt-node/types"

	"github.com/stretchr/testify/require"
)

func TestInitAndPrepare(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")

	_, err := PrepareRepo(dir)
	require.ErrorIs(t, err, types.ErrUninitializedRepo)

	r, err := NewRepo(dir)
	require.NoError(t, err)
	require.NoError(t, r.Init("https://example.com/uttt.git"))

	exists, err := r.Exists()
	require.NoError(t, err)
	require.True(t, exists)

	// init is idempotent
	require.NoError(t, r.Init("https://example.com/uttt.git"))

	r2, err := PrepareRepo(dir)
	require.NoError(t, err)

	key, err := r2.GetKeyBytes()
	require.NoError(t, err)
	require.Len(t, key, 32)

	for _, p := range []string{r2.StagingPath(), r2.CachePath(), r2.BinPath(), r2.ToolchainPath(), r2.DistPath()} {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		require.True(t, fi.IsDir())
	}
}

func TestConfigSeededWithRemote(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	r, err := NewRepo(dir)
	require.NoError(t, err)
	require.NoError(t, r.Init("https://example.com/uttt.git"))

	c, err := r.Config()
	require.NoError(t, err)
	cfg, ok := c.(*config.Node)
	require.True(t, ok)
	require.Equal(t, "https://example.com/uttt.git", cfg.Source.Remote)
}

func TestDatastores(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	r, err := NewRepo(dir)
	require.NoError(t, err)
	require.NoError(t, r.Init(""))

	ctx := context.Background()
	for _, ns := range []string{"/metadata", "/jobs", "/deploys"} {
		ds, err := r.Datastore(ctx, ns)
		require.NoError(t, err, ns)
		require.NotNil(t, ds)
	}

	_, err = r.Datastore(ctx, "/nope")
	require.Error(t, err)
}
