package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheKeyDeterministic(t *testing.T) {
	lock := []byte("github.com/stretchr/testify v1.8.0 h1:...\n")

	k1, err := CacheKey("linux", "amd64", lock)
	require.NoError(t, err)
	k2, err := CacheKey("linux", "amd64", lock)
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	require.True(t, strings.HasPrefix(k1, "linux-amd64-gomod-"))
}

func TestCacheKeyScopesPlatformAndLockfile(t *testing.T) {
	lock := []byte("github.com/stretchr/testify v1.8.0 h1:...\n")

	base, err := CacheKey("linux", "amd64", lock)
	require.NoError(t, err)

	otherOs, err := CacheKey("darwin", "amd64", lock)
	require.NoError(t, err)
	require.NotEqual(t, base, otherOs)

	otherArch, err := CacheKey("linux", "arm64", lock)
	require.NoError(t, err)
	require.NotEqual(t, base, otherArch)

	changed, err := CacheKey("linux", "amd64", append(lock, []byte("extra v0.0.1 h1:...\n")...))
	require.NoError(t, err)
	require.NotEqual(t, base, changed)

	// same digest suffix across platforms: only the scope prefix differs
	suffix := func(k string) string { return k[strings.LastIndex(k, "-")+1:] }
	require.Equal(t, suffix(base), suffix(otherOs))
}

func TestSourceCacheKeyPrefersLockfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module site\n\ngo 1.19\n"), 0644))

	fromMod, err := sourceCacheKey("linux", "amd64", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.sum"), []byte("dep v1.0.0 h1:...\n"), 0644))
	fromSum, err := sourceCacheKey("linux", "amd64", dir)
	require.NoError(t, err)
	require.NotEqual(t, fromMod, fromSum)

	want, err := CacheKey("linux", "amd64", []byte("dep v1.0.0 h1:...\n"))
	require.NoError(t, err)
	require.Equal(t, want, fromSum)
}

func TestSourceCacheKeyMissingTree(t *testing.T) {
	_, err := sourceCacheKey("linux", "amd64", t.TempDir())
	require.Error(t, err)
}
