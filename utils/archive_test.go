package utils

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub", "deep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "deep", "leaf.txt"), []byte("leaf"), 0600))

	var buf bytes.Buffer
	require.NoError(t, PackDir(src, &buf))

	dst := t.TempDir()
	require.NoError(t, UnpackDir(&buf, dst))

	top, err := os.ReadFile(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	require.Equal(t, "top", string(top))

	leaf, err := os.ReadFile(filepath.Join(dst, "sub", "deep", "leaf.txt"))
	require.NoError(t, err)
	require.Equal(t, "leaf", string(leaf))
}

func TestUnpackRejectsEscapingEntries(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	content := []byte("nope")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "../evil.txt",
		Mode: 0644,
		Size: int64(len(content)),
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	err = UnpackDir(&buf, t.TempDir())
	require.Error(t, err)
}
