package deploy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"uttt-node/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestDownloadFileRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("release bytes")) //nolint:errcheck
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	require.NoError(t, downloadFile(context.Background(), srv.URL, dest))

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "release bytes", string(raw))
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDownloadFileNotFoundIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := downloadFile(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, types.ErrDownloadFailed))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestVerifyDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	content := []byte("binaryen release")
	require.NoError(t, os.WriteFile(path, content, 0644))

	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])

	require.NoError(t, verifyDigest(path, good))
	require.NoError(t, verifyDigest(path, "")) // verification opt-out

	err := verifyDigest(path, "deadbeef")
	require.Error(t, err)
	require.True(t, xerrors.Is(err, types.ErrDigestMismatch))
}
