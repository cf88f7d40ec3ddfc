package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkerStepWritesNojekyll(t *testing.T) {
	st := &RunState{DistDir: t.TempDir()}

	require.NoError(t, markerStep{}.Run(context.Background(), st))

	info, err := os.Stat(filepath.Join(st.DistDir, ".nojekyll"))
	require.NoError(t, err)
	require.Zero(t, info.Size())

	_, err = os.Stat(filepath.Join(st.DistDir, "CNAME"))
	require.True(t, os.IsNotExist(err))
}

func TestMarkerStepWritesCname(t *testing.T) {
	st := &RunState{DistDir: t.TempDir()}
	st.Manifest = &SiteManifest{}
	st.Manifest.Publish.Cname = "uttt.example.com"

	require.NoError(t, markerStep{}.Run(context.Background(), st))

	raw, err := os.ReadFile(filepath.Join(st.DistDir, "CNAME"))
	require.NoError(t, err)
	require.Equal(t, "uttt.example.com\n", string(raw))
}
