package deploy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	raw := `title: ultimate tic tac toe
package: ./cmd/web
webDir: web
wasm:
  opt: true
  outName: uttt.wasm
publish:
  branch: pages
  cname: uttt.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uttt-site.yaml"), []byte(raw), 0644))

	m, err := LoadManifest(dir, "uttt-site.yaml")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "ultimate tic tac toe", m.Title)
	require.Equal(t, "./cmd/web", m.Package)
	require.Equal(t, "web", m.WebDir)
	require.True(t, m.Wasm.Opt)
	require.Equal(t, "uttt.wasm", m.Wasm.OutName)
	require.Equal(t, "pages", m.Publish.Branch)
	require.Equal(t, "uttt.example.com", m.Publish.Cname)
}

func TestLoadManifestMissingIsNotAnError(t *testing.T) {
	m, err := LoadManifest(t.TempDir(), "uttt-site.yaml")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestLoadManifestRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uttt-site.yaml"), []byte("\t{nope"), 0644))

	_, err := LoadManifest(dir, "uttt-site.yaml")
	require.Error(t, err)
}
