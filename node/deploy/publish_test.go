package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"uttt-node/node/config"
	"uttt-node/node/repo"
	"uttt-node/types"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func publishFixture(t *testing.T) (*RunState, string) {
	t.Helper()

	bare := filepath.Join(t.TempDir(), "pages.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	cfg := config.DefaultNode()
	cfg.Publish.Remote = bare
	cfg.Publish.AuthorName = "uttt-node"
	cfg.Publish.AuthorEmail = "uttt-node@localhost"

	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "app.wasm"), []byte("\x00asm"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, ".nojekyll"), nil, 0644))

	return &RunState{
		Cfg:     cfg,
		Record:  &types.DeployRecord{Id: "test-deploy", Commit: "abc123"},
		DistDir: dist,
	}, bare
}

// readPagesBranch returns the branch head commit and its tree entry names.
func readPagesBranch(t *testing.T, bare string, branch string) (*git.Repository, plumbing.Hash, map[string]bool) {
	t.Helper()

	r, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := r.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)

	commit, err := r.CommitObject(ref.Hash())
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range tree.Entries {
		names[e.Name] = true
	}
	return r, ref.Hash(), names
}

func TestPublishForceOrphan(t *testing.T) {
	st, bare := publishFixture(t)

	require.NoError(t, publishStep{}.Run(context.Background(), st))
	require.NotEmpty(t, st.Record.PublishedCommit)
	require.NotEmpty(t, st.Record.ArtifactCid)

	r, head, names := readPagesBranch(t, bare, st.Cfg.Publish.PagesBranch)
	require.Equal(t, st.Record.PublishedCommit, head.String())
	require.Equal(t, map[string]bool{"index.html": true, "app.wasm": true, ".nojekyll": true}, names)

	commit, err := r.CommitObject(head)
	require.NoError(t, err)
	require.Zero(t, commit.NumParents())
}

func TestPublishTwiceLeavesSingleParentlessCommit(t *testing.T) {
	st, bare := publishFixture(t)

	require.NoError(t, publishStep{}.Run(context.Background(), st))
	first := st.Record.PublishedCommit

	// second run ships different content
	require.NoError(t, os.WriteFile(filepath.Join(st.DistDir, "index.html"), []byte("<html>v2</html>"), 0644))
	st.Record = &types.DeployRecord{Id: "test-deploy-2", Commit: "def456"}
	require.NoError(t, publishStep{}.Run(context.Background(), st))

	r, head, names := readPagesBranch(t, bare, st.Cfg.Publish.PagesBranch)
	require.NotEqual(t, first, head.String())
	require.True(t, names[".nojekyll"])

	// the branch holds exactly the new orphan commit, no build history
	commit, err := r.CommitObject(head)
	require.NoError(t, err)
	require.Zero(t, commit.NumParents())
}

func TestPublishManifestOverridesBranch(t *testing.T) {
	st, bare := publishFixture(t)
	st.Manifest = &SiteManifest{}
	st.Manifest.Publish.Branch = "preview"

	require.NoError(t, publishStep{}.Run(context.Background(), st))

	_, _, names := readPagesBranch(t, bare, "preview")
	require.True(t, names["index.html"])
}

func TestPublishHttpRemoteRequiresToken(t *testing.T) {
	st, _ := publishFixture(t)
	st.Cfg.Publish.Remote = "https://github.com/example/uttt.git"

	r, err := repo.NewRepo(t.TempDir())
	require.NoError(t, err)
	st.Repo = r

	t.Setenv(st.Cfg.Publish.TokenEnv, "")
	err = publishStep{}.Run(context.Background(), st)
	require.Error(t, err)
	require.True(t, xerrors.Is(err, types.ErrMissingPublishToken))
}

func TestPublishAuthFallsBackToDotEnv(t *testing.T) {
	st, _ := publishFixture(t)

	r, err := repo.NewRepo(t.TempDir())
	require.NoError(t, err)
	st.Repo = r

	t.Setenv(st.Cfg.Publish.TokenEnv, "")
	dotenv := st.Cfg.Publish.TokenEnv + "=ghp_secret\n"
	require.NoError(t, os.WriteFile(filepath.Join(r.Path(), ".env"), []byte(dotenv), 0600))

	auth, err := publishAuth(st, "https://github.com/example/uttt.git")
	require.NoError(t, err)
	require.NotNil(t, auth)

	// local remotes never need a token
	auth, err = publishAuth(st, "/tmp/pages.git")
	require.NoError(t, err)
	require.Nil(t, auth)
}
