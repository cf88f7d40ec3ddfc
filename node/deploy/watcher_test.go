package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"uttt-node/node/config"
	"uttt-node/node/queue"
	"uttt-node/types"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"
)

// sourceFixture creates a source repo on the default branch and returns a
// commit function that advances it.
func sourceFixture(t *testing.T) (string, func(content string) string) {
	t.Helper()

	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)

	commit := func(content string) string {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(content), 0644))
		_, err := wt.Add("main.go")
		require.NoError(t, err)
		h, err := wt.Commit("update", &git.CommitOptions{
			Author: &object.Signature{Name: "dev", Email: "dev@localhost", When: time.Now()},
		})
		require.NoError(t, err)
		return h.String()
	}
	return dir, commit
}

func watchSvcFixture(t *testing.T, remote string) *DeploySvc {
	t.Helper()

	cfg := config.DefaultNode()
	cfg.Source.Remote = remote
	cfg.Source.Branch = "master" // go-git's PlainInit default

	return &DeploySvc{
		cfg:         cfg,
		ds:          dssync.MutexWrap(datastore.NewMapDatastore()),
		policy:      &PolicySvc{},
		deployQueue: &queue.RequestQueue{},
		notify:      make(chan struct{}, 1),
	}
}

func TestResolveRemoteHead(t *testing.T) {
	remote, commit := sourceFixture(t)
	want := commit("package main\n")

	got, err := ResolveRemoteHead(context.Background(), remote, "master")
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ResolveRemoteHead(context.Background(), remote, "no-such-branch")
	require.Error(t, err)
}

func TestWatcherEnqueuesOncePerHead(t *testing.T) {
	remote, commit := sourceFixture(t)
	first := commit("package main\n")

	svc := watchSvcFixture(t, remote)
	ctx := context.Background()

	// several polls of the same head enqueue exactly one deploy
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.pollOnce(ctx))
	}
	require.Equal(t, 1, svc.deployQueue.Len())

	req := svc.deployQueue.PopFront()
	require.Equal(t, types.TriggerWatch, req.Deploy.Trigger)
	require.Equal(t, first, req.Deploy.Commit)

	// a new head enqueues exactly one more
	second := commit("package main\n\nfunc main() {}\n")
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.pollOnce(ctx))
	}
	require.Equal(t, 1, svc.deployQueue.Len())
	req = svc.deployQueue.PopFront()
	require.Equal(t, second, req.Deploy.Commit)
}

func TestWatcherPersistsRecords(t *testing.T) {
	remote, commit := sourceFixture(t)
	commit("package main\n")

	svc := watchSvcFixture(t, remote)
	ctx := context.Background()
	require.NoError(t, svc.pollOnce(ctx))

	records, err := svc.ListDeploys(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, types.DeployStatusPending, records[0].Status)

	got, err := svc.GetDeploy(ctx, records[0].Id)
	require.NoError(t, err)
	require.Equal(t, records[0].Id, got.Id)

	_, err = svc.GetDeploy(ctx, "missing")
	require.Error(t, err)
}
