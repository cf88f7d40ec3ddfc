package deploy

import (
	"context"
	"time"

	"uttt-node/types"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/ipfs/go-datastore"
)

var lastEnqueuedHeadKey = datastore.NewKey("/watch/last-enqueued-head")

// ResolveRemoteHead lists the remote's refs without cloning and returns the
// commit hash the branch points at.
func ResolveRemoteHead(ctx context.Context, remote string, branch string) (string, error) {
	rem := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{remote},
	})
	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", types.Wrap(types.ErrWatchFailed, err)
	}

	want := plumbing.NewBranchReferenceName(branch)
	for _, ref := range refs {
		if ref.Name() == want {
			return ref.Hash().String(), nil
		}
	}
	return "", types.Wrapf(types.ErrWatchFailed, "branch %s not found on %s", branch, remote)
}

// watchLoop polls the source branch and enqueues exactly one deploy per new
// head. The last enqueued head survives restarts through the datastore, so
// a restart never re-deploys a head it already handled.
func (ds *DeploySvc) watchLoop(ctx context.Context) {
	interval := ds.cfg.Deploy.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("watching %s@%s every %v", ds.cfg.Source.Remote, ds.cfg.Source.Branch, interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := ds.pollOnce(ctx); err != nil {
			log.Warnf("watch poll: %v", err)
		}
	}
}

// pollOnce performs a single head check. Split out of the loop so tests can
// drive it without timers.
func (ds *DeploySvc) pollOnce(ctx context.Context) error {
	head, err := ResolveRemoteHead(ctx, ds.cfg.Source.Remote, ds.cfg.Source.Branch)
	if err != nil {
		return err
	}

	last, err := ds.ds.Get(ctx, lastEnqueuedHeadKey)
	if err != nil && err != datastore.ErrNotFound {
		return types.Wrap(types.ErrWatchFailed, err)
	}
	if string(last) == head {
		return nil
	}

	log.Infof("new head %s on %s@%s", head, ds.cfg.Source.Remote, ds.cfg.Source.Branch)
	if _, err = ds.enqueue(ctx, types.TriggerWatch, head); err != nil {
		return err
	}

	// record before the run finishes: one enqueue per head, not per success
	if err = ds.ds.Put(ctx, lastEnqueuedHeadKey, []byte(head)); err != nil {
		return types.Wrap(types.ErrWatchFailed, err)
	}
	return nil
}
