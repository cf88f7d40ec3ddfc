package deploy

import (
	"context"
	"os"
	"path/filepath"

	"uttt-node/types"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/mitchellh/go-homedir"
)

// checkoutStep materializes the source tree for the run. Remote sources are
// shallow-cloned into staging/<deploy-id>; a configured local path is used
// in place, which keeps iterating on an uncommitted tree cheap.
type checkoutStep struct{}

func (checkoutStep) Name() string {
	return types.StepCheckout
}

func (checkoutStep) Run(ctx context.Context, st *RunState) error {
	if st.Cfg.Source.LocalPath != "" {
		dir, err := homedir.Expand(st.Cfg.Source.LocalPath)
		if err != nil {
			return types.Wrap(types.ErrCheckoutFailed, err)
		}
		if _, err = os.Stat(dir); err != nil {
			return types.Wrap(types.ErrCheckoutFailed, err)
		}
		st.SourceDir = dir

		// best effort: a plain directory without git history still builds
		if r, err := git.PlainOpen(dir); err == nil {
			if head, err := r.Head(); err == nil {
				st.Record.Commit = head.Hash().String()
			}
		}
	} else {
		dir := filepath.Join(st.Repo.StagingPath(), st.Record.Id)
		if err := os.RemoveAll(dir); err != nil {
			return types.Wrap(types.ErrCheckoutFailed, err)
		}

		r, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           st.Cfg.Source.Remote,
			ReferenceName: plumbing.NewBranchReferenceName(st.Cfg.Source.Branch),
			SingleBranch:  true,
			Depth:         1,
		})
		if err != nil {
			return types.Wrap(types.ErrCheckoutFailed, err)
		}
		head, err := r.Head()
		if err != nil {
			return types.Wrap(types.ErrCheckoutFailed, err)
		}
		st.SourceDir = dir
		st.Record.Commit = head.Hash().String()
	}

	m, err := LoadManifest(st.SourceDir, st.Cfg.Deploy.Manifest)
	if err != nil {
		return err
	}
	st.Manifest = m

	log.Infof("checked out %s@%s into %s", st.Record.Branch, st.Record.Commit, st.SourceDir)
	return nil
}
