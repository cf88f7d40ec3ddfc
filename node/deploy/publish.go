package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"uttt-node/types"
	"uttt-node/utils"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/joho/godotenv"
)

// publishStep ships the dist dir to the pages branch. Every publish is a
// force-orphan: a fresh repository with a single parentless commit whose
// tree is exactly dist, force-pushed over whatever the branch held before.
// The branch therefore never accumulates build history.
type publishStep struct{}

func (publishStep) Name() string {
	return types.StepPublish
}

func (publishStep) Run(ctx context.Context, st *RunState) error {
	remote := st.Cfg.Publish.Remote
	if remote == "" {
		remote = st.Cfg.Source.Remote
	}
	branch := st.Cfg.Publish.PagesBranch
	if st.Manifest != nil && st.Manifest.Publish.Branch != "" {
		branch = st.Manifest.Publish.Branch
	}

	auth, err := publishAuth(st, remote)
	if err != nil {
		return err
	}

	// archive dist first so every publish has a content-addressed artifact
	// on record, pinned to ipfs when that backend is configured
	if err = archiveDist(st); err != nil {
		return err
	}

	stage, err := os.MkdirTemp("", "uttt-publish-*")
	if err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}
	defer os.RemoveAll(stage) //nolint:errcheck

	r, err := git.PlainInit(stage, false)
	if err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}

	if err = copyDir(st.DistDir, stage); err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}
	if err = addAll(wt, st.DistDir); err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}

	msg := st.Cfg.Publish.CommitMessage
	if msg == "" {
		msg = "deploy"
	}
	commit, err := wt.Commit(fmt.Sprintf("%s %s", msg, st.Record.Commit), &git.CommitOptions{
		Author: &object.Signature{
			Name:  st.Cfg.Publish.AuthorName,
			Email: st.Cfg.Publish.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}

	if _, err = r.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{remote},
	}); err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}

	head, err := r.Head()
	if err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}
	refspec := gitconfig.RefSpec(fmt.Sprintf("+%s:refs/heads/%s", head.Name(), branch))
	if err = r.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refspec},
		Force:      true,
		Auth:       auth,
	}); err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}

	st.Record.PublishedCommit = commit.String()
	log.Infof("published %s to %s@%s", commit, remote, branch)
	return nil
}

// publishAuth resolves the publish token. The token never lives in the
// config file: it comes from the environment, with a repo-local .env as
// fallback. Local filesystem remotes need no token at all.
func publishAuth(st *RunState, remote string) (transport.AuthMethod, error) {
	if !strings.HasPrefix(remote, "http://") && !strings.HasPrefix(remote, "https://") {
		return nil, nil
	}

	token := os.Getenv(st.Cfg.Publish.TokenEnv)
	if token == "" {
		if env, err := godotenv.Read(filepath.Join(st.Repo.Path(), ".env")); err == nil {
			token = env[st.Cfg.Publish.TokenEnv]
		}
	}
	if token == "" {
		return nil, types.Wrapf(types.ErrMissingPublishToken, "set %s in the environment or in %s",
			st.Cfg.Publish.TokenEnv, filepath.Join(st.Repo.Path(), ".env"))
	}

	return &githttp.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}, nil
}

// archiveDist packs dist into a tarball, records its cid on the deploy
// record and stores it in the blob store.
func archiveDist(st *RunState) error {
	var buf bytes.Buffer
	if err := utils.PackDir(st.DistDir, &buf); err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}
	c, err := utils.CalculateCid(buf.Bytes())
	if err != nil {
		return types.Wrap(types.ErrPublishFailed, err)
	}
	if st.storeMgr != nil {
		if err = st.storeMgr.Store(c, bytes.NewReader(buf.Bytes())); err != nil {
			return types.Wrap(types.ErrPublishFailed, err)
		}
	}
	st.Record.ArtifactCid = c.String()
	return nil
}

func copyDir(src string, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

// addAll stages every dist file, dot files included; AddGlob skips those.
func addAll(wt *git.Worktree, distDir string) error {
	return filepath.Walk(distDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(distDir, path)
		if err != nil {
			return err
		}
		_, err = wt.Add(filepath.ToSlash(rel))
		return err
	})
}
