package deploy

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"uttt-node/node/cache"
	"uttt-node/node/config"
	"uttt-node/node/queue"
	"uttt-node/node/repo"
	"uttt-node/store"
	"uttt-node/types"
	"uttt-node/utils"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"
)

func cacheSvcFixture(t *testing.T) (*DeploySvc, *repo.Repo) {
	t.Helper()

	r, err := repo.NewRepo(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, r.Init(""))

	backend, err := store.NewLocalFsBackend(filepath.Join(r.CachePath(), "blobs"))
	require.NoError(t, err)
	sm := store.NewStoreManager([]store.StoreBackend{backend})
	require.NoError(t, sm.Open())

	// the lru service is process-wide, the pool may exist from another test
	cacheSvc := cache.NewLruCacheSvc()
	_ = cacheSvc.CreateCache(cachePool, 16)

	return &DeploySvc{
		cfg:         config.DefaultNode(),
		repo:        r,
		ds:          dssync.MutexWrap(datastore.NewMapDatastore()),
		storeMgr:    sm,
		cacheSvc:    cacheSvc,
		deployQueue: &queue.RequestQueue{},
		notify:      make(chan struct{}, 1),
	}, r
}

func TestCacheSaveThenRestore(t *testing.T) {
	svc, r := cacheSvcFixture(t)
	ctx := context.Background()

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "go.sum"), []byte("dep v1.0.0 h1:...\n"), 0644))

	// cold run: restore misses, save archives the populated cache dir
	st := &RunState{
		Cfg:       svc.cfg,
		Repo:      r,
		Record:    &types.DeployRecord{Id: "run-1"},
		SourceDir: source,
		storeMgr:  svc.storeMgr,
	}
	require.NoError(t, cacheRestoreStep{svc: svc}.Run(ctx, st))
	require.False(t, st.Record.CacheHit)
	require.NotEmpty(t, st.Record.CacheKey)

	modDir := filepath.Join(st.GoCacheDir, "mod", "dep@v1.0.0")
	require.NoError(t, os.MkdirAll(modDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(modDir, "dep.go"), []byte("package dep\n"), 0644))
	require.NoError(t, cacheSaveStep{svc: svc}.Run(ctx, st))

	// wipe the cache dir; the next run restores it from the archive
	require.NoError(t, os.RemoveAll(st.GoCacheDir))

	st2 := &RunState{
		Cfg:       svc.cfg,
		Repo:      r,
		Record:    &types.DeployRecord{Id: "run-2"},
		SourceDir: source,
		storeMgr:  svc.storeMgr,
	}
	require.NoError(t, cacheRestoreStep{svc: svc}.Run(ctx, st2))
	require.True(t, st2.Record.CacheHit)
	require.Equal(t, st.Record.CacheKey, st2.Record.CacheKey)

	restored, err := os.ReadFile(filepath.Join(st2.GoCacheDir, "mod", "dep@v1.0.0", "dep.go"))
	require.NoError(t, err)
	require.Equal(t, "package dep\n", string(restored))
}

func TestCacheIndexSurvivesHotCacheLoss(t *testing.T) {
	svc, _ := cacheSvcFixture(t)
	ctx := context.Background()

	key, err := CacheKey(runtime.GOOS, runtime.GOARCH, []byte("lock"))
	require.NoError(t, err)

	c, err := svc.lookupCacheCid(ctx, key)
	require.NoError(t, err)
	require.False(t, c.Defined())

	blob, err := svc.lookupCacheCid(ctx, key)
	require.NoError(t, err)
	require.False(t, blob.Defined())

	archive := []byte("archive")
	stored, err := utils.CalculateCid(archive)
	require.NoError(t, err)
	require.NoError(t, svc.storeMgr.Store(stored, bytes.NewReader(archive)))
	require.NoError(t, svc.indexCacheCid(ctx, key, stored))

	// drop the hot cache: the datastore index still resolves the key
	svc.cacheSvc = nil

	got, err := svc.lookupCacheCid(ctx, key)
	require.NoError(t, err)
	require.Equal(t, stored, got)
}
