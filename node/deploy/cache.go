package deploy

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"uttt-node/types"
	"uttt-node/utils"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
)

const cachePool = "deploy"

var cacheIndexPrefix = datastore.NewKey("/cache-index")

// cacheRestoreStep computes the run's cache key and, on a hit, unpacks the
// saved module/build cache archive before the build. A miss is not a
// failure; the build just starts cold.
type cacheRestoreStep struct {
	svc *DeploySvc
}

func (cacheRestoreStep) Name() string {
	return types.StepCacheRestore
}

func (s cacheRestoreStep) Run(ctx context.Context, st *RunState) error {
	key, err := sourceCacheKey(runtime.GOOS, runtime.GOARCH, st.SourceDir)
	if err != nil {
		return err
	}
	st.Record.CacheKey = key
	st.GoCacheDir = filepath.Join(st.Repo.CachePath(), "gomod")

	if err = os.MkdirAll(st.GoCacheDir, 0755); err != nil {
		return types.Wrap(types.ErrCacheRestoreFailed, err)
	}

	blobCid, err := s.svc.lookupCacheCid(ctx, key)
	if err != nil {
		return err
	}
	if !blobCid.Defined() {
		log.Infof("cache miss for key %s", key)
		return nil
	}

	has, err := s.svc.storeMgr.Has(blobCid)
	if err != nil || !has {
		log.Infof("cache index points at missing blob %v, treating as miss", blobCid)
		return nil
	}

	reader, err := s.svc.storeMgr.Get(blobCid)
	if err != nil {
		return types.Wrap(types.ErrCacheRestoreFailed, err)
	}
	defer reader.Close() //nolint:errcheck

	if err = utils.UnpackDir(reader, st.GoCacheDir); err != nil {
		return types.Wrap(types.ErrCacheRestoreFailed, err)
	}
	st.Record.CacheHit = true
	log.Infof("cache hit for key %s (%v)", key, blobCid)
	return nil
}

// cacheSaveStep archives the module/build cache after a successful build and
// indexes it under the run's key. Already-indexed keys are left alone: the
// lockfile digest in the key guarantees the content would be equivalent.
type cacheSaveStep struct {
	svc *DeploySvc
}

func (cacheSaveStep) Name() string {
	return types.StepCacheSave
}

func (s cacheSaveStep) Run(ctx context.Context, st *RunState) error {
	if st.Record.CacheHit {
		return nil
	}

	tmp, err := os.CreateTemp("", "uttt-cache-*")
	if err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	defer tmp.Close()           //nolint:errcheck

	if err = utils.PackDir(st.GoCacheDir, tmp); err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}

	archive, err := os.ReadFile(tmp.Name())
	if err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}
	blobCid, err := utils.CalculateCid(archive)
	if err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}

	if _, err = tmp.Seek(0, 0); err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}
	if err = s.svc.storeMgr.Store(blobCid, tmp); err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}
	if err = s.svc.indexCacheCid(ctx, st.Record.CacheKey, blobCid); err != nil {
		return err
	}

	log.Infof("saved build cache %v under key %s", blobCid, st.Record.CacheKey)
	return nil
}

// lookupCacheCid resolves a cache key to a blob cid, consulting the hot
// cache first and falling back to the datastore index.
func (ds *DeploySvc) lookupCacheCid(ctx context.Context, key string) (cid.Cid, error) {
	if ds.cacheSvc != nil {
		if v, err := ds.cacheSvc.Get(cachePool, key); err == nil && v != nil {
			if s, ok := v.(string); ok {
				return cid.Decode(s)
			}
		}
	}

	raw, err := ds.ds.Get(ctx, cacheIndexPrefix.ChildString(key))
	if err == datastore.ErrNotFound {
		return cid.Undef, nil
	}
	if err != nil {
		return cid.Undef, types.Wrap(types.ErrCacheRestoreFailed, err)
	}
	c, err := cid.Decode(string(raw))
	if err != nil {
		return cid.Undef, types.Wrap(types.ErrCacheRestoreFailed, err)
	}

	if ds.cacheSvc != nil {
		ds.cacheSvc.Put(cachePool, key, c.String())
	}
	return c, nil
}

func (ds *DeploySvc) indexCacheCid(ctx context.Context, key string, c cid.Cid) error {
	if err := ds.ds.Put(ctx, cacheIndexPrefix.ChildString(key), []byte(c.String())); err != nil {
		return types.Wrap(types.ErrCacheSaveFailed, err)
	}
	if ds.cacheSvc != nil {
		ds.cacheSvc.Put(cachePool, key, c.String())
	}
	return nil
}
