package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"uttt-node/types"
	"uttt-node/utils"
)

// CacheKey derives the module cache key for a source tree. The key scopes the
// cache to the runner platform and to the exact lockfile contents, so any
// dependency change produces a fresh key.
func CacheKey(goos string, goarch string, lockfile []byte) (string, error) {
	digest, err := utils.CalculateCid(lockfile)
	if err != nil {
		return "", types.Wrap(types.ErrCacheRestoreFailed, err)
	}
	return fmt.Sprintf("%s-%s-gomod-%s", goos, goarch, digest), nil
}

// sourceCacheKey computes the key for a checked out tree. go.sum is the
// lockfile; a tree without one (no external deps yet) falls back to go.mod.
func sourceCacheKey(goos string, goarch string, sourceDir string) (string, error) {
	lock, err := os.ReadFile(filepath.Join(sourceDir, "go.sum"))
	if os.IsNotExist(err) {
		lock, err = os.ReadFile(filepath.Join(sourceDir, "go.mod"))
	}
	if err != nil {
		return "", types.Wrap(types.ErrCacheRestoreFailed, err)
	}
	return CacheKey(goos, goarch, lock)
}
