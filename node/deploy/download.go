package deploy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"uttt-node/types"

	"github.com/cenkalti/backoff/v4"
)

const downloadTimeout = 10 * time.Minute

// downloadFile fetches url into dest, retrying transient failures with
// exponential backoff. The file is written next to dest and renamed into
// place once complete.
func downloadFile(ctx context.Context, url string, dest string) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	return backoff.Retry(func() error {
		reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(types.Wrap(types.ErrDownloadFailed, err))
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return types.Wrap(types.ErrDownloadFailed, err)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(types.Wrapf(types.ErrDownloadFailed, "%s: %s", url, resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return types.Wrapf(types.ErrDownloadFailed, "%s: %s", url, resp.Status)
		}

		tmp, err := os.CreateTemp("", "uttt-dl-*")
		if err != nil {
			return backoff.Permanent(err)
		}
		defer os.Remove(tmp.Name()) //nolint:errcheck

		if _, err = io.Copy(tmp, resp.Body); err != nil {
			tmp.Close() //nolint:errcheck
			return types.Wrap(types.ErrDownloadFailed, err)
		}
		if err = tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), dest)
	}, policy)
}

// verifyDigest checks the sha256 of path against the expected hex digest.
// Empty expected means the caller opted out of verification.
func verifyDigest(path string, expected string) error {
	if expected == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != expected {
		return types.Wrap(types.ErrDigestMismatch, fmt.Errorf("want %s, got %s", expected, got))
	}
	return nil
}
