package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
)

// LocalFsBackend keeps blobs as flat files named by CID under root. It is
// the node's primary backend; the cache/ dir of the repo is its root.
type LocalFsBackend struct {
	root string
}

func NewLocalFsBackend(root string) (*LocalFsBackend, error) {
	return &LocalFsBackend{root: root}, nil
}

func (b *LocalFsBackend) Id() string {
	return fmt.Sprintf("%s-%s", b.Type(), b.root)
}

func (b *LocalFsBackend) Type() string {
	return "localfs"
}

func (b *LocalFsBackend) Open() error {
	return os.MkdirAll(b.root, 0755)
}

func (b *LocalFsBackend) Close() error {
	return nil
}

func (b *LocalFsBackend) path(c cid.Cid) string {
	return filepath.Join(b.root, c.String())
}

func (b *LocalFsBackend) Store(c cid.Cid, reader io.Reader) error {
	// write-then-rename so a crashed write never leaves a partial blob
	// under its final name
	tmp, err := os.CreateTemp(b.root, "blob-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(c))
}

func (b *LocalFsBackend) Has(c cid.Cid) (bool, error) {
	_, err := os.Stat(b.path(c))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *LocalFsBackend) Get(c cid.Cid) (io.ReadCloser, error) {
	return os.Open(b.path(c))
}

func (b *LocalFsBackend) Remove(c cid.Cid) error {
	err := os.Remove(b.path(c))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List enumerates the CIDs present in the backend.
func (b *LocalFsBackend) List() ([]cid.Cid, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, err
	}

	var out []cid.Cid
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c, err := cid.Decode(e.Name())
		if err != nil {
			// temp files and strays are not blobs
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
