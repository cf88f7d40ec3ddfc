package store

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"uttt-node/types"
)

var log = logging.Logger("store")

// StoreBackend is a content-addressed blob store. The node keeps module
// cache archives and dist archives in it, keyed by CIDv1.
type StoreBackend interface {
	Id() string
	Type() string
	Open() error
	Close() error
	Store(cid cid.Cid, reader io.Reader) error
	Has(cid cid.Cid) (bool, error)
	Get(cid cid.Cid) (io.ReadCloser, error)
	Remove(cid cid.Cid) error
}

// StoreManager replicates writes to every backend and reads from the first
// backend that has the blob.
type StoreManager struct {
	backends []StoreBackend
}

func NewStoreManager(initial []StoreBackend) *StoreManager {
	return &StoreManager{
		backends: initial,
	}
}

func (sm *StoreManager) AddBackend(backend StoreBackend) {
	sm.backends = append(sm.backends, backend)
}

func (sm *StoreManager) Open() error {
	for _, back := range sm.backends {
		if err := back.Open(); err != nil {
			log.Errorf("%s open error: %v", back.Id(), err)
			return err
		}
	}
	return nil
}

func (sm *StoreManager) Close(ctx context.Context) error {
	for _, back := range sm.backends {
		if err := back.Close(); err != nil {
			log.Errorf("%s close err: %v", back.Id(), err)
			return err
		}
	}
	return nil
}

// Store writes the blob to every backend. It fails only when no backend
// accepted the blob.
func (sm *StoreManager) Store(cid cid.Cid, reader io.ReadSeeker) error {
	stored := 0
	for _, back := range sm.backends {
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := back.Store(cid, reader); err != nil {
			log.Errorf("%s store error: %v", back.Id(), err)
			continue
		}
		stored++
	}
	if stored == 0 {
		return types.Wrapf(types.ErrStoreFailed, "no backend stored cid %v", cid)
	}
	return nil
}

func (sm *StoreManager) Has(cid cid.Cid) (bool, error) {
	for _, back := range sm.backends {
		has, err := back.Has(cid)
		if err != nil {
			log.Errorf("%s has cid=%v error: %v", back.Id(), cid, err)
			continue
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

func (sm *StoreManager) Get(cid cid.Cid) (io.ReadCloser, error) {
	for _, back := range sm.backends {
		reader, err := back.Get(cid)
		if err != nil {
			log.Debugf("%s get cid=%v error: %v", back.Id(), cid, err)
			continue
		}
		return reader, nil
	}
	return nil, types.Wrapf(types.ErrGetFailed, "no backend has cid %v", cid)
}

func (sm *StoreManager) Remove(cid cid.Cid) error {
	for _, back := range sm.backends {
		if err := back.Remove(cid); err != nil {
			log.Errorf("%s remove cid=%v error: %v", back.Id(), cid, err)
		}
	}
	return nil
}
