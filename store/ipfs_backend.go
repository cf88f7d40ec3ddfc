package store

import (
	"fmt"
	"io"
	"strings"

	"github.com/ipfs/go-cid"
	shell "github.com/ipfs/go-ipfs-api"
	"golang.org/x/xerrors"
)

// IpfsBackend stores blobs through a remote ipfs HTTP API. The publish step
// pins dist archives to it when Publish.IpfsPin is on.
type IpfsBackend struct {
	ipfsAddress string
	ipfsApi     *shell.Shell
}

func NewIpfsBackend(connectionString string) (*IpfsBackend, error) {
	var conn string
	if strings.HasPrefix(connectionString, "ipfs+http") {
		conn = strings.Replace(connectionString, "ipfs+http", "http", 1)
	} else if strings.HasPrefix(connectionString, "ipfs+https") {
		conn = strings.Replace(connectionString, "ipfs+https", "https", 1)
	} else {
		return nil, xerrors.Errorf("unsupported ipfs connection protocol")
	}

	b := IpfsBackend{
		ipfsAddress: conn,
	}
	return &b, nil
}

func (b *IpfsBackend) Id() string {
	return fmt.Sprintf("%s-%s", b.Type(), b.ipfsAddress)
}

func (b *IpfsBackend) Type() string {
	return "ipfs"
}

func (b *IpfsBackend) Open() error {
	b.ipfsApi = shell.NewShell(b.ipfsAddress)
	return nil
}

func (b *IpfsBackend) Close() error {
	return nil
}

func (b *IpfsBackend) Store(c cid.Cid, reader io.Reader) error {
	hash, err := b.ipfsApi.Add(reader, shell.Pin(true), shell.CidVersion(1))
	if err != nil {
		return err
	}
	log.Debugf("%s store hash: %v", b.Id(), hash)
	return nil
}

func (b *IpfsBackend) Has(c cid.Cid) (bool, error) {
	_, _, err := b.ipfsApi.BlockStat(c.String())
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *IpfsBackend) Get(c cid.Cid) (io.ReadCloser, error) {
	return b.ipfsApi.Cat(c.String())
}

func (b *IpfsBackend) Remove(c cid.Cid) error {
	return b.ipfsApi.Unpin(c.String())
}
