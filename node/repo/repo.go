package repo

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"

	"uttt-node/node/config"
	"uttt-node/types"
	"uttt-node/utils"

	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"
)

var log = logging.Logger("repo")

var ErrRepoExists = xerrors.New("repo exists")

const (
	fsConfig     = "config.toml"
	fsKeystore   = "keystore"
	fsApiKey     = "api.key"
	fsDatastore  = "datastore"
	fsStaging    = "staging"
	fsCache      = "cache"
	fsBin        = "bin"
	fsToolchains = "toolchains"
	fsDist       = "dist"
)

// Repo is the node's state directory: config, keystore, datastores, the
// blob cache, installed tools and the latest build output.
type Repo struct {
	path       string
	configPath string

	readonly bool

	ds     map[string]datastore.Batching
	dsErr  error
	dsOnce sync.Once
}

func NewRepo(path string) (*Repo, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	return &Repo{
		path:       path,
		configPath: filepath.Join(path, fsConfig),
	}, nil
}

// PrepareRepo opens an initialized repo, failing when init has not run yet.
func PrepareRepo(path string) (*Repo, error) {
	r, err := NewRepo(path)
	if err != nil {
		return nil, types.Wrap(types.ErrOpenRepoFailed, err)
	}

	exists, err := r.Exists()
	if err != nil {
		return nil, types.Wrap(types.ErrOpenRepoFailed, err)
	}
	if !exists {
		return nil, types.Wrapf(types.ErrUninitializedRepo, "repo at '%s'", path)
	}
	return r, nil
}

func (r *Repo) Exists() (bool, error) {
	_, err := os.Stat(filepath.Join(r.path, fsKeystore))
	notexist := os.IsNotExist(err)
	if notexist {
		err = nil
	}
	return !notexist, err
}

func (r *Repo) Init(remote string) error {
	exist, err := r.Exists()
	if err != nil {
		return err
	}
	if exist {
		return nil
	}

	log.Infof("Initializing repo at '%s'", r.path)
	err = os.MkdirAll(r.path, 0755) //nolint: gosec
	if err != nil && !os.IsExist(err) {
		return err
	}

	if err := r.initConfig(remote); err != nil {
		return xerrors.Errorf("init config: %w", err)
	}
	if err := r.initKeystore(); err != nil {
		return err
	}

	for _, dir := range []string{fsStaging, fsCache, fsBin, fsToolchains, fsDist} {
		if err := os.MkdirAll(r.join(dir), 0755); err != nil {
			return types.Wrapf(types.ErrCreateDirFailed, "mkdir %s: %v", r.join(dir), err)
		}
	}

	return nil
}

// GetKeyBytes returns the repo's API secret, used to sign and verify API
// tokens.
func (r *Repo) GetKeyBytes() ([]byte, error) {
	keyPath := filepath.Join(r.path, fsKeystore, fsApiKey)
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, types.Wrap(types.ErrOpenKeystoreFailed, err)
	}
	return key, nil
}

func (r *Repo) Config() (interface{}, error) {
	return utils.FromFile(r.configPath, r.defaultConfig(""))
}

// SetConfig writes the commented, updated config back to disk.
func (r *Repo) SetConfig(cfg *config.Node) error {
	b, err := config.ConfigUpdate(cfg, config.DefaultNode(), true)
	if err != nil {
		return err
	}
	return os.WriteFile(r.configPath, b, 0644)
}

func (r *Repo) Datastore(ctx context.Context, ns string) (datastore.Batching, error) {
	r.dsOnce.Do(func() {
		r.ds, r.dsErr = r.openDatastores(r.readonly)
	})

	if r.dsErr != nil {
		return nil, r.dsErr
	}
	ds, ok := r.ds[ns]
	if ok {
		return ds, nil
	}
	return nil, xerrors.Errorf("no such datastore: %s", ns)
}

func (r *Repo) initConfig(remote string) error {
	_, err := os.Stat(r.configPath)
	if err == nil {
		// exists
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	c, err := os.Create(r.configPath)
	if err != nil {
		return err
	}

	// comment against the unseeded default so a seeded remote stays live
	comm, err := config.ConfigUpdate(r.defaultConfig(remote), config.DefaultNode(), true)
	if err != nil {
		return xerrors.Errorf("load default: %w", err)
	}
	_, err = c.Write(comm)
	if err != nil {
		return xerrors.Errorf("write config: %w", err)
	}

	if err := c.Close(); err != nil {
		return xerrors.Errorf("close config: %w", err)
	}
	return nil
}

func (r *Repo) defaultConfig(remote string) *config.Node {
	cfg := config.DefaultNode()
	cfg.Source.Remote = remote
	return cfg
}

func (r *Repo) initKeystore() error {
	kstorePath := filepath.Join(r.path, fsKeystore)
	if _, err := os.Stat(kstorePath); err == nil {
		return ErrRepoExists
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Mkdir(kstorePath, 0700); err != nil {
		return err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(kstorePath, fsApiKey), secret, 0600)
}

func (r *Repo) Path() string          { return r.path }
func (r *Repo) StagingPath() string   { return r.join(fsStaging) }
func (r *Repo) CachePath() string     { return r.join(fsCache) }
func (r *Repo) BinPath() string       { return r.join(fsBin) }
func (r *Repo) ToolchainPath() string { return r.join(fsToolchains) }
func (r *Repo) DistPath() string      { return r.join(fsDist) }

// join joins path elements with fsr.path
func (r *Repo) join(paths ...string) string {
	return filepath.Join(append([]string{r.path}, paths...)...)
}
