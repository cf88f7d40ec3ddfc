package node

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"uttt-node/api"
	apitypes "uttt-node/api/types"
	"uttt-node/build"
	"uttt-node/node/cache"
	"uttt-node/node/config"
	"uttt-node/node/deploy"
	"uttt-node/node/history"
	"uttt-node/node/history/gql"
	"uttt-node/node/repo"
	"uttt-node/node/site"
	"uttt-node/store"
	"uttt-node/types"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gbrlsnchs/jwt/v3"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multiaddr"
	"golang.org/x/xerrors"
)

var log = logging.Logger("node")

type JwtPayload struct {
	Allow []auth.Permission
}

// Node assembles the enabled modules around a repo: the deploy pipeline,
// the preview site, deploy history and the json-rpc api.
type Node struct {
	ctx  context.Context
	cfg  *config.Node
	repo *repo.Repo

	deploySvc  *deploy.DeploySvc
	siteServer *site.SiteServer
	historySvc *history.HistorySvc
	cacheSvc   cache.CacheSvcApi
	storeMgr   *store.StoreManager

	stopFuncs    []StopFunc
	ShutdownChan chan struct{}
}

func NewNode(ctx context.Context, r *repo.Repo) (*Node, error) {
	c, err := r.Config()
	if err != nil {
		return nil, err
	}

	cfg, ok := c.(*config.Node)
	if !ok {
		return nil, xerrors.Errorf("invalid config for repo, got: %T", c)
	}

	var cacheSvc cache.CacheSvcApi
	if cfg.Cache.EnableCache {
		cacheSvc = cache.NewCacheSvc(&cfg.Cache)
	}

	storeMgr := store.NewStoreManager(nil)
	localBackend, err := store.NewLocalFsBackend(filepath.Join(r.CachePath(), "blobs"))
	if err != nil {
		return nil, err
	}
	storeMgr.AddBackend(localBackend)
	if cfg.Publish.IpfsPin {
		for _, conn := range cfg.Ipfs.Conn {
			backend, err := store.NewIpfsBackend(conn)
			if err != nil {
				return nil, err
			}
			storeMgr.AddBackend(backend)
		}
	}
	if err = storeMgr.Open(); err != nil {
		return nil, err
	}

	sn := Node{
		ctx:          ctx,
		cfg:          cfg,
		repo:         r,
		cacheSvc:     cacheSvc,
		storeMgr:     storeMgr,
		ShutdownChan: make(chan struct{}),
	}
	sn.stopFuncs = append(sn.stopFuncs, storeMgr.Close)

	if cfg.Module.HistoryEnable {
		dbPath := cfg.History.DbPath
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(r.Path(), dbPath)
		}
		sn.historySvc, err = history.NewHistorySvc(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		sn.stopFuncs = append(sn.stopFuncs, sn.historySvc.Stop)

		gqlServer := gql.NewGraphqlServer(cfg.History.ListenAddress, sn.historySvc)
		if err = gqlServer.Start(ctx); err != nil {
			return nil, err
		}
		sn.stopFuncs = append(sn.stopFuncs, gqlServer.Stop)
	}

	if cfg.Module.DeployEnable {
		var recorder deploy.Recorder
		if sn.historySvc != nil {
			recorder = sn.historySvc
		}
		sn.deploySvc, err = deploy.NewDeploySvc(ctx, cfg, r, storeMgr, cacheSvc, recorder)
		if err != nil {
			return nil, err
		}
		sn.stopFuncs = append(sn.stopFuncs, sn.deploySvc.Stop)
	}

	if cfg.Module.SiteEnable {
		secret, err := r.GetKeyBytes()
		if err != nil {
			return nil, err
		}
		sn.siteServer = site.NewSiteServer(&cfg.Site, r.DistPath(), secret)
		if err = sn.siteServer.Start(); err != nil {
			return nil, err
		}
		sn.stopFuncs = append(sn.stopFuncs, sn.siteServer.Stop)
	}

	// api server
	rpcStopper, err := newRpcServer(&sn, cfg)
	if err != nil {
		return nil, err
	}
	sn.stopFuncs = append(sn.stopFuncs, rpcStopper)

	return &sn, nil
}

func newRpcServer(sn *Node, cfg *config.Node) (StopFunc, error) {
	log.Info("initialize rpc server")

	var na api.UtttApi = sn
	if cfg.Api.EnablePermission {
		na = api.PermissionedUtttNodeAPI(sn)
	}

	handler, err := NodeRpcHandler(na, sn.AuthVerify)
	if err != nil {
		return nil, xerrors.Errorf("failed to instantiate rpc handler: %w", err)
	}

	strma := strings.TrimSpace(cfg.Api.ListenAddress)
	endpoint, err := multiaddr.NewMultiaddr(strma)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %s, %s", strma, err)
	}
	rpcStopper, err := ServeRPC(handler, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to start json-rpc endpoint: %s", err)
	}
	return func(ctx context.Context) error {
		log.Info("stop rpc server succeed.")
		return rpcStopper(ctx)
	}, nil
}

func (n *Node) Stop(ctx context.Context) error {
	for _, f := range n.stopFuncs {
		err := f(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) AuthVerify(ctx context.Context, token string) ([]auth.Permission, error) {
	var payload JwtPayload
	key, err := n.repo.GetKeyBytes()
	if err != nil {
		return nil, err
	}
	if _, err := jwt.Verify([]byte(token), jwt.NewHS256(key), &payload); err != nil {
		return nil, types.Wrap(types.ErrAuthenticateFailed, err)
	}
	return payload.Allow, nil
}

func (n *Node) Test(ctx context.Context, msg string) (string, error) {
	return "world", nil
}

func (n *Node) NodeStatus(ctx context.Context) (apitypes.NodeStatusResp, error) {
	resp := apitypes.NodeStatusResp{
		Version:        build.UserVersion(),
		SourceRemote:   n.cfg.Source.Remote,
		SourceBranch:   n.cfg.Source.Branch,
		DeployEnabled:  n.cfg.Module.DeployEnable,
		SiteEnabled:    n.cfg.Module.SiteEnable,
		HistoryEnabled: n.cfg.Module.HistoryEnable,
	}
	if n.deploySvc != nil {
		resp.PendingDeploys = n.deploySvc.Pending()
	}
	return resp, nil
}

func (n *Node) DeployNow(ctx context.Context) (types.DeployRecord, error) {
	if n.deploySvc == nil {
		return types.DeployRecord{}, types.Wrapf(types.ErrInvalidParameters, "deploy module is disabled")
	}
	record, err := n.deploySvc.DeployNow(ctx)
	if err != nil {
		return types.DeployRecord{}, err
	}
	return *record, nil
}

func (n *Node) DeployStatus(ctx context.Context, id string) (types.DeployRecord, error) {
	if n.deploySvc == nil {
		return types.DeployRecord{}, types.Wrapf(types.ErrInvalidParameters, "deploy module is disabled")
	}
	record, err := n.deploySvc.GetDeploy(ctx, id)
	if err != nil {
		return types.DeployRecord{}, err
	}
	return *record, nil
}

func (n *Node) DeployList(ctx context.Context) ([]types.DeployRecord, error) {
	if n.deploySvc == nil {
		return nil, types.Wrapf(types.ErrInvalidParameters, "deploy module is disabled")
	}
	return n.deploySvc.ListDeploys(ctx)
}

func (n *Node) GenerateToken(ctx context.Context, viewer string) (apitypes.GenerateTokenResp, error) {
	if n.siteServer == nil {
		return apitypes.GenerateTokenResp{}, types.Wrapf(types.ErrInvalidParameters, "site module is disabled")
	}
	token, err := n.siteServer.GenerateToken(viewer)
	if err != nil {
		return apitypes.GenerateTokenResp{}, err
	}
	return apitypes.GenerateTokenResp{
		Server: n.cfg.Site.ListenAddress,
		Token:  token,
	}, nil
}

func (n *Node) CacheStats(ctx context.Context, name string) (apitypes.CacheStatsResp, error) {
	if n.cacheSvc == nil {
		return apitypes.CacheStatsResp{}, types.Wrapf(types.ErrInvalidParameters, "cache is disabled")
	}
	return apitypes.CacheStatsResp{
		Name:     name,
		Size:     n.cacheSvc.GetSize(name),
		Capacity: n.cacheSvc.GetCapacity(name),
		Keys:     n.cacheSvc.Keys(name),
	}, nil
}

func (n *Node) CacheEvict(ctx context.Context, name string, key string) error {
	if n.cacheSvc == nil {
		return types.Wrapf(types.ErrInvalidParameters, "cache is disabled")
	}
	n.cacheSvc.Evict(name, key)
	return nil
}

func (n *Node) CachePrune(ctx context.Context, name string) error {
	if n.cacheSvc == nil {
		return types.Wrapf(types.ErrInvalidParameters, "cache is disabled")
	}
	for _, key := range n.cacheSvc.Keys(name) {
		n.cacheSvc.Evict(name, key)
	}
	return nil
}

func (n *Node) Shutdown(ctx context.Context) error {
	n.ShutdownChan <- struct{}{}
	return nil
}
