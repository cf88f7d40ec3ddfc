package api

import (
	"context"

	apitypes "uttt-node/api/types"
	"uttt-node/types"
)

type UtttApi interface {
	// Test checks api connectivity.
	Test(ctx context.Context, msg string) (string, error)

	// NodeStatus reports the node's version and enabled modules.
	NodeStatus(ctx context.Context) (apitypes.NodeStatusResp, error)

	// DeployNow enqueues a manual deploy and returns its pending record.
	DeployNow(ctx context.Context) (types.DeployRecord, error)

	// DeployStatus fetches one deploy record by id.
	DeployStatus(ctx context.Context, id string) (types.DeployRecord, error)

	// DeployList lists persisted deploy records, newest first.
	DeployList(ctx context.Context) ([]types.DeployRecord, error)

	// GenerateToken mints a share token for the protected preview site.
	GenerateToken(ctx context.Context, viewer string) (apitypes.GenerateTokenResp, error)

	// CacheStats reports the named cache's size and capacity.
	CacheStats(ctx context.Context, name string) (apitypes.CacheStatsResp, error)

	// CacheEvict drops a single key from the named cache.
	CacheEvict(ctx context.Context, name string, key string) error

	// CachePrune drops every key of the named cache.
	CachePrune(ctx context.Context, name string) error

	// Shutdown stops the node.
	Shutdown(ctx context.Context) error
}
