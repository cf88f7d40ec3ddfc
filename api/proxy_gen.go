package api

import (
	"context"

	apitypes "uttt-node/api/types"
	"uttt-node/types"

	"golang.org/x/xerrors"
)

var ErrNotSupported = xerrors.New("method not supported")

type UtttApiStruct struct {
	Internal struct {
		Test func(p0 context.Context, p1 string) (string, error) `perm:"read"`

		NodeStatus func(p0 context.Context) (apitypes.NodeStatusResp, error) `perm:"read"`

		DeployNow func(p0 context.Context) (types.DeployRecord, error) `perm:"write"`

		DeployStatus func(p0 context.Context, p1 string) (types.DeployRecord, error) `perm:"read"`

		DeployList func(p0 context.Context) ([]types.DeployRecord, error) `perm:"read"`

		GenerateToken func(p0 context.Context, p1 string) (apitypes.GenerateTokenResp, error) `perm:"write"`

		CacheStats func(p0 context.Context, p1 string) (apitypes.CacheStatsResp, error) `perm:"read"`

		CacheEvict func(p0 context.Context, p1 string, p2 string) error `perm:"admin"`

		CachePrune func(p0 context.Context, p1 string) error `perm:"admin"`

		Shutdown func(p0 context.Context) error `perm:"admin"`
	}
}

func (s *UtttApiStruct) Test(p0 context.Context, p1 string) (string, error) {
	if s.Internal.Test == nil {
		return "", ErrNotSupported
	}
	return s.Internal.Test(p0, p1)
}

func (s *UtttApiStruct) NodeStatus(p0 context.Context) (apitypes.NodeStatusResp, error) {
	if s.Internal.NodeStatus == nil {
		return apitypes.NodeStatusResp{}, ErrNotSupported
	}
	return s.Internal.NodeStatus(p0)
}

func (s *UtttApiStruct) DeployNow(p0 context.Context) (types.DeployRecord, error) {
	if s.Internal.DeployNow == nil {
		return types.DeployRecord{}, ErrNotSupported
	}
	return s.Internal.DeployNow(p0)
}

func (s *UtttApiStruct) DeployStatus(p0 context.Context, p1 string) (types.DeployRecord, error) {
	if s.Internal.DeployStatus == nil {
		return types.DeployRecord{}, ErrNotSupported
	}
	return s.Internal.DeployStatus(p0, p1)
}

func (s *UtttApiStruct) DeployList(p0 context.Context) ([]types.DeployRecord, error) {
	if s.Internal.DeployList == nil {
		return nil, ErrNotSupported
	}
	return s.Internal.DeployList(p0)
}

func (s *UtttApiStruct) GenerateToken(p0 context.Context, p1 string) (apitypes.GenerateTokenResp, error) {
	if s.Internal.GenerateToken == nil {
		return apitypes.GenerateTokenResp{}, ErrNotSupported
	}
	return s.Internal.GenerateToken(p0, p1)
}

func (s *UtttApiStruct) CacheStats(p0 context.Context, p1 string) (apitypes.CacheStatsResp, error) {
	if s.Internal.CacheStats == nil {
		return apitypes.CacheStatsResp{}, ErrNotSupported
	}
	return s.Internal.CacheStats(p0, p1)
}

func (s *UtttApiStruct) CacheEvict(p0 context.Context, p1 string, p2 string) error {
	if s.Internal.CacheEvict == nil {
		return ErrNotSupported
	}
	return s.Internal.CacheEvict(p0, p1, p2)
}

func (s *UtttApiStruct) CachePrune(p0 context.Context, p1 string) error {
	if s.Internal.CachePrune == nil {
		return ErrNotSupported
	}
	return s.Internal.CachePrune(p0, p1)
}

func (s *UtttApiStruct) Shutdown(p0 context.Context) error {
	if s.Internal.Shutdown == nil {
		return ErrNotSupported
	}
	return s.Internal.Shutdown(p0)
}

var _ UtttApi = new(UtttApiStruct)
