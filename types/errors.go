package types

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Error is a registered, coded error. Failures crossing a module boundary
// wrap one of the errors below so callers can match on identity instead of
// message text.
type Error struct {
	module string
	code   uint32
	msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s.%d: %s", e.module, e.code, e.msg)
}

var registry = map[string]struct{}{}

func Register(module string, code uint32, msg string) *Error {
	id := fmt.Sprintf("%s.%d", module, code)
	if _, ok := registry[id]; ok {
		panic(fmt.Sprintf("error code %s is registered already", id))
	}
	registry[id] = struct{}{}
	return &Error{module: module, code: code, msg: msg}
}

var (
	ModuleNode    = "node"
	ModuleConfig  = "config"
	ModuleDeploy  = "deploy"
	ModuleCache   = "cache"
	ModuleStore   = "store"
	ModuleApi     = "api"
	ModuleHistory = "history"
	ModuleSite    = "site"

	ErrOpenRepoFailed       = Register(ModuleNode, 10000, "failed to open the node repo")
	ErrInitRepoFailed       = Register(ModuleNode, 10001, "failed to initialize the node repo")
	ErrUninitializedRepo    = Register(ModuleNode, 10002, "repo is not initialized, run init first")
	ErrOpenDataStoreFailed  = Register(ModuleNode, 10003, "failed to open the datastore")
	ErrCreateDirFailed      = Register(ModuleNode, 10004, "failed to create the directory")
	ErrOpenKeystoreFailed   = Register(ModuleNode, 10005, "failed to open the keystore")
	ErrSignedFailed         = Register(ModuleNode, 10006, "failed to sign the payload")
	ErrInvalidParameters    = Register(ModuleNode, 10007, "invalid parameters")
	ErrStopServiceFailed    = Register(ModuleNode, 10008, "failed to stop the service")
	ErrCreateClientFailed   = Register(ModuleNode, 10009, "failed to create the rpc client")
	ErrInvalidServerAddress = Register(ModuleNode, 10010, "invalid server address")

	ErrReadConfigFailed   = Register(ModuleConfig, 10100, "failed to read the config")
	ErrDecodeConfigFailed = Register(ModuleConfig, 10101, "failed to decode the config")
	ErrEncodeConfigFailed = Register(ModuleConfig, 10102, "failed to encode the config")
	ErrInvalidConfig      = Register(ModuleConfig, 10103, "invalid config")

	ErrCheckoutFailed       = Register(ModuleDeploy, 10200, "failed to check out the source tree")
	ErrToolchainFailed      = Register(ModuleDeploy, 10201, "failed to provision the go toolchain")
	ErrToolFetchFailed      = Register(ModuleDeploy, 10202, "failed to fetch the build tool")
	ErrCacheRestoreFailed   = Register(ModuleDeploy, 10203, "failed to restore the build cache")
	ErrCacheSaveFailed      = Register(ModuleDeploy, 10204, "failed to save the build cache")
	ErrBuildFailed          = Register(ModuleDeploy, 10205, "failed to build the site")
	ErrPublishFailed        = Register(ModuleDeploy, 10206, "failed to publish the site")
	ErrDeployNotFound       = Register(ModuleDeploy, 10207, "deploy record not found")
	ErrDeployRejected       = Register(ModuleDeploy, 10208, "deploy rejected by policy")
	ErrWatchFailed          = Register(ModuleDeploy, 10209, "failed to watch the source branch")
	ErrDownloadFailed       = Register(ModuleDeploy, 10210, "failed to download")
	ErrDigestMismatch       = Register(ModuleDeploy, 10211, "downloaded artifact digest mismatch")
	ErrInvalidManifest      = Register(ModuleDeploy, 10212, "invalid site manifest")
	ErrMissingPublishToken  = Register(ModuleDeploy, 10213, "publish token is not set")
	ErrDeployInProgress     = Register(ModuleDeploy, 10214, "another deploy is in progress")
	ErrMarshalFailed        = Register(ModuleDeploy, 10215, "failed to marshal")
	ErrUnMarshalFailed      = Register(ModuleDeploy, 10216, "failed to unmarshal")
	ErrRuleEvaluationFailed = Register(ModuleDeploy, 10217, "failed to evaluate the deploy rules")
	ErrDeployFailed         = Register(ModuleDeploy, 10218, "deploy failed")

	ErrNotFound     = Register(ModuleCache, 10300, "not found")
	ErrConflictName = Register(ModuleCache, 10301, "name conflicts")

	ErrStoreFailed    = Register(ModuleStore, 10400, "failed to store the content")
	ErrGetFailed      = Register(ModuleStore, 10401, "failed to get the content")
	ErrInvalidBackend = Register(ModuleStore, 10402, "invalid store backend")

	ErrAuthenticateFailed = Register(ModuleApi, 10500, "failed to authenticate")

	ErrOpenHistoryDbFailed = Register(ModuleHistory, 10600, "failed to open the history database")
	ErrQueryHistoryFailed  = Register(ModuleHistory, 10601, "failed to query the deploy history")

	ErrGenerateTokenFailed = Register(ModuleSite, 10700, "failed to generate the share token")
)

func Wrap(err0 error, err1 error) error {
	return xerrors.Errorf("%w, due to %v", err0, err1)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return xerrors.Errorf("%w: "+format, append([]interface{}{err}, args...)...)
}
