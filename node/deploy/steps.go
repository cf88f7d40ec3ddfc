package deploy

import (
	"context"
	"time"

	"uttt-node/node/config"
	"uttt-node/node/repo"
	"uttt-node/store"
	"uttt-node/types"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("deploy")

// Step is one stage of the pipeline. Steps run strictly in order; the first
// failure aborts the remainder of the run.
type Step interface {
	Name() string
	Run(ctx context.Context, st *RunState) error
}

// RunState is threaded through the steps of a single run. Earlier steps fill
// fields later steps consume.
type RunState struct {
	Cfg    *config.Node
	Repo   *repo.Repo
	Record *types.DeployRecord

	// parsed site manifest from the source tree, nil until checkout
	Manifest *SiteManifest

	// checked out source tree
	SourceDir string

	// build output; the publish step ships these bytes
	DistDir string

	// toolchain resolved by the toolchain step
	GoBin    string
	WasmExec string

	// wasm-opt binary; empty when post-processing is disabled
	WasmOpt string

	// module/build cache root restored before and saved after the build
	GoCacheDir string

	// blob store for cache and dist archives
	storeMgr *store.StoreManager
}

func runStep(ctx context.Context, s Step, st *RunState) error {
	res := types.StepResult{
		Name:      s.Name(),
		Status:    types.DeployStatusRunning,
		StartedAt: time.Now(),
	}

	err := s.Run(ctx, st)
	res.FinishedAt = time.Now()
	if err != nil {
		res.Status = types.DeployStatusFailed
		res.Error = err.Error()
	} else {
		res.Status = types.DeployStatusSucceeded
	}
	st.Record.Steps = append(st.Record.Steps, res)

	return err
}
