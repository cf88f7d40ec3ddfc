package types

import (
	"time"
)

type DeployTrigger string

const (
	TriggerManual = DeployTrigger("manual")
	TriggerWatch  = DeployTrigger("watch")
)

// Pipeline step names, in execution order.
const (
	StepCheckout     = "checkout"
	StepToolchain    = "toolchain"
	StepToolFetch    = "tool-fetch"
	StepCacheRestore = "cache-restore"
	StepBuild        = "build"
	StepMarker       = "marker"
	StepPublish      = "publish"
	StepCacheSave    = "cache-save"
)

const (
	DeployStatusPending   = "Pending"
	DeployStatusRunning   = "Running"
	DeployStatusSucceeded = "Succeeded"
	DeployStatusFailed    = "Failed"
)

type StepResult struct {
	Name       string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// DeployRecord is the persisted outcome of one pipeline run.
type DeployRecord struct {
	Id      string
	Trigger DeployTrigger

	Remote string
	Branch string
	Commit string

	CacheKey string
	CacheHit bool

	// CIDv1 of the packed dist archive.
	ArtifactCid string

	// hash of the single orphan commit on the pages branch
	PublishedCommit string

	Status string
	Error  string
	Steps  []StepResult

	CreatedAt  time.Time
	FinishedAt time.Time
}

func (r *DeployRecord) StepResult(name string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

func (r *DeployRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}
