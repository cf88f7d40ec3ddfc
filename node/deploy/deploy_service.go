package deploy

import (
	"context"
	"time"

	"uttt-node/node/cache"
	"uttt-node/node/config"
	"uttt-node/node/queue"
	"uttt-node/node/repo"
	"uttt-node/store"
	"uttt-node/types"
	"uttt-node/utils"

	"github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	"golang.org/x/xerrors"
)

var recordPrefix = datastore.NewKey("/records")

// Recorder receives finished deploy records. The history service implements
// it; a nil recorder is fine.
type Recorder interface {
	OnDeployFinished(record *types.DeployRecord)
}

type DeploySvcApi interface {
	DeployNow(ctx context.Context) (*types.DeployRecord, error)
	GetDeploy(ctx context.Context, id string) (*types.DeployRecord, error)
	ListDeploys(ctx context.Context) ([]types.DeployRecord, error)
	Stop(ctx context.Context) error
}

// DeploySvc runs the pipeline. Runs execute strictly one at a time off a
// queue; the watcher and the API both enqueue through it.
type DeploySvc struct {
	cfg      *config.Node
	repo     *repo.Repo
	ds       datastore.Batching
	storeMgr *store.StoreManager
	cacheSvc cache.CacheSvcApi
	policy   *PolicySvc
	recorder Recorder

	deployQueue *queue.RequestQueue
	notify      chan struct{}
	locks       *utils.Maplock

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDeploySvc(
	ctx context.Context,
	cfg *config.Node,
	r *repo.Repo,
	storeMgr *store.StoreManager,
	cacheSvc cache.CacheSvcApi,
	recorder Recorder,
) (*DeploySvc, error) {
	ds, err := r.Datastore(ctx, "/deploys")
	if err != nil {
		return nil, types.Wrap(types.ErrOpenDataStoreFailed, err)
	}

	policy, err := NewPolicySvc(cfg.Deploy.RulesPath)
	if err != nil {
		return nil, err
	}

	if cacheSvc != nil {
		if err = cacheSvc.CreateCache(cachePool, cfg.Cache.CacheCapacity); err != nil &&
			!xerrors.Is(err, types.ErrConflictName) {
			log.Warnf("create %s cache: %v", cachePool, err)
			cacheSvc = nil
		}
	}

	svcCtx, cancel := context.WithCancel(ctx)
	svc := &DeploySvc{
		cfg:         cfg,
		repo:        r,
		ds:          ds,
		storeMgr:    storeMgr,
		cacheSvc:    cacheSvc,
		policy:      policy,
		recorder:    recorder,
		deployQueue: &queue.RequestQueue{},
		notify:      make(chan struct{}, 1),
		locks:       utils.NewMapLock(),
		ctx:         svcCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	go svc.workLoop()
	if cfg.Deploy.WatchEnable && cfg.Source.Remote != "" {
		go svc.watchLoop(svcCtx)
	}
	return svc, nil
}

// DeployNow enqueues a manual run and returns its pending record.
func (ds *DeploySvc) DeployNow(ctx context.Context) (*types.DeployRecord, error) {
	return ds.enqueue(ctx, types.TriggerManual, "")
}

// RunNow executes a single manual run synchronously, bypassing the queue.
// The one-shot CLI uses it; the daemon path goes through DeployNow.
func (ds *DeploySvc) RunNow(ctx context.Context) (*types.DeployRecord, error) {
	record := &types.DeployRecord{
		Id:        utils.GenerateDeployId(),
		Trigger:   types.TriggerManual,
		Remote:    ds.cfg.Source.Remote,
		Branch:    ds.cfg.Source.Branch,
		Status:    types.DeployStatusPending,
		CreatedAt: time.Now(),
	}
	if err := ds.saveRecord(ctx, record); err != nil {
		return nil, err
	}

	ds.runOne(record)
	if record.Status != types.DeployStatusSucceeded {
		return record, types.Wrapf(types.ErrDeployFailed, "%s", record.Error)
	}
	return record, nil
}

func (ds *DeploySvc) enqueue(ctx context.Context, trigger types.DeployTrigger, commit string) (*types.DeployRecord, error) {
	record := &types.DeployRecord{
		Id:        utils.GenerateDeployId(),
		Trigger:   trigger,
		Remote:    ds.cfg.Source.Remote,
		Branch:    ds.cfg.Source.Branch,
		Commit:    commit,
		Status:    types.DeployStatusPending,
		CreatedAt: time.Now(),
	}
	if err := ds.saveRecord(ctx, record); err != nil {
		return nil, err
	}

	ds.deployQueue.Push(&queue.WorkRequest{
		Deploy: record,
		Job: &types.Job{
			ID:     record.Id,
			Status: types.JobStatusPending,
		},
	})
	select {
	case ds.notify <- struct{}{}:
	default:
	}

	log.Infof("enqueued %s deploy %s", trigger, record.Id)
	return record, nil
}

func (ds *DeploySvc) workLoop() {
	defer close(ds.done)

	for {
		req := ds.deployQueue.PopFront()
		if req == nil {
			select {
			case <-ds.ctx.Done():
				return
			case <-ds.notify:
			}
			continue
		}

		ds.runOne(req.Deploy)

		select {
		case <-ds.ctx.Done():
			return
		default:
		}
	}
}

// runOne executes the pipeline for a single record, persisting every status
// transition. Steps run in order; the first failure fails the run.
func (ds *DeploySvc) runOne(record *types.DeployRecord) {
	// runs are already serialized by the work loop; the lock also covers
	// ad hoc one-shot runs sharing the repo
	ds.locks.Lock(ds.repo.DistPath())
	defer ds.locks.Unlock(ds.repo.DistPath())

	record.Status = types.DeployStatusRunning
	if err := ds.saveRecord(ds.ctx, record); err != nil {
		log.Errorf("persist deploy %s: %v", record.Id, err)
	}

	err := ds.policy.Evaluate(record)
	if err == nil {
		st := &RunState{
			Cfg:      ds.cfg,
			Repo:     ds.repo,
			Record:   record,
			storeMgr: ds.storeMgr,
		}
		for _, step := range ds.steps() {
			if err = runStep(ds.ctx, step, st); err != nil {
				log.Errorf("deploy %s step %s: %v", record.Id, step.Name(), err)
				break
			}
			if serr := ds.saveRecord(ds.ctx, record); serr != nil {
				log.Errorf("persist deploy %s: %v", record.Id, serr)
			}
		}
	}

	record.FinishedAt = time.Now()
	if err != nil {
		record.Status = types.DeployStatusFailed
		record.Error = err.Error()
	} else {
		record.Status = types.DeployStatusSucceeded
	}
	if err := ds.saveRecord(ds.ctx, record); err != nil {
		log.Errorf("persist deploy %s: %v", record.Id, err)
	}
	if ds.recorder != nil {
		ds.recorder.OnDeployFinished(record)
	}
	log.Infof("deploy %s finished: %s in %v", record.Id, record.Status, record.Duration())
}

func (ds *DeploySvc) steps() []Step {
	return []Step{
		checkoutStep{},
		toolchainStep{},
		toolFetchStep{},
		cacheRestoreStep{svc: ds},
		buildStep{},
		markerStep{},
		publishStep{},
		cacheSaveStep{svc: ds},
	}
}

// Pending reports runs queued but not started yet.
func (ds *DeploySvc) Pending() int {
	return ds.deployQueue.Len()
}

func (ds *DeploySvc) GetDeploy(ctx context.Context, id string) (*types.DeployRecord, error) {
	raw, err := ds.ds.Get(ctx, recordPrefix.ChildString(id))
	if err == datastore.ErrNotFound {
		return nil, types.Wrapf(types.ErrDeployNotFound, "id %s", id)
	}
	if err != nil {
		return nil, types.Wrap(types.ErrOpenDataStoreFailed, err)
	}

	var record types.DeployRecord
	if err = utils.UnMarshal(raw, &record); err != nil {
		return nil, types.Wrap(types.ErrUnMarshalFailed, err)
	}
	return &record, nil
}

// ListDeploys returns every persisted record, newest first.
func (ds *DeploySvc) ListDeploys(ctx context.Context) ([]types.DeployRecord, error) {
	results, err := ds.ds.Query(ctx, dsq.Query{Prefix: recordPrefix.String()})
	if err != nil {
		return nil, types.Wrap(types.ErrOpenDataStoreFailed, err)
	}
	defer results.Close() //nolint:errcheck

	var records []types.DeployRecord
	for res := range results.Next() {
		if res.Error != nil {
			return nil, types.Wrap(types.ErrOpenDataStoreFailed, res.Error)
		}
		var record types.DeployRecord
		if err = utils.UnMarshal(res.Value, &record); err != nil {
			return nil, types.Wrap(types.ErrUnMarshalFailed, err)
		}
		records = append(records, record)
	}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if records[j].CreatedAt.After(records[i].CreatedAt) {
				records[i], records[j] = records[j], records[i]
			}
		}
	}
	return records, nil
}

func (ds *DeploySvc) saveRecord(ctx context.Context, record *types.DeployRecord) error {
	raw, err := utils.Marshal(record)
	if err != nil {
		return types.Wrap(types.ErrMarshalFailed, err)
	}
	if err = ds.ds.Put(ctx, recordPrefix.ChildString(record.Id), raw); err != nil {
		return types.Wrap(types.ErrOpenDataStoreFailed, err)
	}
	return nil
}

func (ds *DeploySvc) Stop(ctx context.Context) error {
	log.Info("stopping deploy service...")
	ds.cancel()
	select {
	case <-ds.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
