package gql

import (
	"context"
	"fmt"
	"time"

	"uttt-node/types"
	"uttt-node/utils"

	"github.com/graph-gophers/graphql-go"
)

type deploy struct {
	DeployId        string
	Trigger         string
	Remote          string
	Branch          string
	Commit          string
	CacheKey        string
	CacheHit        bool
	ArtifactCid     string
	PublishedCommit string
	Status          string
	Error           string
	Steps           []*step
	CreatedAt       string
	FinishedAt      string
}

type step struct {
	Name       string
	Status     string
	Error      string
	StartedAt  string
	FinishedAt string
}

type deployList struct {
	TotalCount int32
	Deploys    []*deploy
	More       bool
}

type deployStats struct {
	Total         int32
	Succeeded     int32
	Failed        int32
	CacheHits     int32
	AvgDurationMs int32
	LastSuccessAt string
}

// query: deploy(id) Deploy
func (r *resolver) Deploy(ctx context.Context, args struct{ ID graphql.ID }) (*deploy, error) {
	id := string(args.ID)
	if !utils.IsDeployId(id) {
		return nil, fmt.Errorf("parsing graphql ID '%s' as deploy id", id)
	}

	record, err := r.historySvc.GetDeploy(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDeploy(record), nil
}

// query: deploys(limit, offset) DeployList
func (r *resolver) Deploys(ctx context.Context, args struct {
	Limit  *int32
	Offset *int32
}) (*deployList, error) {
	limit, offset := 50, 0
	if args.Limit != nil {
		limit = int(*args.Limit)
	}
	if args.Offset != nil {
		offset = int(*args.Offset)
	}

	records, err := r.historySvc.ListDeploys(ctx, limit+1, offset)
	if err != nil {
		return nil, err
	}

	more := len(records) > limit
	if more {
		records = records[:limit]
	}

	deploys := make([]*deploy, 0, len(records))
	for i := range records {
		deploys = append(deploys, toDeploy(&records[i]))
	}
	return &deployList{
		TotalCount: int32(len(deploys)),
		Deploys:    deploys,
		More:       more,
	}, nil
}

// query: stats DeployStats
func (r *resolver) Stats(ctx context.Context) (*deployStats, error) {
	stats, err := r.historySvc.Stats(ctx)
	if err != nil {
		return nil, err
	}

	last := ""
	if !stats.LastSuccessAt.IsZero() {
		last = stats.LastSuccessAt.Format(time.RFC3339)
	}
	return &deployStats{
		Total:         int32(stats.Total),
		Succeeded:     int32(stats.Succeeded),
		Failed:        int32(stats.Failed),
		CacheHits:     int32(stats.CacheHits),
		AvgDurationMs: int32(stats.AvgDurationMs),
		LastSuccessAt: last,
	}, nil
}

func (d *deploy) ID() graphql.ID {
	return graphql.ID(d.DeployId)
}

func toDeploy(record *types.DeployRecord) *deploy {
	steps := make([]*step, 0, len(record.Steps))
	for _, s := range record.Steps {
		steps = append(steps, &step{
			Name:       s.Name,
			Status:     s.Status,
			Error:      s.Error,
			StartedAt:  s.StartedAt.Format(time.RFC3339),
			FinishedAt: s.FinishedAt.Format(time.RFC3339),
		})
	}
	return &deploy{
		DeployId:        record.Id,
		Trigger:         string(record.Trigger),
		Remote:          record.Remote,
		Branch:          record.Branch,
		Commit:          record.Commit,
		CacheKey:        record.CacheKey,
		CacheHit:        record.CacheHit,
		ArtifactCid:     record.ArtifactCid,
		PublishedCommit: record.PublishedCommit,
		Status:          record.Status,
		Error:           record.Error,
		Steps:           steps,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339),
		FinishedAt:      record.FinishedAt.Format(time.RFC3339),
	}
}
