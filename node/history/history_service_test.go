package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"uttt-node/types"
	"uttt-node/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func historyFixture(t *testing.T) *HistorySvc {
	t.Helper()

	hs, err := NewHistorySvc(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = hs.Stop(context.Background()) })
	return hs
}

func finishedRecord(status string, cacheHit bool, created time.Time) *types.DeployRecord {
	return &types.DeployRecord{
		Id:              utils.GenerateDeployId(),
		Trigger:         types.TriggerWatch,
		Remote:          "https://github.com/example/uttt.git",
		Branch:          "main",
		Commit:          "abc123",
		CacheKey:        "linux-amd64-gomod-bafy...",
		CacheHit:        cacheHit,
		ArtifactCid:     "bafyartifact",
		PublishedCommit: "def456",
		Status:          status,
		Steps: []types.StepResult{
			{Name: types.StepCheckout, Status: types.DeployStatusSucceeded, StartedAt: created, FinishedAt: created.Add(time.Second)},
			{Name: types.StepPublish, Status: status, StartedAt: created.Add(time.Second), FinishedAt: created.Add(2 * time.Second)},
		},
		CreatedAt:  created,
		FinishedAt: created.Add(2 * time.Second),
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	hs := historyFixture(t)
	ctx := context.Background()

	record := finishedRecord(types.DeployStatusSucceeded, true, time.Now().Add(-time.Hour))
	hs.OnDeployFinished(record)

	got, err := hs.GetDeploy(ctx, record.Id)
	require.NoError(t, err)
	require.Equal(t, record.Id, got.Id)
	require.Equal(t, types.TriggerWatch, got.Trigger)
	require.True(t, got.CacheHit)
	require.Len(t, got.Steps, 2)
	require.Equal(t, types.StepCheckout, got.Steps[0].Name)
	require.Equal(t, record.PublishedCommit, got.PublishedCommit)

	_, err = hs.GetDeploy(ctx, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	require.True(t, xerrors.Is(err, types.ErrDeployNotFound))
}

func TestHistoryRecordIsIdempotent(t *testing.T) {
	hs := historyFixture(t)
	ctx := context.Background()

	record := finishedRecord(types.DeployStatusFailed, false, time.Now())
	hs.OnDeployFinished(record)
	record.Status = types.DeployStatusSucceeded
	hs.OnDeployFinished(record)

	records, err := hs.ListDeploys(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, types.DeployStatusSucceeded, records[0].Status)
}

func TestHistoryListNewestFirst(t *testing.T) {
	hs := historyFixture(t)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		record := finishedRecord(types.DeployStatusSucceeded, false, base.Add(time.Duration(i)*time.Hour))
		hs.OnDeployFinished(record)
		ids = append(ids, record.Id)
	}

	records, err := hs.ListDeploys(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, ids[2], records[0].Id)
	require.Equal(t, ids[1], records[1].Id)

	records, err = hs.ListDeploys(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, ids[0], records[0].Id)
}

func TestHistoryStats(t *testing.T) {
	hs := historyFixture(t)
	ctx := context.Background()

	stats, err := hs.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Total)
	require.True(t, stats.LastSuccessAt.IsZero())

	now := time.Now()
	hs.OnDeployFinished(finishedRecord(types.DeployStatusSucceeded, true, now.Add(-2*time.Hour)))
	hs.OnDeployFinished(finishedRecord(types.DeployStatusSucceeded, false, now.Add(-time.Hour)))
	hs.OnDeployFinished(finishedRecord(types.DeployStatusFailed, false, now))

	stats, err = hs.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Succeeded)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 1, stats.CacheHits)
	require.Equal(t, int64(2000), stats.AvgDurationMs)
	require.WithinDuration(t, now.Add(-time.Hour).Add(2*time.Second), stats.LastSuccessAt, time.Second)
}
