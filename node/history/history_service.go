package history

import (
	"context"
	"database/sql"
	"time"

	"uttt-node/types"
	"uttt-node/utils"

	_ "github.com/mattn/go-sqlite3"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("history")

const schema = `
CREATE TABLE IF NOT EXISTS deploys (
    id               TEXT PRIMARY KEY,
    trig             TEXT NOT NULL,
    remote           TEXT NOT NULL,
    branch           TEXT NOT NULL,
    commit_hash      TEXT NOT NULL,
    cache_key        TEXT NOT NULL,
    cache_hit        INTEGER NOT NULL,
    artifact_cid     TEXT NOT NULL,
    published_commit TEXT NOT NULL,
    status           TEXT NOT NULL,
    error            TEXT NOT NULL,
    steps            TEXT NOT NULL,
    created_at       INTEGER NOT NULL,
    finished_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS deploys_created_at ON deploys (created_at DESC);
`

type HistorySvcApi interface {
	GetDeploy(ctx context.Context, id string) (*types.DeployRecord, error)
	ListDeploys(ctx context.Context, limit int, offset int) ([]types.DeployRecord, error)
	Stats(ctx context.Context) (*DeployStats, error)
}

// DeployStats aggregates the persisted history.
type DeployStats struct {
	Total         int
	Succeeded     int
	Failed        int
	CacheHits     int
	AvgDurationMs int64
	LastSuccessAt time.Time
}

// HistorySvc keeps finished deploy records in sqlite, outliving the node's
// datastores and queryable over graphql.
type HistorySvc struct {
	db *sql.DB
}

func NewHistorySvc(ctx context.Context, dbPath string) (*HistorySvc, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, types.Wrap(types.ErrOpenHistoryDbFailed, err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, types.Wrap(types.ErrOpenHistoryDbFailed, err)
	}
	return &HistorySvc{db: db}, nil
}

// OnDeployFinished records a finished run. Re-recording the same id
// overwrites, which keeps retried persistence idempotent.
func (hs *HistorySvc) OnDeployFinished(record *types.DeployRecord) {
	steps, err := utils.Marshal(record.Steps)
	if err != nil {
		log.Errorf("marshal steps of deploy %s: %v", record.Id, err)
		return
	}

	_, err = hs.db.Exec(`INSERT OR REPLACE INTO deploys
        (id, trig, remote, branch, commit_hash, cache_key, cache_hit, artifact_cid,
         published_commit, status, error, steps, created_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Id, string(record.Trigger), record.Remote, record.Branch, record.Commit,
		record.CacheKey, boolToInt(record.CacheHit), record.ArtifactCid,
		record.PublishedCommit, record.Status, record.Error, string(steps),
		record.CreatedAt.UnixMilli(), record.FinishedAt.UnixMilli())
	if err != nil {
		log.Errorf("record deploy %s: %v", record.Id, err)
	}
}

func (hs *HistorySvc) GetDeploy(ctx context.Context, id string) (*types.DeployRecord, error) {
	row := hs.db.QueryRowContext(ctx, `SELECT id, trig, remote, branch, commit_hash,
        cache_key, cache_hit, artifact_cid, published_commit, status, error, steps,
        created_at, finished_at FROM deploys WHERE id = ?`, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, types.Wrapf(types.ErrDeployNotFound, "id %s", id)
	}
	if err != nil {
		return nil, types.Wrap(types.ErrQueryHistoryFailed, err)
	}
	return record, nil
}

func (hs *HistorySvc) ListDeploys(ctx context.Context, limit int, offset int) ([]types.DeployRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := hs.db.QueryContext(ctx, `SELECT id, trig, remote, branch, commit_hash,
        cache_key, cache_hit, artifact_cid, published_commit, status, error, steps,
        created_at, finished_at FROM deploys ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, types.Wrap(types.ErrQueryHistoryFailed, err)
	}
	defer rows.Close() //nolint:errcheck

	var records []types.DeployRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, types.Wrap(types.ErrQueryHistoryFailed, err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (hs *HistorySvc) Stats(ctx context.Context) (*DeployStats, error) {
	var stats DeployStats
	var avg sql.NullFloat64
	var lastSuccess sql.NullInt64

	err := hs.db.QueryRowContext(ctx, `SELECT
        COUNT(*),
        COALESCE(SUM(status = ?), 0),
        COALESCE(SUM(status = ?), 0),
        COALESCE(SUM(cache_hit), 0),
        AVG(finished_at - created_at),
        MAX(CASE WHEN status = ? THEN finished_at END)
        FROM deploys`,
		types.DeployStatusSucceeded, types.DeployStatusFailed, types.DeployStatusSucceeded).
		Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &stats.CacheHits, &avg, &lastSuccess)
	if err != nil {
		return nil, types.Wrap(types.ErrQueryHistoryFailed, err)
	}

	if avg.Valid {
		stats.AvgDurationMs = int64(avg.Float64)
	}
	if lastSuccess.Valid {
		stats.LastSuccessAt = time.UnixMilli(lastSuccess.Int64)
	}
	return &stats, nil
}

func (hs *HistorySvc) Stop(ctx context.Context) error {
	log.Info("stopping history service...")
	return hs.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*types.DeployRecord, error) {
	var record types.DeployRecord
	var trigger, steps string
	var cacheHit int
	var createdAt, finishedAt int64

	err := row.Scan(&record.Id, &trigger, &record.Remote, &record.Branch, &record.Commit,
		&record.CacheKey, &cacheHit, &record.ArtifactCid, &record.PublishedCommit,
		&record.Status, &record.Error, &steps, &createdAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	record.Trigger = types.DeployTrigger(trigger)
	record.CacheHit = cacheHit != 0
	record.CreatedAt = time.UnixMilli(createdAt)
	record.FinishedAt = time.UnixMilli(finishedAt)
	if err = utils.UnMarshal([]byte(steps), &record.Steps); err != nil {
		return nil, err
	}
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
