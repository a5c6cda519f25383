package warehouse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/db"
)

// Load statuses recorded in clearvue.load_log.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// NewBatchID returns a sortable identifier for one load run.
func NewBatchID() string {
	return ulid.Make().String()
}

// LoadEntry is a row of clearvue.load_log.
type LoadEntry struct {
	ID          int64          `json:"id"`
	BatchID     string         `json:"batch_id"`
	Dataset     string         `json:"dataset"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	RowsLoaded  int64          `json:"rows_loaded"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// LoadLog records the lifecycle of each dataset load.
type LoadLog struct {
	pool db.Pool
}

// NewLoadLog creates a LoadLog backed by pool.
func NewLoadLog(pool db.Pool) *LoadLog {
	return &LoadLog{pool: pool}
}

// Start records a running load and returns its log id.
func (l *LoadLog) Start(ctx context.Context, batchID, dataset string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO clearvue.load_log (batch_id, dataset, status, started_at)
		 VALUES ($1, $2, 'running', now()) RETURNING id`,
		batchID, dataset,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "loadlog: start %s", dataset)
	}
	return id, nil
}

// Complete marks a load as complete.
func (l *LoadLog) Complete(ctx context.Context, id int64, rows int64, metadata map[string]any) error {
	var metaJSON []byte
	if metadata != nil {
		var err error
		if metaJSON, err = json.Marshal(metadata); err != nil {
			return eris.Wrap(err, "loadlog: marshal metadata")
		}
	}

	if _, err := l.pool.Exec(ctx,
		`UPDATE clearvue.load_log
		 SET status = 'complete', completed_at = now(), rows_loaded = $1, metadata = $2
		 WHERE id = $3`,
		rows, metaJSON, id,
	); err != nil {
		return eris.Wrapf(err, "loadlog: complete %d", id)
	}
	return nil
}

// Fail marks a load as failed.
func (l *LoadLog) Fail(ctx context.Context, id int64, rows int64, errMsg string) error {
	if _, err := l.pool.Exec(ctx,
		`UPDATE clearvue.load_log
		 SET status = 'failed', completed_at = now(), rows_loaded = $1, error = $2
		 WHERE id = $3`,
		rows, errMsg, id,
	); err != nil {
		return eris.Wrapf(err, "loadlog: fail %d", id)
	}
	return nil
}

// Recent returns the latest limit entries, newest first.
func (l *LoadLog) Recent(ctx context.Context, limit int) ([]LoadEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, batch_id, dataset, status, started_at, completed_at, rows_loaded, COALESCE(error, ''), metadata
		 FROM clearvue.load_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "loadlog: list")
	}
	defer rows.Close()

	var out []LoadEntry
	for rows.Next() {
		var e LoadEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Dataset, &e.Status, &e.StartedAt, &e.CompletedAt, &e.RowsLoaded, &e.Error, &meta); err != nil {
			return nil, eris.Wrap(err, "loadlog: scan")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, eris.Wrap(err, "loadlog: unmarshal metadata")
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
