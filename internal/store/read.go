package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
)

// Get returns the cached result of q. The bool is false on a miss,
// including an entry older than the store's max age.
func (s *Store) Get(ctx context.Context, q query.Query) (result.Result, bool, error) {
	key, err := Key(q)
	if err != nil {
		return nil, false, fmt.Errorf("get result: %w", err)
	}

	var data string
	var storedAt int64
	err = s.db.QueryRowContext(ctx, `
		SELECT result, stored_at FROM results WHERE key = ?
	`, key).Scan(&data, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get result: %w", err)
	}

	if s.maxAge > 0 && s.now().Sub(time.UnixMilli(storedAt)) > s.maxAge {
		return nil, false, nil
	}

	res, err := result.Family.Decode([]byte(data))
	if err != nil {
		return nil, false, fmt.Errorf("get result: %w", err)
	}
	return res, true, nil
}

// TaskRecord is one logged task submission.
type TaskRecord struct {
	ID          string
	Type        string
	DataSource  string
	Task        ingest.Task
	SubmittedAt time.Time
}

// Tasks returns logged tasks, optionally restricted to one data source,
// ordered by submission time then id.
//
// Returns an empty slice (not nil) if nothing was logged.
func (s *Store) Tasks(ctx context.Context, dataSource string) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, data_source, spec, submitted_at
		FROM tasks
		WHERE ? = '' OR data_source = ?
		ORDER BY submitted_at ASC, id COLLATE BINARY ASC
	`, dataSource, dataSource)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	records := []TaskRecord{}
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return records, nil
}

func scanTask(rows *sql.Rows) (TaskRecord, error) {
	var rec TaskRecord
	var spec string
	var submittedAt int64
	if err := rows.Scan(&rec.ID, &rec.Type, &rec.DataSource, &spec, &submittedAt); err != nil {
		return TaskRecord{}, fmt.Errorf("scan task: %w", err)
	}
	task, err := ingest.Decode([]byte(spec))
	if err != nil {
		return TaskRecord{}, fmt.Errorf("decode task %s: %w", rec.ID, err)
	}
	rec.Task = task
	rec.SubmittedAt = time.UnixMilli(submittedAt).UTC()
	return rec, nil
}
