package store

import (
	"context"
	"fmt"

	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
)

// Put caches res as the result of q, replacing any previous entry.
func (s *Store) Put(ctx context.Context, q query.Query, res result.Result) error {
	key, err := Key(q)
	if err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	queryJSON, err := query.Encode(q)
	if err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	resultJSON, err := result.Encode(res)
	if err != nil {
		return fmt.Errorf("put result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (key, query_type, query, result, row_count, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			query = excluded.query,
			result = excluded.result,
			row_count = excluded.row_count,
			stored_at = excluded.stored_at
	`,
		key,
		q.Type(),
		string(queryJSON),
		string(resultJSON),
		res.Len(),
		s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	return nil
}

// Purge deletes every cached result and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("purge results: %w", err)
	}
	return res.RowsAffected()
}

// RecordTask logs a submitted task. The task must carry its id.
// Uses ON CONFLICT(id) DO NOTHING so resubmitting the same id is a no-op.
func (s *Store) RecordTask(ctx context.Context, task ingest.Task) error {
	if task.TaskID() == "" {
		return fmt.Errorf("record task: task has no id")
	}
	spec, err := ingest.Encode(task)
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, type, data_source, spec, submitted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		task.TaskID(),
		task.Type(),
		task.DataSourceName(),
		string(spec),
		s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}
	return nil
}
