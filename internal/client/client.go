package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/roach88/druidkit/internal/ids"
	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
	"github.com/roach88/druidkit/internal/sqlapi"
	"github.com/roach88/druidkit/internal/store"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// Engine endpoints.
const (
	NativePath = "/druid/v2"
	SQLPath    = "/druid/v2/sql"
	TaskPath   = "/druid/indexer/v1/task"
)

// DefaultPollInterval is the WaitTask polling period when none is given.
const DefaultPollInterval = 2 * time.Second

// Client issues typed requests through a Transport.
//
// A Client holds no mutable state of its own and is safe for concurrent use
// when its Transport and cache are.
type Client struct {
	transport Transport
	ids       ids.Generator
	cache     *store.Store
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithIDs sets the generator for query and task ids. Default: ids.UUIDv7.
func WithIDs(gen ids.Generator) Option {
	return func(c *Client) { c.ids = gen }
}

// WithCache enables the result cache and the submitted-task log.
func WithCache(s *store.Store) Option {
	return func(c *Client) { c.cache = s }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client over t.
func New(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		ids:       ids.UUIDv7{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query runs a native query and decodes the response as the result shape
// of the query's type.
//
// A query without a queryId gets a generated one, written into q's context.
// The query is checked locally before it is sent: anything the decoder
// would reject fails here with the same *wire.DecodeError.
func (c *Client) Query(ctx context.Context, q query.Query) (result.Result, error) {
	qc := q.QueryContext()
	if qc.QueryID == "" {
		qc.QueryID = c.ids.Generate()
	}

	body, err := query.Encode(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if _, err := query.Decode(body); err != nil {
		return nil, err
	}

	if c.cache != nil {
		res, ok, err := c.cache.Get(ctx, q)
		switch {
		case err != nil:
			c.logger.Warn("result cache read failed", "query_id", qc.QueryID, "error", err)
		case ok:
			c.logger.Debug("result cache hit", "query_id", qc.QueryID, "query_type", q.Type())
			return res, nil
		}
	}

	c.logger.Debug("sending query", "query_id", qc.QueryID, "query_type", q.Type())
	start := time.Now()
	data, err := c.transport.Post(ctx, NativePath, body)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", qc.QueryID, err)
	}
	res, err := result.Decode(q.Type(), data)
	if err != nil {
		return nil, err
	}
	c.logger.Info("query completed",
		"query_id", qc.QueryID,
		"query_type", q.Type(),
		"rows", res.Len(),
		"elapsed", time.Since(start),
	)

	if c.cache != nil {
		if err := c.cache.Put(ctx, q, res); err != nil {
			c.logger.Warn("result cache write failed", "query_id", qc.QueryID, "error", err)
		}
	}
	return res, nil
}

// SQL runs a SQL request and decodes object-format rows.
func (c *Client) SQL(ctx context.Context, req *sqlapi.Request) ([]value.Item, error) {
	switch req.ResultFormat {
	case "":
		req.ResultFormat = sqlapi.ResultFormatObject
	case sqlapi.ResultFormatObject:
	default:
		return nil, fmt.Errorf("unsupported result format %q", req.ResultFormat)
	}

	body, err := sqlapi.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("encode sql request: %w", err)
	}
	c.logger.Debug("sending sql", "parameters", len(req.Parameters))
	data, err := c.transport.Post(ctx, SQLPath, body)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}
	rows, err := sqlapi.DecodeRows(data)
	if err != nil {
		return nil, err
	}
	c.logger.Info("sql completed", "rows", len(rows))
	return rows, nil
}

// SubmitTask sends a task to the overlord and returns the id it accepted.
// Tasks without an id get "<type>_<dataSource>_<generated>".
func (c *Client) SubmitTask(ctx context.Context, task ingest.Task) (string, error) {
	id := ingest.AssignID(c.ids, task)

	body, err := ingest.Encode(task)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	if _, err := ingest.Decode(body); err != nil {
		return "", err
	}

	data, err := c.transport.Post(ctx, TaskPath, body)
	if err != nil {
		return "", fmt.Errorf("submit task %s: %w", id, err)
	}
	var resp ingest.SubmitResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", wire.InvalidPayload("submitResponse", "", "task", err)
	}
	if resp.Task == "" {
		resp.Task = id
	}
	c.logger.Info("task submitted",
		"task_id", resp.Task,
		"task_type", task.Type(),
		"data_source", task.DataSourceName(),
	)

	if c.cache != nil {
		if err := c.cache.RecordTask(ctx, task); err != nil {
			c.logger.Warn("task log write failed", "task_id", resp.Task, "error", err)
		}
	}
	return resp.Task, nil
}

// TaskStatus looks up the current state of a task.
func (c *Client) TaskStatus(ctx context.Context, id string) (ingest.TaskStatus, error) {
	if id == "" {
		return ingest.TaskStatus{}, fmt.Errorf("task id is required")
	}
	data, err := c.transport.Get(ctx, TaskPath+"/"+url.PathEscape(id)+"/status")
	if err != nil {
		return ingest.TaskStatus{}, fmt.Errorf("task status %s: %w", id, err)
	}
	var resp ingest.StatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ingest.TaskStatus{}, wire.InvalidPayload("statusResponse", "", "status", err)
	}
	if resp.Status.ID == "" {
		resp.Status.ID = id
	}
	return resp.Status, nil
}

// WaitTask polls the task until it succeeds or fails, or ctx is done.
// A failed task is returned with a nil error; check Status. On error the
// last status seen is returned alongside it.
func (c *Client) WaitTask(ctx context.Context, id string, interval time.Duration) (ingest.TaskStatus, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last ingest.TaskStatus
	for {
		status, err := c.TaskStatus(ctx, id)
		if err != nil {
			return last, err
		}
		last = status
		if status.Done() {
			c.logger.Info("task finished", "task_id", id, "status", status.Status)
			return status, nil
		}
		c.logger.Debug("task pending", "task_id", id, "status", status.Status)

		select {
		case <-ctx.Done():
			return status, fmt.Errorf("wait for task %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}
