package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
)

func TestPutGet_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := createTestQuery(t)

	require.NoError(t, s.Put(ctx, q, createTestResult(t, 42)))

	got, ok, err := s.Get(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	ts, isTS := got.(*result.Timeseries)
	require.True(t, isTS, "got %T", got)
	edits, _ := ts.Rows[0].Result.Float("edits")
	assert.Equal(t, 42.0, edits)
}

func TestGet_Miss(t *testing.T) {
	s := createTestStore(t)

	got, ok, err := s.Get(context.Background(), createTestQuery(t))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestPut_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := createTestQuery(t)

	require.NoError(t, s.Put(ctx, q, createTestResult(t, 1)))
	require.NoError(t, s.Put(ctx, q, createTestResult(t, 2)))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count))
	assert.Equal(t, 1, count)

	got, ok, err := s.Get(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	edits, _ := got.(*result.Timeseries).Rows[0].Result.Float("edits")
	assert.Equal(t, 2.0, edits)
}

func TestKey_IgnoresExecutionContext(t *testing.T) {
	a := createTestQuery(t)
	b := createTestQuery(t)
	b.Context = &query.Context{QueryID: "q-123", Priority: 5, Timeout: 1000, Lane: "low"}

	ka, err := Key(a)
	require.NoError(t, err)
	kb, err := Key(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)

	c := createTestQuery(t)
	c.Context = &query.Context{QueryID: "q-456", SkipEmptyBuckets: true}
	kc, err := Key(c)
	require.NoError(t, err)
	assert.NotEqual(t, ka, kc, "result-affecting context keys must change the key")

	d := createTestQuery(t)
	d.Granularity = query.Simple("day")
	kd, err := Key(d)
	require.NoError(t, err)
	assert.NotEqual(t, ka, kd)
	assert.Len(t, ka, 64)
}

func TestGet_MaxAge(t *testing.T) {
	clock := newTestClock()
	s := createTestStore(t, WithClock(clock.Now), WithMaxAge(time.Hour))
	ctx := context.Background()
	q := createTestQuery(t)

	require.NoError(t, s.Put(ctx, q, createTestResult(t, 7)))

	clock.Advance(59 * time.Minute)
	_, ok, err := s.Get(ctx, q)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok, err = s.Get(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok, "entries older than the max age are misses")
}

func TestPurge(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	q1 := createTestQuery(t)
	q2 := createTestQuery(t)
	q2.Granularity = query.Simple("day")
	require.NoError(t, s.Put(ctx, q1, createTestResult(t, 1)))
	require.NoError(t, s.Put(ctx, q2, createTestResult(t, 1)))

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := s.Get(ctx, q1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordTask_Idempotent(t *testing.T) {
	clock := newTestClock()
	s := createTestStore(t, WithClock(clock.Now))
	ctx := context.Background()

	kill := &ingest.KillTask{ID: "kill_wikipedia_1", DataSource: "wikipedia"}
	require.NoError(t, s.RecordTask(ctx, kill))
	clock.Advance(time.Minute)
	require.NoError(t, s.RecordTask(ctx, kill))

	records, err := s.Tasks(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, clock.Now().Add(-time.Minute).Equal(records[0].SubmittedAt), "first submission time is kept")
}

func TestRecordTask_RequiresID(t *testing.T) {
	s := createTestStore(t)
	err := s.RecordTask(context.Background(), &ingest.KillTask{DataSource: "wikipedia"})
	assert.ErrorContains(t, err, "no id")
}
