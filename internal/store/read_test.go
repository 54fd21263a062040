package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/ingest"
)

func TestTasks_EmptySliceNotNil(t *testing.T) {
	s := createTestStore(t)

	records, err := s.Tasks(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestTasks_OrderAndFilter(t *testing.T) {
	clock := newTestClock()
	s := createTestStore(t, WithClock(clock.Now))
	ctx := context.Background()

	// Same timestamp: id COLLATE BINARY breaks the tie.
	require.NoError(t, s.RecordTask(ctx, &ingest.KillTask{ID: "b", DataSource: "wikipedia"}))
	require.NoError(t, s.RecordTask(ctx, &ingest.KillTask{ID: "a", DataSource: "wikipedia"}))
	clock.Advance(time.Second)
	require.NoError(t, s.RecordTask(ctx, &ingest.KillTask{ID: "0", DataSource: "koalas"}))

	all, err := s.Tasks(ctx, "")
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "0"}, ids)

	koalas, err := s.Tasks(ctx, "koalas")
	require.NoError(t, err)
	require.Len(t, koalas, 1)
	assert.Equal(t, "kill", koalas[0].Type)
	assert.IsType(t, &ingest.KillTask{}, koalas[0].Task)
	assert.Equal(t, "koalas", koalas[0].Task.DataSourceName())
}
