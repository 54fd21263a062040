package store

import (
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
	"github.com/roach88/druidkit/internal/value"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// createTestQuery returns a small timeseries query over one day.
func createTestQuery(t *testing.T) *query.Timeseries {
	t.Helper()
	iv, err := value.ParseInterval("2015-09-12T00:00:00+0000/2015-09-13T00:00:00+0000")
	if err != nil {
		t.Fatalf("ParseInterval() failed: %v", err)
	}
	return &query.Timeseries{
		DataSource:   query.Table("wikipedia"),
		Intervals:    []value.Interval{iv},
		Granularity:  query.Simple("hour"),
		Aggregations: query.AggregatorList{&query.CountAggregator{Name: "edits"}},
	}
}

// createTestResult decodes a one-row timeseries response.
func createTestResult(t *testing.T, edits int) result.Result {
	t.Helper()
	res, err := result.Decode("timeseries", []byte(
		`[{"timestamp":"2015-09-12T00:00:00.000Z","result":{"edits":`+strconv.Itoa(edits)+`}}]`))
	if err != nil {
		t.Fatalf("result.Decode() failed: %v", err)
	}
	return res
}
