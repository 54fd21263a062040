package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/ids"
	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
	"github.com/roach88/druidkit/internal/sqlapi"
	"github.com/roach88/druidkit/internal/store"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// fakeEngine serves canned bodies per path and records what it received.
type fakeEngine struct {
	mu       sync.Mutex
	replies  map[string][]reply
	requests []recorded
}

type reply struct {
	code int
	body string
}

type recorded struct {
	method string
	path   string
	ctype  string
	body   string
}

func newFakeEngine(t *testing.T) (*fakeEngine, *HTTPTransport) {
	t.Helper()
	fe := &fakeEngine{replies: make(map[string][]reply)}
	srv := httptest.NewServer(fe)
	t.Cleanup(srv.Close)
	return fe, NewHTTPTransport(HTTPConfig{BaseURL: srv.URL + "/"})
}

// on queues replies for path; the last one repeats.
func (fe *fakeEngine) on(path string, replies ...reply) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.replies[path] = append(fe.replies[path], replies...)
}

func (fe *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fe.mu.Lock()
	fe.requests = append(fe.requests, recorded{
		method: r.Method,
		path:   r.URL.EscapedPath(),
		ctype:  r.Header.Get("Content-Type"),
		body:   string(body),
	})
	queue := fe.replies[r.URL.EscapedPath()]
	var rep reply
	switch len(queue) {
	case 0:
		rep = reply{code: http.StatusNotFound, body: `{"error":"Resource not found"}`}
	case 1:
		rep = queue[0]
	default:
		rep = queue[0]
		fe.replies[r.URL.EscapedPath()] = queue[1:]
	}
	fe.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.code)
	_, _ = io.WriteString(w, rep.body)
}

func (fe *fakeEngine) received() []recorded {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return append([]recorded(nil), fe.requests...)
}

var day = value.MustInterval(
	time.Date(2015, 9, 12, 0, 0, 0, 0, time.UTC),
	time.Date(2015, 9, 13, 0, 0, 0, 0, time.UTC),
)

func editsQuery() *query.Timeseries {
	return &query.Timeseries{
		DataSource:   query.Table("wikipedia"),
		Intervals:    []value.Interval{day},
		Granularity:  query.Simple("all"),
		Aggregations: query.AggregatorList{&query.CountAggregator{Name: "edits"}},
	}
}

const editsResponse = `[{"timestamp":"2015-09-12T00:00:00.000Z","result":{"edits":39244}}]`

func TestQuery_SendsCanonicalBodyWithQueryID(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(NativePath, reply{http.StatusOK, editsResponse})
	c := New(tr, WithIDs(ids.NewFixed("q-1")))

	q := editsQuery()
	res, err := c.Query(context.Background(), q)
	require.NoError(t, err)

	ts, ok := res.(*result.Timeseries)
	require.True(t, ok, "want *result.Timeseries, got %T", res)
	require.Len(t, ts.Rows, 1)
	edits, ok := ts.Rows[0].Result.Float("edits")
	require.True(t, ok)
	assert.Equal(t, 39244.0, edits)

	assert.Equal(t, "q-1", q.Context.QueryID)

	reqs := fe.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "application/json", reqs[0].ctype)
	want, err := query.Encode(q)
	require.NoError(t, err)
	assert.Equal(t, string(want), reqs[0].body)
	assert.Contains(t, reqs[0].body, `"context":{"queryId":"q-1"}`)
}

func TestQuery_KeepsExistingQueryID(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(NativePath, reply{http.StatusOK, editsResponse})
	c := New(tr, WithIDs(ids.NewFixed()))

	q := editsQuery()
	q.Context = &query.Context{QueryID: "mine"}
	_, err := c.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "mine", q.Context.QueryID)
}

func TestQuery_InvalidQueryNotSent(t *testing.T) {
	fe, tr := newFakeEngine(t)
	c := New(tr, WithIDs(ids.NewFixed("q-1")))

	q := editsQuery()
	q.Intervals = nil
	_, err := c.Query(context.Background(), q)
	require.Error(t, err)
	assert.True(t, wire.IsInvalidPayload(err))
	assert.Empty(t, fe.received())
}

func TestQuery_EngineError(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(NativePath, reply{http.StatusBadRequest,
		`{"error":"Plan validation failed","errorMessage":"Unknown column [foo]","errorClass":"org.apache.calcite.tools.ValidationException","host":null}`})
	c := New(tr, WithIDs(ids.NewFixed("q-1")))

	_, err := c.Query(context.Background(), editsQuery())
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	require.NotNil(t, se.Engine)
	assert.Equal(t, "Plan validation failed", se.Engine.Category)
	assert.Contains(t, err.Error(), "Unknown column [foo]")
	assert.Contains(t, err.Error(), "q-1")
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestQuery_MalformedResponse(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(NativePath, reply{http.StatusOK, `[{"timestamp":"2015-09-12T00:00:00.000Z","result":{"edits":true}}]`})
	c := New(tr, WithIDs(ids.NewFixed("q-1")))

	_, err := c.Query(context.Background(), editsQuery())
	require.Error(t, err)
	assert.True(t, wire.HasCode(err, wire.ErrCodeUnclassifiable))
}

func TestQuery_UsesCache(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	fe, tr := newFakeEngine(t)
	fe.on(NativePath, reply{http.StatusOK, editsResponse})
	c := New(tr, WithIDs(ids.NewFixed("q-1", "q-2")), WithCache(s))

	first, err := c.Query(context.Background(), editsQuery())
	require.NoError(t, err)
	second, err := c.Query(context.Background(), editsQuery())
	require.NoError(t, err)

	assert.Len(t, fe.received(), 1, "second query should be served from the cache")
	a, err := result.Encode(first)
	require.NoError(t, err)
	b, err := result.Encode(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSQL(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(SQLPath, reply{http.StatusOK, `[{"page":"Main_Page","edits":12},{"page":"Talk","edits":null}]`})
	c := New(tr)

	req, err := sqlapi.NewRequest("SELECT page, COUNT(*) AS edits FROM wikipedia WHERE channel = ? GROUP BY 1", "#en.wikipedia")
	require.NoError(t, err)
	rows, err := c.SQL(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	page, ok := rows[0].Dimension("page")
	require.True(t, ok)
	assert.Equal(t, value.One("Main_Page"), page)
	assert.True(t, rows[1].IsNull("edits"))

	reqs := fe.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, SQLPath, reqs[0].path)
	assert.Contains(t, reqs[0].body, `"parameters":[{"type":"VARCHAR","value":"#en.wikipedia"}]`)
	assert.NotContains(t, reqs[0].body, "channel = '#en.wikipedia'")
}

func TestSQL_RejectsOtherResultFormats(t *testing.T) {
	fe, tr := newFakeEngine(t)
	c := New(tr)

	_, err := c.SQL(context.Background(), &sqlapi.Request{Query: "SELECT 1", ResultFormat: "csv"})
	require.Error(t, err)
	assert.Empty(t, fe.received())
}

func TestSubmitTask(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	fe, tr := newFakeEngine(t)
	fe.on(TaskPath, reply{http.StatusOK, `{"task":"kill_wikipedia_t-1"}`})
	c := New(tr, WithIDs(ids.NewFixed("t-1")), WithCache(s))

	task := &ingest.KillTask{DataSource: "wikipedia", Interval: day}
	id, err := c.SubmitTask(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "kill_wikipedia_t-1", id)
	assert.Equal(t, "kill_wikipedia_t-1", task.ID)

	reqs := fe.received()
	require.Len(t, reqs, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &sent))
	assert.Equal(t, "kill", sent["type"])
	assert.Equal(t, "kill_wikipedia_t-1", sent["id"])

	logged, err := s.Tasks(context.Background(), "wikipedia")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "kill_wikipedia_t-1", logged[0].ID)
}

func TestSubmitTask_InvalidTaskNotSent(t *testing.T) {
	fe, tr := newFakeEngine(t)
	c := New(tr, WithIDs(ids.NewFixed("t-1")))

	task := &ingest.CompactTask{DataSource: "wikipedia"}
	_, err := c.SubmitTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, wire.IsInvalidPayload(err))
	assert.Empty(t, fe.received())
}

func TestTaskStatus(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(TaskPath+"/kill_wikipedia_t-1/status", reply{http.StatusOK,
		`{"task":"kill_wikipedia_t-1","status":{"id":"kill_wikipedia_t-1","type":"kill","status":"SUCCESS","duration":1200}}`})
	c := New(tr)

	status, err := c.TaskStatus(context.Background(), "kill_wikipedia_t-1")
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusSuccess, status.Status)
	assert.Equal(t, int64(1200), status.Duration)
	assert.True(t, status.Done())
}

func TestTaskStatus_NotFound(t *testing.T) {
	_, tr := newFakeEngine(t)
	c := New(tr)

	_, err := c.TaskStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestTaskStatus_EscapesID(t *testing.T) {
	fe, tr := newFakeEngine(t)
	c := New(tr)

	_, _ = c.TaskStatus(context.Background(), "a/b")
	reqs := fe.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, TaskPath+"/a%2Fb/status", reqs[0].path)
}

func TestWaitTask_PollsUntilDone(t *testing.T) {
	fe, tr := newFakeEngine(t)
	path := TaskPath + "/t/status"
	fe.on(path,
		reply{http.StatusOK, `{"task":"t","status":{"id":"t","status":"RUNNING"}}`},
		reply{http.StatusOK, `{"task":"t","status":{"id":"t","status":"RUNNING"}}`},
		reply{http.StatusOK, `{"task":"t","status":{"id":"t","status":"FAILED","errorMsg":"boom"}}`},
	)
	c := New(tr)

	status, err := c.WaitTask(context.Background(), "t", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusFailed, status.Status)
	assert.Equal(t, "boom", status.ErrorMsg)
	assert.Len(t, fe.received(), 3)
}

func TestWaitTask_ContextCancelled(t *testing.T) {
	fe, tr := newFakeEngine(t)
	fe.on(TaskPath+"/t/status", reply{http.StatusOK, `{"task":"t","status":{"id":"t","status":"RUNNING"}}`})
	c := New(tr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	status, err := c.WaitTask(ctx, "t", 5*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ingest.StatusRunning, status.Status)
}
