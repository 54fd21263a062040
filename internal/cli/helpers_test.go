package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// cliResult is the captured outcome of one CLI invocation.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with args, isolated from the user's
// config file and environment.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv(EnvURL, "")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// engineStub answers fixed bodies per path and records request bodies.
type engineStub struct {
	mu     sync.Mutex
	routes map[string]stubReply
	hits   map[string][]string
}

type stubReply struct {
	code int
	body string
}

func newEngineStub(t *testing.T, routes map[string]stubReply) (*engineStub, string) {
	t.Helper()
	es := &engineStub{routes: routes, hits: make(map[string][]string)}
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)
	return es, srv.URL
}

func (es *engineStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	es.mu.Lock()
	es.hits[r.URL.Path] = append(es.hits[r.URL.Path], string(body))
	rep, ok := es.routes[r.URL.Path]
	es.mu.Unlock()
	if !ok {
		rep = stubReply{http.StatusNotFound, `{"error":"Resource not found"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.code)
	_, _ = io.WriteString(w, rep.body)
}

func (es *engineStub) bodies(path string) []string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return append([]string(nil), es.hits[path]...)
}
