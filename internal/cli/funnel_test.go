package cli

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/client"
	"github.com/roach88/druidkit/internal/funnel"
	"github.com/roach88/druidkit/internal/query"
)

var funnelsDir = filepath.Join("..", "funnel", "testdata", "funnels")

func TestFunnelCompile_Text(t *testing.T) {
	res := runCLI(t, "", "funnel", "compile", funnelsDir)
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "✓ Compiled 2 funnel(s)")
	assert.Contains(t, res.stdout, "signup: 3 step(s)")
	assert.Contains(t, res.stdout, "retention: 2 step(s)")
	assert.Contains(t, res.stdout, "# signup\n{")
}

func TestFunnelCompile_JSON(t *testing.T) {
	res := runCLI(t, "", "--format", "json", "funnel", "compile", funnelsDir)
	require.NoError(t, res.err)

	var resp struct {
		Status string           `json:"status"`
		Data   []CompiledFunnel `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)

	for _, c := range resp.Data {
		q, err := query.Decode(c.Query)
		require.NoError(t, err, "funnel %s", c.ID)
		gb, ok := q.(*query.GroupBy)
		require.True(t, ok)
		assert.Len(t, gb.Aggregations, c.Steps)
		assert.Len(t, gb.PostAggregations, c.Steps)
	}
}

func TestFunnelCompile_OutputDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "compiled")
	res := runCLI(t, "", "funnel", "compile", "-o", out, funnelsDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Wrote canonical queries to "+out)
	assert.NotContains(t, res.stdout, "# signup")

	data, err := os.ReadFile(filepath.Join(out, "signup.json"))
	require.NoError(t, err)

	specs, err := funnel.LoadFile(filepath.Join(funnelsDir, "signup.cue"))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	gb, err := funnel.Compile(specs[0])
	require.NoError(t, err)
	want, err := query.Encode(gb)
	require.NoError(t, err)
	assert.Equal(t, string(want)+"\n", string(data))
}

func TestFunnelCompile_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		res := runCLI(t, "", "funnel", "compile", filepath.Join(t.TempDir(), "nope"))
		require.Error(t, res.err)
		assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	})

	t.Run("no steps", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.cue")
		require.NoError(t, os.WriteFile(path, []byte(`
funnel: empty: {
	dataSource:  "events"
	intervals:   ["2024-01-01T00:00:00+0000/2024-02-01T00:00:00+0000"]
	entityField: "user_id"
	steps: []
}
`), 0o644))

		res := runCLI(t, "", "--format", "json", "funnel", "compile", path)
		require.Error(t, res.err)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeMissingSteps, resp.Error.Code)
	})
}

func TestFunnelRun(t *testing.T) {
	es, url := newEngineStub(t, map[string]stubReply{
		client.NativePath: {http.StatusOK, `[{"version":"v1","timestamp":"2024-01-01T00:00:00.000Z","event":{"0_visit":1000,"1_signup":250,"2_purchase":40}}]`},
	})

	res := runCLI(t, "", "--url", url, "funnel", "run", "--id", "signup", funnelsDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "2024-01-01T00:00:00Z")
	assert.Contains(t, res.stdout, "visit")
	assert.Contains(t, res.stdout, "25.0%")
	assert.Contains(t, res.stdout, "4.0%")
	require.Len(t, es.bodies(client.NativePath), 1)
	assert.Contains(t, es.bodies(client.NativePath)[0], `"queryType":"groupBy"`)
}

func TestFunnelRun_JSON(t *testing.T) {
	_, url := newEngineStub(t, map[string]stubReply{
		client.NativePath: {http.StatusOK, `[{"version":"v1","timestamp":"2024-01-01T00:00:00.000Z","event":{"0_install":80,"1_open":null}}]`},
	})

	res := runCLI(t, "", "--format", "json", "--url", url, "funnel", "run", "--id", "retention", funnelsDir)
	require.NoError(t, res.err)

	var resp struct {
		QueryID string          `json:"query_id"`
		Data    []funnel.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.NotEmpty(t, resp.QueryID)
	require.Len(t, resp.Data, 1)
	require.Len(t, resp.Data[0].Steps, 2)
	assert.Equal(t, 80.0, resp.Data[0].Steps[0].Count)
	assert.Equal(t, 0.0, resp.Data[0].Steps[1].Count)
}

func TestFunnelRun_NeedsID(t *testing.T) {
	res := runCLI(t, "", "funnel", "run", funnelsDir)
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "--id")
}
