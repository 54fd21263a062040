package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/ids"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

const wikipediaTask = `{
	"type": "index_parallel",
	"spec": {
		"dataSchema": {
			"dataSource": "wikipedia",
			"timestampSpec": {"column": "time", "format": "iso"},
			"dimensionsSpec": {
				"dimensions": ["page", "channel", {"type": "long", "name": "delta"}, {"type": "string", "name": "user", "createBitmapIndex": false}]
			},
			"metricsSpec": [
				{"type": "count", "name": "edits"},
				{"type": "thetaSketch", "name": "users", "fieldName": "user"}
			],
			"granularitySpec": {"type": "uniform", "segmentGranularity": "DAY", "queryGranularity": "HOUR", "rollup": true,
				"intervals": ["2015-09-12T00:00:00+0000/2015-09-13T00:00:00+0000"]},
			"transformSpec": {
				"filter": {"type": "not", "field": {"type": "selector", "dimension": "isRobot", "value": "true"}},
				"transforms": [{"type": "expression", "name": "page", "expression": "upper(page)"}]
			}
		},
		"ioConfig": {
			"type": "index_parallel",
			"inputSource": {"type": "http", "uris": ["https://druid.apache.org/data/wikipedia.json.gz"]},
			"inputFormat": {"type": "json", "flattenSpec": {"fields": [{"type": "path", "name": "city", "expr": "$.geo.city"}]}}
		},
		"tuningConfig": {
			"type": "index_parallel",
			"forceGuaranteedRollup": true,
			"partitionsSpec": {"type": "hashed", "numShards": 4, "partitionDimensions": ["page"]},
			"maxNumConcurrentSubTasks": 2
		}
	},
	"context": {"priority": 50}
}`

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(value.IntervalLayout, s)
	require.NoError(t, err)
	return ts
}

func roundTrip(t *testing.T, input string) Task {
	t.Helper()

	task, err := Decode([]byte(input))
	require.NoError(t, err)

	out, err := Encode(task)
	require.NoError(t, err)
	want, err := wire.Canonicalize([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(out))
	return task
}

func TestParallelIndexTask_RoundTrip(t *testing.T) {
	task := roundTrip(t, wikipediaTask)

	pit, ok := task.(*ParallelIndexTask)
	require.True(t, ok, "got %T", task)
	assert.Equal(t, "wikipedia", pit.DataSourceName())

	dims := pit.Spec.DataSchema.DimensionsSpec.Dimensions
	require.Len(t, dims, 4)
	assert.Equal(t, "page", dims[0].ColumnName())
	assert.IsType(t, &LongDimension{}, dims[2])

	io, ok := pit.Spec.IOConfig.(*ParallelIO)
	require.True(t, ok)
	assert.IsType(t, &HTTPInput{}, io.InputSource)
	assert.IsType(t, &JSONFormat{}, io.InputFormat)

	tuning, ok := pit.Spec.TuningConfig.(*ParallelTuning)
	require.True(t, ok)
	assert.IsType(t, &HashedPartitions{}, tuning.PartitionsSpec)

	assert.IsType(t, &query.NotFilter{}, pit.Spec.DataSchema.TransformSpec.Filter)
}

func TestIndexTask_ReindexFromDruid(t *testing.T) {
	task := roundTrip(t, `{
		"type": "index",
		"id": "reindex-1",
		"spec": {
			"dataSchema": {"dataSource": "wikipedia_v2", "timestampSpec": {"column": "__time", "format": "millis"}, "dimensionsSpec": {"useSchemaDiscovery": true}},
			"ioConfig": {"type": "index", "inputSource": {"type": "druid", "dataSource": "wikipedia",
				"interval": "2015-09-12T00:00:00+0000/2015-09-13T00:00:00+0000",
				"filter": {"type": "selector", "dimension": "channel", "value": "#en.wikipedia"}}}
		}
	}`)
	assert.Equal(t, "reindex-1", task.TaskID())
}

func TestKillAndCompact_RoundTrip(t *testing.T) {
	roundTrip(t, `{"type":"kill","dataSource":"wikipedia","interval":"2015-01-01T00:00:00+0000/2016-01-01T00:00:00+0000","markAsUnused":true}`)
	roundTrip(t, `{"type":"compact","dataSource":"wikipedia",
		"ioConfig":{"type":"compact","inputSpec":{"type":"interval","interval":"2015-01-01T00:00:00+0000/2016-01-01T00:00:00+0000"}},
		"tuningConfig":{"type":"index_parallel","partitionsSpec":{"type":"range","partitionDimensions":["channel","page"]}}}`)
}

func TestCompact_Constructor(t *testing.T) {
	iv := value.MustInterval(
		mustTime(t, "2015-01-01T00:00:00+0000"),
		mustTime(t, "2015-02-01T00:00:00+0000"),
	)
	out, err := Encode(Compact("wikipedia", iv))
	require.NoError(t, err)
	assert.Equal(t,
		`{"dataSource":"wikipedia","ioConfig":{"inputSpec":{"interval":"2015-01-01T00:00:00+0000/2015-02-01T00:00:00+0000","type":"interval"},"type":"compact"},"type":"compact"}`,
		string(out))
}

func TestTask_Validation(t *testing.T) {
	schema := `"dataSchema":{"dataSource":"w","timestampSpec":{"column":"ts"},"dimensionsSpec":{}}`
	local := `"inputSource":{"type":"local","baseDir":"/data","filter":"*.json"}`
	testCases := []struct {
		name  string
		input string
		field string
	}{
		{
			name:  "missing data source",
			input: `{"type":"index","spec":{"dataSchema":{"dataSource":"","timestampSpec":{"column":"ts"},"dimensionsSpec":{}},"ioConfig":{"type":"index",` + local + `,"inputFormat":{"type":"json"}}}}`,
			field: "dataSource",
		},
		{
			name:  "missing timestamp column",
			input: `{"type":"index","spec":{"dataSchema":{"dataSource":"w","timestampSpec":{"column":""},"dimensionsSpec":{}},"ioConfig":{"type":"index",` + local + `,"inputFormat":{"type":"json"}}}}`,
			field: "timestampSpec",
		},
		{
			name:  "null ioConfig",
			input: `{"type":"index","spec":{` + schema + `,"ioConfig":null}}`,
			field: "ioConfig",
		},
		{
			name:  "ioConfig of another task type",
			input: `{"type":"index_parallel","spec":{` + schema + `,"ioConfig":{"type":"index",` + local + `,"inputFormat":{"type":"json"}}}}`,
			field: "ioConfig",
		},
		{
			name:  "tuningConfig of another task type",
			input: `{"type":"index","spec":{` + schema + `,"ioConfig":{"type":"index",` + local + `,"inputFormat":{"type":"json"}},"tuningConfig":{"type":"index_parallel"}}}`,
			field: "tuningConfig",
		},
		{
			name:  "raw input without format",
			input: `{"type":"index","spec":{` + schema + `,"ioConfig":{"type":"index",` + local + `}}}`,
			field: "inputFormat",
		},
		{
			name:  "compact without interval input",
			input: `{"type":"compact","dataSource":"w","ioConfig":{"type":"compact","inputSpec":{"type":"segments","interval":"2015-01-01T00:00:00+0000/2016-01-01T00:00:00+0000"}}}`,
			field: "ioConfig",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.input))
			require.Error(t, err)
			assert.True(t, wire.IsInvalidPayload(err), "got %v", err)

			var de *wire.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestAssignID(t *testing.T) {
	gen := ids.NewFixed("0192", "0193")

	kill := &KillTask{DataSource: "wikipedia"}
	assert.Equal(t, "kill_wikipedia_0192", AssignID(gen, kill))
	assert.Equal(t, "kill_wikipedia_0192", kill.ID)

	// An id set by the caller is kept and no id is consumed.
	named := &IndexTask{ID: "mine"}
	assert.Equal(t, "mine", AssignID(gen, named))
	assert.Equal(t, "compact_wikipedia_0193", AssignID(gen, &CompactTask{DataSource: "wikipedia"}))
}

func TestTaskStatus_Done(t *testing.T) {
	for status, done := range map[string]bool{
		StatusRunning: false,
		StatusSuccess: true,
		StatusFailed:  true,
		"WAITING":     false,
	} {
		t.Run(status, func(t *testing.T) {
			assert.Equal(t, done, TaskStatus{Status: status}.Done())
		})
	}
}
