package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/wire"
)

type familyCase struct {
	name   string
	tags   []string
	decode func([]byte) error
	encode func(tag string) ([]byte, error)
}

func caseOf[T wire.Variant](f *wire.Family[T]) familyCase {
	return familyCase{
		name: f.Name(),
		tags: f.Tags(),
		decode: func(data []byte) error {
			_, err := f.Decode(data)
			return err
		},
		encode: func(tag string) ([]byte, error) {
			v, err := f.New(tag)
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		},
	}
}

func allFamilies() []familyCase {
	return []familyCase{
		caseOf(Tasks),
		caseOf(IOConfigs),
		caseOf(TuningConfigs),
		caseOf(PartitionsSpecs),
		caseOf(InputSources),
		caseOf(InputFormats),
		caseOf(GranularitySpecs),
		caseOf(DimensionSchemas),
	}
}

func TestFamilies_RejectUnknownTag(t *testing.T) {
	for _, fc := range allFamilies() {
		t.Run(fc.name, func(t *testing.T) {
			err := fc.decode([]byte(`{"type":"bogus","name":"x"}`))
			require.Error(t, err)

			var de *wire.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, wire.ErrCodeUnknownVariant, de.Code)
			assert.Equal(t, fc.name, de.Family)
			assert.Equal(t, "bogus", de.Tag)
		})
	}
}

func TestFamilies_EncodeWritesOwnTag(t *testing.T) {
	for _, fc := range allFamilies() {
		for _, tag := range fc.tags {
			t.Run(fc.name+"/"+tag, func(t *testing.T) {
				data, err := fc.encode(tag)
				require.NoError(t, err)

				var obj map[string]any
				require.NoError(t, json.Unmarshal(data, &obj))
				assert.Equal(t, tag, obj["type"])
			})
		}
	}
}

func TestNestedUnknownVariant(t *testing.T) {
	_, err := Decode([]byte(`{"type":"index","spec":{
		"dataSchema":{"dataSource":"w","timestampSpec":{"column":"ts"},"dimensionsSpec":{}},
		"ioConfig":{"type":"index","inputSource":{"type":"hdfs","paths":"/x"},"inputFormat":{"type":"json"}}}}`))

	var de *wire.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, wire.ErrCodeUnknownVariant, de.Code)
	assert.Equal(t, "inputSource", de.Family)
	assert.Equal(t, "hdfs", de.Tag)
}

func TestInputs_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		field string
	}{
		{"http without uris", `{"type":"http","uris":[]}`, "uris"},
		{"http with s3 uri", `{"type":"http","uris":["s3://bucket/key"]}`, "uris"},
		{"s3 with both", `{"type":"s3","uris":["s3://b/k"],"prefixes":["s3://b/"]}`, "uris"},
		{"s3 with http prefix", `{"type":"s3","prefixes":["http://b/"]}`, "prefixes"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InputSources.Decode([]byte(tc.input))
			var de *wire.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, wire.ErrCodeInvalidPayload, de.Code)
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestFormats_CSVNeedsColumns(t *testing.T) {
	_, err := InputFormats.Decode([]byte(`{"type":"csv"}`))
	assert.True(t, wire.IsInvalidPayload(err), "got %v", err)

	_, err = InputFormats.Decode([]byte(`{"type":"csv","findColumnsFromHeader":true}`))
	assert.NoError(t, err)
}

func TestTuning_GuaranteedRollupNeedsPartitioning(t *testing.T) {
	_, err := TuningConfigs.Decode([]byte(`{"type":"index_parallel","forceGuaranteedRollup":true}`))
	assert.True(t, wire.IsInvalidPayload(err), "got %v", err)

	_, err = TuningConfigs.Decode([]byte(`{"type":"index_parallel","forceGuaranteedRollup":true,"partitionsSpec":{"type":"dynamic"}}`))
	assert.True(t, wire.IsInvalidPayload(err), "got %v", err)

	_, err = TuningConfigs.Decode([]byte(`{"type":"index_parallel","forceGuaranteedRollup":true,"partitionsSpec":{"type":"single_dim","partitionDimension":"page","targetRowsPerSegment":5000000}}`))
	assert.NoError(t, err)
}

func TestPartitions_HashedExclusive(t *testing.T) {
	_, err := PartitionsSpecs.Decode([]byte(`{"type":"hashed","numShards":2,"targetRowsPerSegment":100}`))
	assert.True(t, wire.IsInvalidPayload(err), "got %v", err)
}
