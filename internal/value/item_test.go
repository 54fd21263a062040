package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/wire"
)

func TestItem_Partition(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"pageViews":12.0,"country":"DE","userAgent":null}`), &it))

	assert.Equal(t, map[string]Numbers{"pageViews": One(Real(12))}, it.Metrics)
	assert.Equal(t, map[string]Strings{"country": One("DE")}, it.Dimensions)
	assert.Equal(t, map[string]struct{}{"userAgent": {}}, it.Nulls)

	views, ok := it.Float("pageViews")
	require.True(t, ok)
	assert.Equal(t, 12.0, views)
	assert.True(t, it.IsNull("userAgent"))
	assert.Equal(t, []string{"country", "pageViews", "userAgent"}, it.Keys())
}

func TestItem_EveryKeyInExactlyOneGroup(t *testing.T) {
	input := `{"n":1,"s":"x","ns":[1,2],"ss":["a","b"],"z":null,"inf":"Infinity","empty":[],"neg":[-1,"-Infinity"]}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(input), &it))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(input), &raw))
	require.Equal(t, len(raw), it.Len())

	for key := range raw {
		groups := 0
		if _, ok := it.Dimensions[key]; ok {
			groups++
		}
		if _, ok := it.Metrics[key]; ok {
			groups++
		}
		if _, ok := it.Nulls[key]; ok {
			groups++
		}
		assert.Equal(t, 1, groups, "key %q", key)
	}

	// strings are tried first, so a bare "Infinity" is a dimension value
	assert.Contains(t, it.Dimensions, "inf")
	assert.Contains(t, it.Dimensions, "empty")
	assert.Contains(t, it.Metrics, "neg")
}

func TestItem_RoundTrip(t *testing.T) {
	input := `{"count":3,"country":"DE","tags":["a","b"],"totals":[1.5,2],"userAgent":null}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(input), &it))

	data, err := wire.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(data))

	var again Item
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, it, again)
}

func TestItem_Unclassifiable(t *testing.T) {
	for _, input := range []string{`{"flag":true}`, `{"nested":{"a":1}}`, `{"mixed":["a",1]}`,
		`{"tags":["a",null]}`, `{"m":[1,null]}`, `{"x":[null]}`} {
		t.Run(input, func(t *testing.T) {
			var it Item
			err := json.Unmarshal([]byte(input), &it)
			require.Error(t, err)
			assert.True(t, wire.HasCode(err, wire.ErrCodeUnclassifiable), "got %v", err)
		})
	}
}

func TestItem_NotAnObject(t *testing.T) {
	var it Item
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &it))
}

func TestItem_Setters(t *testing.T) {
	var it Item
	it.SetDimension("k", One("v"))
	it.SetMetric("k", One(Real(1)))
	assert.Equal(t, 1, it.Len())
	assert.Contains(t, it.Metrics, "k")

	it.SetNull("k")
	assert.True(t, it.IsNull("k"))
	assert.Empty(t, it.Metrics)

	data, err := json.Marshal(it)
	require.NoError(t, err)
	assert.Equal(t, `{"k":null}`, string(data))
}

func TestItem_DuplicateGroupsRejected(t *testing.T) {
	it := NewItem()
	it.Dimensions["k"] = One("v")
	it.Metrics["k"] = One(Real(1))
	_, err := json.Marshal(it)
	assert.Error(t, err)
}
