package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_SortsKeys(t *testing.T) {
	out, err := Canonicalize([]byte(`{"zebra":1,"apple":{"y":true,"x":null},"mango":[3,"b"]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"apple":{"x":null,"y":true},"mango":[3,"b"],"zebra":1}`, string(out))
}

func TestCanonicalize_NoEscaping(t *testing.T) {
	out, err := Canonicalize([]byte(`{"uri":"s3://bucket/path","expr":"a < b && c > d"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"expr":"a < b && c > d","uri":"s3://bucket/path"}`, string(out))
}

func TestCanonicalize_PreservesNumberText(t *testing.T) {
	out, err := Canonicalize([]byte(`{"a":12.0,"b":1e3,"c":-0.5,"d":9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":12.0,"b":1e3,"c":-0.5,"d":9007199254740993}`, string(out))
}

func TestCanonicalize_Whitespace(t *testing.T) {
	out, err := Canonicalize([]byte("{\n  \"b\" : [ 1 , 2 ],\n  \"a\" : \"x\"\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":[1,2]}`, string(out))
}

func TestCanonicalize_Rejects(t *testing.T) {
	_, err := Canonicalize([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = Canonicalize([]byte(`{} {}`))
	assert.Error(t, err)
}

func TestCanonicalize_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF5E.
	out, err := Canonicalize([]byte(`{"～":1,"😀":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"😀":2,"～":1}`, string(out))
}

func TestMarshal_Deterministic(t *testing.T) {
	v := map[string]any{"b": []int{1, 2}, "a": map[string]string{"y": "1", "x": "2"}}

	first, err := Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, `{"a":{"x":"2","y":"1"},"b":[1,2]}`, string(first))
}

func TestMarshalTagged(t *testing.T) {
	out, err := MarshalTagged("selector", struct {
		Dimension string `json:"dimension"`
		Value     string `json:"value"`
	}{"country", "SanSeriffe"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"selector","dimension":"country","value":"SanSeriffe"}`, string(out))

	out, err = MarshalTagged("true", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"true"}`, string(out))

	_, err = MarshalTagged("bad", []int{1})
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a, err := Hash("druidkit/test/v1", map[string]int{"x": 1, "y": 2})
	require.NoError(t, err)
	b, err := Hash("druidkit/test/v1", map[string]int{"y": 2, "x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Hash("druidkit/other/v1", map[string]int{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDecodeError_Message(t *testing.T) {
	assert.Equal(t, `UNKNOWN_VARIANT filter "bogus"`, UnknownVariant("filter", "bogus").Error())
	assert.Equal(t, `INTERVAL_PARSE text "x": missing '/'`, IntervalParse("x", "missing '/'").Error())
	assert.True(t, HasCode(Unclassifiable("k", "true"), ErrCodeUnclassifiable))
	assert.False(t, HasCode(nil, ErrCodeUnclassifiable))
}
