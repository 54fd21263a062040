package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/wire"
)

func TestReal_Decode(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  float64
	}{
		{"positive infinity", `"Infinity"`, math.Inf(1)},
		{"negative infinity", `"-Infinity"`, math.Inf(-1)},
		{"number", `3.25`, 3.25},
		{"integer", `12`, 12},
		{"exponent", `1e3`, 1000},
		{"numeric string", `"3.5"`, 3.5},
		{"grouped string", `"1,234.5"`, 1234.5},
		{"negative string", `"-0.25"`, -0.25},
		{"exponent string", `"1.5e3"`, 1500},
		{"millions", `"1,234,567"`, 1234567},
		{"negative grouped", `"-12,345"`, -12345},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var r Real
			require.NoError(t, json.Unmarshal([]byte(tc.input), &r))
			assert.Equal(t, tc.want, r.Float64())
		})
	}
}

func TestReal_DecodeErrors(t *testing.T) {
	for _, input := range []string{`"abc"`, `"infinity"`, `"NaN"`, `""`, `"1.2.3"`, `true`, `{}`,
		`"1,2,3"`, `",123"`, `"1,2345"`, `"1234,5"`, `"1,234.5,6"`, `"1,234,"`} {
		t.Run(input, func(t *testing.T) {
			var r Real
			err := json.Unmarshal([]byte(input), &r)
			require.Error(t, err)
			assert.True(t, wire.HasCode(err, wire.ErrCodeNumberParse), "got %v", err)
		})
	}
}

func TestReal_Encode(t *testing.T) {
	testCases := []struct {
		in   Real
		want string
	}{
		{3.5, `3.5`},
		{12, `12`},
		{Inf(1), `"Infinity"`},
		{Inf(-1), `"-Infinity"`},
		{-0.125, `-0.125`},
	}

	for _, tc := range testCases {
		data, err := json.Marshal(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(data))
	}

	_, err := json.Marshal(Real(math.NaN()))
	assert.Error(t, err)
}

func TestReal_RoundTrip(t *testing.T) {
	for _, r := range []Real{0, 1.5, -7, Inf(1), Inf(-1), 1e-9} {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var out Real
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, r, out)
	}
	assert.True(t, Inf(1).IsInf())
	assert.False(t, Real(2).IsInf())
}

func TestDeriveSeparators(t *testing.T) {
	assert.Equal(t, numberSeparators{decimal: '.', group: ','}, separators)
}
