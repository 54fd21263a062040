package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_RoundTrip(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2012-01-01T00:00:00.000Z"`), &ts))
	assert.True(t, ts.Equal(time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2012-01-01T00:00:00.000Z"`, string(data))
}

func TestTimestamp_AcceptsOffsetsAndNoFraction(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2012-01-01T02:00:00+02:00"`), &ts))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2012-01-01T00:00:00.000Z"`, string(data))
}

func TestTimestamp_Invalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}
