package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidkit/internal/wire"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInterval_WireForm(t *testing.T) {
	iv := MustInterval(date(2013, 8, 31), date(2013, 9, 1))

	data, err := json.Marshal(iv)
	require.NoError(t, err)
	assert.Equal(t, `"2013-08-31T00:00:00+0000/2013-09-01T00:00:00+0000"`, string(data))
}

func TestInterval_RoundTrip(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*3600)
	testCases := []struct {
		name       string
		start, end time.Time
	}{
		{"day", date(2013, 8, 31), date(2013, 9, 1)},
		{"empty", date(2020, 1, 1), date(2020, 1, 1)},
		{"offset input", time.Date(2021, 6, 1, 2, 30, 0, 0, berlin), time.Date(2021, 6, 2, 0, 0, 0, 0, berlin)},
		{"sub-second truncated", time.Date(2022, 1, 1, 0, 0, 0, 999, time.UTC), date(2022, 2, 1)},
		{"leap day", date(2024, 2, 29), date(2024, 3, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			iv, err := NewInterval(tc.start, tc.end)
			require.NoError(t, err)

			data, err := json.Marshal(iv)
			require.NoError(t, err)

			var out Interval
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, iv, out)
			assert.True(t, out.Start.Equal(tc.start.Truncate(time.Second)))
		})
	}
}

func TestInterval_OffsetRenderedAsUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	iv := MustInterval(time.Date(2020, 1, 1, 9, 0, 0, 0, tokyo), time.Date(2020, 1, 2, 9, 0, 0, 0, tokyo))
	assert.Equal(t, "2020-01-01T00:00:00+0000/2020-01-02T00:00:00+0000", iv.String())
}

func TestInterval_ParseNonUTCOffset(t *testing.T) {
	iv, err := ParseInterval("2020-01-01T09:00:00+0900/2020-01-01T10:00:00+0900")
	require.NoError(t, err)
	assert.Equal(t, MustInterval(date(2020, 1, 1), date(2020, 1, 1).Add(time.Hour)), iv)
}

func TestNewInterval_EndBeforeStart(t *testing.T) {
	_, err := NewInterval(date(2020, 2, 1), date(2020, 1, 1))
	assert.Error(t, err)
}

func TestInterval_MarshalRejectsUnrepresentableLiteral(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	testCases := []struct {
		name string
		iv   Interval
	}{
		{"end before start", Interval{Start: date(2020, 2, 1), End: date(2020, 1, 1)}},
		{"sub-second start", Interval{Start: time.Date(2020, 1, 1, 0, 0, 0, 500, cet), End: date(2020, 2, 1)}},
		{"sub-second end", Interval{Start: date(2020, 1, 1), End: date(2020, 2, 1).Add(time.Millisecond)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := json.Marshal(tc.iv)
			assert.Error(t, err)
		})
	}
}

func TestInterval_LiteralInOtherZoneRoundTrips(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	lit := Interval{Start: time.Date(2020, 1, 1, 1, 0, 0, 0, cet), End: time.Date(2020, 1, 2, 1, 0, 0, 0, cet)}

	data, err := json.Marshal(lit)
	require.NoError(t, err)
	var out Interval
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Start.Equal(lit.Start))
	assert.True(t, out.End.Equal(lit.End))
}

func TestParseInterval_Errors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"no slash", "2013-08-31T00:00:00+0000"},
		{"two slashes", "2013-08-31T00:00:00+0000/2013-09-01T00:00:00+0000/2013-09-02T00:00:00+0000"},
		{"empty start", "/2013-09-01T00:00:00+0000"},
		{"empty end", "2013-08-31T00:00:00+0000/"},
		{"bad start", "yesterday/2013-09-01T00:00:00+0000"},
		{"iso Z form", "2013-08-31T00:00:00Z/2013-09-01T00:00:00Z"},
		{"reversed", "2013-09-01T00:00:00+0000/2013-08-31T00:00:00+0000"},
		{"empty", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseInterval(tc.text)
			require.Error(t, err)
			assert.True(t, wire.HasCode(err, wire.ErrCodeIntervalParse), "got %v", err)

			var de *wire.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.text, de.Text)
		})
	}
}

func TestInterval_UnmarshalNonString(t *testing.T) {
	var iv Interval
	err := json.Unmarshal([]byte(`42`), &iv)
	assert.True(t, wire.HasCode(err, wire.ErrCodeIntervalParse))
}

func TestInterval_Contains(t *testing.T) {
	iv := MustInterval(date(2020, 1, 1), date(2020, 1, 2))
	assert.True(t, iv.Contains(date(2020, 1, 1)))
	assert.False(t, iv.Contains(date(2020, 1, 2)))
	assert.Equal(t, 24*time.Hour, iv.Duration())
}
