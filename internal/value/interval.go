package value

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/druidkit/internal/wire"
)

// IntervalLayout is the timestamp layout of both interval endpoints.
// Endpoints are always rendered in UTC, so the offset is always "+0000".
const IntervalLayout = "2006-01-02T15:04:05-0700"

// Interval is a half-open time range [Start, End).
//
// Wire form: "2013-08-31T00:00:00+0000/2013-09-01T00:00:00+0000".
// Build intervals with NewInterval or ParseInterval; both keep Start <= End,
// UTC, and whole-second precision, which is what the wire form can carry.
// A literal must already satisfy that: encoding rejects End before Start
// and sub-second endpoints, and renders any zone as UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval normalizes start and end to UTC whole seconds.
// Returns an error if end is before start.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{
		Start: start.UTC().Truncate(time.Second),
		End:   end.UTC().Truncate(time.Second),
	}
	if iv.End.Before(iv.Start) {
		return Interval{}, fmt.Errorf("interval end %s is before start %s",
			iv.End.Format(IntervalLayout), iv.Start.Format(IntervalLayout))
	}
	return iv, nil
}

// MustInterval is like NewInterval but panics on error.
// Use only in tests or with literal inputs known to be valid.
func MustInterval(start, end time.Time) Interval {
	iv, err := NewInterval(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// ParseInterval parses the wire form. The text is split on the first '/';
// both halves must be non-empty, contain no further '/', and parse with
// IntervalLayout. No fallback layouts are attempted.
func ParseInterval(text string) (Interval, error) {
	startText, endText, found := strings.Cut(text, "/")
	if !found {
		return Interval{}, wire.IntervalParse(text, "missing '/'")
	}
	startText = strings.TrimSpace(startText)
	endText = strings.TrimSpace(endText)
	if startText == "" || endText == "" {
		return Interval{}, wire.IntervalParse(text, "empty endpoint")
	}
	if strings.Contains(endText, "/") {
		return Interval{}, wire.IntervalParse(text, "more than one '/'")
	}

	start, err := time.Parse(IntervalLayout, startText)
	if err != nil {
		return Interval{}, wire.IntervalParse(text, "start: "+err.Error())
	}
	end, err := time.Parse(IntervalLayout, endText)
	if err != nil {
		return Interval{}, wire.IntervalParse(text, "end: "+err.Error())
	}

	iv, err := NewInterval(start, end)
	if err != nil {
		return Interval{}, wire.IntervalParse(text, err.Error())
	}
	return iv, nil
}

// String returns the wire form.
func (iv Interval) String() string {
	return iv.Start.UTC().Format(IntervalLayout) + "/" + iv.End.UTC().Format(IntervalLayout)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t falls in [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// MarshalJSON implements json.Marshaler.
func (iv Interval) MarshalJSON() ([]byte, error) {
	if err := iv.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(iv.String())
}

// validate reports endpoints the wire form cannot carry.
func (iv Interval) validate() error {
	if iv.End.Before(iv.Start) {
		return fmt.Errorf("interval end %s is before start %s",
			iv.End.UTC().Format(IntervalLayout), iv.Start.UTC().Format(IntervalLayout))
	}
	if iv.Start.Nanosecond() != 0 || iv.End.Nanosecond() != 0 {
		return fmt.Errorf("interval %s has sub-second endpoints", iv)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return wire.IntervalParse(string(data), "not a JSON string")
	}
	parsed, err := ParseInterval(text)
	if err != nil {
		return err
	}
	*iv = parsed
	return nil
}
