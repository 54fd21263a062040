package query

import (
	"encoding/json"
	"slices"

	"github.com/roach88/druidkit/internal/wire"
)

// Granularity sets the width of result time buckets.
type Granularity interface {
	wire.Variant
	granularityNode()
}

// SimpleGranularityNames are the names accepted in the bare-string form.
var SimpleGranularityNames = []string{
	"all", "none", "second", "minute", "fifteen_minute", "thirty_minute",
	"hour", "day", "week", "month", "quarter", "year",
}

// Granularities is the granularity family. A bare string decodes to a
// SimpleGranularity when it is one of SimpleGranularityNames.
var Granularities = wire.NewFamily[Granularity]("granularity",
	func() Granularity { return new(PeriodGranularity) },
	func() Granularity { return new(DurationGranularity) },
	func() Granularity { return new(AllGranularity) },
	func() Granularity { return new(NoneGranularity) },
).WithShorthand(func(data []byte) (Granularity, error) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return nil, wire.MalformedTag("granularity", "expected a granularity name or an object")
	}
	if !slices.Contains(SimpleGranularityNames, name) {
		return nil, wire.UnknownVariant("granularity", name)
	}
	return &SimpleGranularity{Name: name}, nil
})

// SimpleGranularity is the bare-string form, such as "day". It has no
// object form and is never decoded from a tagged object.
type SimpleGranularity struct {
	Name string
}

// Simple returns the bare-string granularity name.
func Simple(name string) *SimpleGranularity {
	return &SimpleGranularity{Name: name}
}

func (*SimpleGranularity) Type() string     { return "simple" }
func (*SimpleGranularity) granularityNode() {}

func (g *SimpleGranularity) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Name)
}

// PeriodGranularity buckets by an ISO-8601 period in a time zone.
type PeriodGranularity struct {
	Period   string `json:"period"`
	TimeZone string `json:"timeZone,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

func (*PeriodGranularity) Type() string     { return "period" }
func (*PeriodGranularity) granularityNode() {}

func (g *PeriodGranularity) MarshalJSON() ([]byte, error) {
	type payload PeriodGranularity
	return wire.MarshalTagged(g.Type(), (*payload)(g))
}

func (g *PeriodGranularity) Validate() error {
	if g.Period == "" || g.Period[0] != 'P' {
		return &wire.FieldError{Field: "period", Message: "must be an ISO-8601 period"}
	}
	return nil
}

// DurationGranularity buckets by a fixed number of milliseconds.
type DurationGranularity struct {
	Duration int64  `json:"duration"`
	Origin   string `json:"origin,omitempty"`
}

func (*DurationGranularity) Type() string     { return "duration" }
func (*DurationGranularity) granularityNode() {}

func (g *DurationGranularity) MarshalJSON() ([]byte, error) {
	type payload DurationGranularity
	return wire.MarshalTagged(g.Type(), (*payload)(g))
}

func (g *DurationGranularity) Validate() error {
	if g.Duration <= 0 {
		return &wire.FieldError{Field: "duration", Message: "must be positive"}
	}
	return nil
}

// AllGranularity puts every row in one bucket.
type AllGranularity struct{}

func (*AllGranularity) Type() string     { return "all" }
func (*AllGranularity) granularityNode() {}

func (g *AllGranularity) MarshalJSON() ([]byte, error) {
	return wire.MarshalTagged(g.Type(), struct{}{})
}

// NoneGranularity buckets at the finest stored precision.
type NoneGranularity struct{}

func (*NoneGranularity) Type() string     { return "none" }
func (*NoneGranularity) granularityNode() {}

func (g *NoneGranularity) MarshalJSON() ([]byte, error) {
	return wire.MarshalTagged(g.Type(), struct{}{})
}
