package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// LimitSpec orders and truncates groupBy results.
type LimitSpec interface {
	wire.Variant
	limitNode()
}

// LimitSpecs is the limit spec family.
var LimitSpecs = wire.NewFamily[LimitSpec]("limitSpec",
	func() LimitSpec { return new(DefaultLimitSpec) },
)

// OrderByColumn orders by one output column.
type OrderByColumn struct {
	Dimension      string `json:"dimension"`
	Direction      string `json:"direction,omitempty"`
	DimensionOrder string `json:"dimensionOrder,omitempty"`
}

// DefaultLimitSpec sorts by Columns then keeps Limit rows after Offset.
type DefaultLimitSpec struct {
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
	Columns []OrderByColumn `json:"columns,omitempty"`
}

func (*DefaultLimitSpec) Type() string { return "default" }
func (*DefaultLimitSpec) limitNode()   {}

func (l *DefaultLimitSpec) MarshalJSON() ([]byte, error) {
	type payload DefaultLimitSpec
	return wire.MarshalTagged(l.Type(), (*payload)(l))
}

func (l *DefaultLimitSpec) Validate() error {
	if l.Limit < 0 {
		return &wire.FieldError{Field: "limit", Message: "must not be negative"}
	}
	if l.Offset < 0 {
		return &wire.FieldError{Field: "offset", Message: "must not be negative"}
	}
	for _, c := range l.Columns {
		if !oneOf(c.Direction, true, "ascending", "descending") {
			return &wire.FieldError{Field: "columns", Message: "unknown direction " + c.Direction}
		}
	}
	return nil
}

// TopNMetricSpec orders topN results.
type TopNMetricSpec interface {
	wire.Variant
	topNMetricNode()
}

// TopNMetricSpecs is the topN metric family. A bare string decodes to a
// numeric ordering on that metric.
var TopNMetricSpecs = wire.NewFamily[TopNMetricSpec]("topNMetricSpec",
	func() TopNMetricSpec { return new(NumericTopNMetric) },
	func() TopNMetricSpec { return new(InvertedTopNMetric) },
	func() TopNMetricSpec { return new(DimensionTopNMetric) },
).WithShorthand(func(data []byte) (TopNMetricSpec, error) {
	var metric string
	if err := json.Unmarshal(data, &metric); err != nil {
		return nil, wire.MalformedTag("topNMetricSpec", "expected a metric name or an object")
	}
	return Metric(metric), nil
})

// NumericTopNMetric orders by a metric, largest first.
type NumericTopNMetric struct {
	Metric string `json:"metric"`

	bare bool
}

// Metric returns the bare-name form, encoded as a plain string.
func Metric(name string) *NumericTopNMetric {
	return &NumericTopNMetric{Metric: name, bare: true}
}

func (*NumericTopNMetric) Type() string    { return "numeric" }
func (*NumericTopNMetric) topNMetricNode() {}

func (m *NumericTopNMetric) MarshalJSON() ([]byte, error) {
	if m.bare {
		return json.Marshal(m.Metric)
	}
	type payload NumericTopNMetric
	return wire.MarshalTagged(m.Type(), (*payload)(m))
}

// InvertedTopNMetric reverses Metric.
type InvertedTopNMetric struct {
	Metric TopNMetricSpec `json:"metric"`
}

func (*InvertedTopNMetric) Type() string    { return "inverted" }
func (*InvertedTopNMetric) topNMetricNode() {}

func (m *InvertedTopNMetric) MarshalJSON() ([]byte, error) {
	type payload InvertedTopNMetric
	return wire.MarshalTagged(m.Type(), (*payload)(m))
}

func (m *InvertedTopNMetric) UnmarshalJSON(data []byte) error {
	var aux struct {
		Metric json.RawMessage `json:"metric"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, TopNMetricSpecs, aux.Metric, &m.Metric)
	return d.err
}

func (m *InvertedTopNMetric) Validate() error {
	if m.Metric == nil {
		return &wire.FieldError{Field: "metric", Message: "must not be null"}
	}
	return nil
}

// DimensionTopNMetric orders by the dimension value itself.
type DimensionTopNMetric struct {
	Ordering     string `json:"ordering,omitempty"`
	PreviousStop string `json:"previousStop,omitempty"`
}

func (*DimensionTopNMetric) Type() string    { return "dimension" }
func (*DimensionTopNMetric) topNMetricNode() {}

func (m *DimensionTopNMetric) MarshalJSON() ([]byte, error) {
	type payload DimensionTopNMetric
	return wire.MarshalTagged(m.Type(), (*payload)(m))
}
