package ingest

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// GranularitySpec sets segment and rollup granularity.
type GranularitySpec interface {
	wire.Variant
	granularitySpecNode()
}

// GranularitySpecs is the granularity spec family.
var GranularitySpecs = wire.NewFamily[GranularitySpec]("granularitySpec",
	func() GranularitySpec { return new(UniformGranularity) },
	func() GranularitySpec { return new(ArbitraryGranularity) },
)

// UniformGranularity cuts segments of one fixed width.
// Granularity names are upper-case engine names such as "DAY" or "HOUR".
type UniformGranularity struct {
	SegmentGranularity string           `json:"segmentGranularity,omitempty"`
	QueryGranularity   string           `json:"queryGranularity,omitempty"`
	Rollup             *bool            `json:"rollup,omitempty"`
	Intervals          []value.Interval `json:"intervals,omitempty"`
}

func (*UniformGranularity) Type() string         { return "uniform" }
func (*UniformGranularity) granularitySpecNode() {}

func (g *UniformGranularity) MarshalJSON() ([]byte, error) {
	type payload UniformGranularity
	return wire.MarshalTagged(g.Type(), (*payload)(g))
}

// ArbitraryGranularity uses the given intervals as segment boundaries.
type ArbitraryGranularity struct {
	QueryGranularity string           `json:"queryGranularity,omitempty"`
	Rollup           *bool            `json:"rollup,omitempty"`
	Intervals        []value.Interval `json:"intervals"`
}

func (*ArbitraryGranularity) Type() string         { return "arbitrary" }
func (*ArbitraryGranularity) granularitySpecNode() {}

func (g *ArbitraryGranularity) MarshalJSON() ([]byte, error) {
	type payload ArbitraryGranularity
	return wire.MarshalTagged(g.Type(), (*payload)(g))
}

func (g *ArbitraryGranularity) Validate() error {
	if len(g.Intervals) == 0 {
		return &wire.FieldError{Field: "intervals", Message: "must not be empty"}
	}
	return nil
}

// DimensionSchema declares one ingested dimension and its type.
type DimensionSchema interface {
	wire.Variant
	// ColumnName is the dimension's column.
	ColumnName() string
	dimensionSchemaNode()
}

// DimensionSchemas is the dimension schema family. A bare string decodes to
// a string dimension of that name.
var DimensionSchemas = wire.NewFamily[DimensionSchema]("dimensionSchema",
	func() DimensionSchema { return new(StringDimension) },
	func() DimensionSchema { return new(LongDimension) },
	func() DimensionSchema { return new(FloatDimension) },
	func() DimensionSchema { return new(DoubleDimension) },
	func() DimensionSchema { return new(JSONDimension) },
).WithShorthand(func(data []byte) (DimensionSchema, error) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return nil, wire.MalformedTag("dimensionSchema", "expected a dimension name or an object")
	}
	return Dim(name), nil
})

// StringDimension is a string-typed dimension.
type StringDimension struct {
	Name               string `json:"name"`
	MultiValueHandling string `json:"multiValueHandling,omitempty"`
	CreateBitmapIndex  *bool  `json:"createBitmapIndex,omitempty"`

	bare bool
}

// Dim returns the bare-name form, encoded as a plain string.
func Dim(name string) *StringDimension {
	return &StringDimension{Name: name, bare: true}
}

func (*StringDimension) Type() string         { return "string" }
func (d *StringDimension) ColumnName() string { return d.Name }
func (*StringDimension) dimensionSchemaNode() {}

func (d *StringDimension) MarshalJSON() ([]byte, error) {
	if d.bare && d.MultiValueHandling == "" && d.CreateBitmapIndex == nil {
		return json.Marshal(d.Name)
	}
	type payload StringDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

// LongDimension is a 64-bit integer dimension.
type LongDimension struct {
	Name string `json:"name"`
}

func (*LongDimension) Type() string         { return "long" }
func (d *LongDimension) ColumnName() string { return d.Name }
func (*LongDimension) dimensionSchemaNode() {}

func (d *LongDimension) MarshalJSON() ([]byte, error) {
	type payload LongDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

// FloatDimension is a 32-bit float dimension.
type FloatDimension struct {
	Name string `json:"name"`
}

func (*FloatDimension) Type() string         { return "float" }
func (d *FloatDimension) ColumnName() string { return d.Name }
func (*FloatDimension) dimensionSchemaNode() {}

func (d *FloatDimension) MarshalJSON() ([]byte, error) {
	type payload FloatDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

// DoubleDimension is a 64-bit float dimension.
type DoubleDimension struct {
	Name string `json:"name"`
}

func (*DoubleDimension) Type() string         { return "double" }
func (d *DoubleDimension) ColumnName() string { return d.Name }
func (*DoubleDimension) dimensionSchemaNode() {}

func (d *DoubleDimension) MarshalJSON() ([]byte, error) {
	type payload DoubleDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

// JSONDimension is a nested JSON column.
type JSONDimension struct {
	Name string `json:"name"`
}

func (*JSONDimension) Type() string         { return "json" }
func (d *JSONDimension) ColumnName() string { return d.Name }
func (*JSONDimension) dimensionSchemaNode() {}

func (d *JSONDimension) MarshalJSON() ([]byte, error) {
	type payload JSONDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

// DimensionSchemaList is a list of dimension schemas.
type DimensionSchemaList []DimensionSchema

// UnmarshalJSON implements json.Unmarshaler.
func (l *DimensionSchemaList) UnmarshalJSON(data []byte) error {
	v, err := DimensionSchemas.DecodeArray(data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// TimestampSpec locates and parses the row timestamp.
type TimestampSpec struct {
	Column       string `json:"column"`
	Format       string `json:"format,omitempty"`
	MissingValue string `json:"missingValue,omitempty"`
}

// DimensionsSpec lists the dimensions to ingest. With no dimensions and
// discovery enabled the engine ingests every non-metric column.
type DimensionsSpec struct {
	Dimensions           DimensionSchemaList `json:"dimensions,omitempty"`
	DimensionExclusions  []string            `json:"dimensionExclusions,omitempty"`
	UseSchemaDiscovery   bool                `json:"useSchemaDiscovery,omitempty"`
	IncludeAllDimensions bool                `json:"includeAllDimensions,omitempty"`
}

// Transform computes a column at ingestion time.
type Transform struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// TransformSpec filters and transforms input rows.
type TransformSpec struct {
	Filter     query.Filter `json:"filter,omitempty"`
	Transforms []Transform  `json:"transforms,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TransformSpec) UnmarshalJSON(data []byte) error {
	type payload TransformSpec
	aux := struct {
		*payload
		Filter json.RawMessage `json:"filter"`
	}{payload: (*payload)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f, err := query.Filters.DecodeOptional(aux.Filter)
	if err != nil {
		return err
	}
	t.Filter = f
	return nil
}

// DataSchema describes the target data source.
type DataSchema struct {
	DataSource      string               `json:"dataSource"`
	TimestampSpec   TimestampSpec        `json:"timestampSpec"`
	DimensionsSpec  DimensionsSpec       `json:"dimensionsSpec"`
	MetricsSpec     query.AggregatorList `json:"metricsSpec,omitempty"`
	GranularitySpec GranularitySpec      `json:"granularitySpec,omitempty"`
	TransformSpec   *TransformSpec       `json:"transformSpec,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *DataSchema) UnmarshalJSON(data []byte) error {
	type payload DataSchema
	aux := struct {
		*payload
		GranularitySpec json.RawMessage `json:"granularitySpec"`
	}{payload: (*payload)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g, err := GranularitySpecs.DecodeOptional(aux.GranularitySpec)
	if err != nil {
		return err
	}
	s.GranularitySpec = g
	return nil
}

func (s *DataSchema) validate() error {
	if s.DataSource == "" {
		return &wire.FieldError{Field: "dataSource", Message: "must not be empty"}
	}
	if s.TimestampSpec.Column == "" {
		return &wire.FieldError{Field: "timestampSpec", Message: "column is required"}
	}
	seen := make(map[string]bool)
	for _, d := range s.DimensionsSpec.Dimensions {
		if seen[d.ColumnName()] {
			return &wire.FieldError{Field: "dimensionsSpec", Message: "duplicate dimension " + d.ColumnName()}
		}
		seen[d.ColumnName()] = true
	}
	for _, m := range s.MetricsSpec {
		if seen[m.OutputName()] {
			return &wire.FieldError{Field: "metricsSpec", Message: "metric shares a name with a dimension: " + m.OutputName()}
		}
		seen[m.OutputName()] = true
	}
	return nil
}
