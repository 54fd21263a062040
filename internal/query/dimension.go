package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// DimensionSpec selects a dimension for grouping, optionally renamed or
// transformed.
type DimensionSpec interface {
	wire.Variant
	dimensionNode()
}

// DimensionSpecs is the dimension spec family. A bare string decodes to a
// DefaultDimension on that column.
var DimensionSpecs = wire.NewFamily[DimensionSpec]("dimensionSpec",
	func() DimensionSpec { return new(DefaultDimension) },
	func() DimensionSpec { return new(ExtractionDimension) },
).WithShorthand(func(data []byte) (DimensionSpec, error) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return nil, wire.MalformedTag("dimensionSpec", "expected a column name or an object")
	}
	return Dimension(name), nil
})

// DefaultDimension reads a column, optionally under another name.
type DefaultDimension struct {
	Dimension  string `json:"dimension"`
	OutputName string `json:"outputName,omitempty"`
	OutputType string `json:"outputType,omitempty"`

	bare bool
}

// Dimension returns the bare-column form, encoded as a plain string.
func Dimension(column string) *DefaultDimension {
	return &DefaultDimension{Dimension: column, bare: true}
}

func (*DefaultDimension) Type() string   { return "default" }
func (*DefaultDimension) dimensionNode() {}

func (d *DefaultDimension) MarshalJSON() ([]byte, error) {
	if d.bare && d.OutputName == "" && d.OutputType == "" {
		return json.Marshal(d.Dimension)
	}
	type payload DefaultDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

// ExtractionDimension reads a column through an extraction function.
type ExtractionDimension struct {
	Dimension    string             `json:"dimension"`
	OutputName   string             `json:"outputName,omitempty"`
	OutputType   string             `json:"outputType,omitempty"`
	ExtractionFn ExtractionFunction `json:"extractionFn"`
}

func (*ExtractionDimension) Type() string   { return "extraction" }
func (*ExtractionDimension) dimensionNode() {}

func (d *ExtractionDimension) MarshalJSON() ([]byte, error) {
	type payload ExtractionDimension
	return wire.MarshalTagged(d.Type(), (*payload)(d))
}

func (d *ExtractionDimension) UnmarshalJSON(data []byte) error {
	type payload ExtractionDimension
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var fd fieldDecoder
	decodeField(&fd, ExtractionFunctions, aux.ExtractionFn, &d.ExtractionFn)
	return fd.err
}

func (d *ExtractionDimension) Validate() error {
	if d.ExtractionFn == nil {
		return &wire.FieldError{Field: "extractionFn", Message: "must not be null"}
	}
	return nil
}

// VirtualColumn is a column computed at query time.
type VirtualColumn interface {
	wire.Variant
	virtualColumnNode()
}

// VirtualColumns is the virtual column family.
var VirtualColumns = wire.NewFamily[VirtualColumn]("virtualColumn",
	func() VirtualColumn { return new(ExpressionVirtualColumn) },
	func() VirtualColumn { return new(NestedFieldVirtualColumn) },
)

// ExpressionVirtualColumn computes Name from an engine expression.
type ExpressionVirtualColumn struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	OutputType string `json:"outputType,omitempty"`
}

func (*ExpressionVirtualColumn) Type() string       { return "expression" }
func (*ExpressionVirtualColumn) virtualColumnNode() {}

func (v *ExpressionVirtualColumn) MarshalJSON() ([]byte, error) {
	type payload ExpressionVirtualColumn
	return wire.MarshalTagged(v.Type(), (*payload)(v))
}

// NestedFieldVirtualColumn extracts a path from a nested JSON column.
type NestedFieldVirtualColumn struct {
	ColumnName   string `json:"columnName"`
	OutputName   string `json:"outputName"`
	ExpectedType string `json:"expectedType,omitempty"`
	Path         string `json:"path,omitempty"`
}

func (*NestedFieldVirtualColumn) Type() string       { return "nested-field" }
func (*NestedFieldVirtualColumn) virtualColumnNode() {}

func (v *NestedFieldVirtualColumn) MarshalJSON() ([]byte, error) {
	type payload NestedFieldVirtualColumn
	return wire.MarshalTagged(v.Type(), (*payload)(v))
}
