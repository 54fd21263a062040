package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// Aggregator computes a named metric over the rows of each result bucket.
type Aggregator interface {
	wire.Variant
	// OutputName is the column the aggregate is reported under.
	OutputName() string
	aggregatorNode()
}

// Aggregators is the aggregator family.
var Aggregators = wire.NewFamily[Aggregator]("aggregator",
	func() Aggregator { return new(CountAggregator) },
	func() Aggregator { return new(LongSumAggregator) },
	func() Aggregator { return new(DoubleSumAggregator) },
	func() Aggregator { return new(FloatSumAggregator) },
	func() Aggregator { return new(LongMinAggregator) },
	func() Aggregator { return new(LongMaxAggregator) },
	func() Aggregator { return new(DoubleMinAggregator) },
	func() Aggregator { return new(DoubleMaxAggregator) },
	func() Aggregator { return new(HyperUniqueAggregator) },
	func() Aggregator { return new(CardinalityAggregator) },
	func() Aggregator { return new(ThetaSketchAggregator) },
	func() Aggregator { return new(StringFirstAggregator) },
	func() Aggregator { return new(StringLastAggregator) },
	func() Aggregator { return new(FilteredAggregator) },
)

// CountAggregator counts rows.
type CountAggregator struct {
	Name string `json:"name"`
}

func (*CountAggregator) Type() string         { return "count" }
func (a *CountAggregator) OutputName() string { return a.Name }
func (*CountAggregator) aggregatorNode()      {}

func (a *CountAggregator) MarshalJSON() ([]byte, error) {
	type payload CountAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// NumericFields are the inputs shared by the sum, min and max aggregators.
// Exactly one of FieldName and Expression is set.
type NumericFields struct {
	Name       string `json:"name"`
	FieldName  string `json:"fieldName,omitempty"`
	Expression string `json:"expression,omitempty"`
}

func (n *NumericFields) validate() error {
	if (n.FieldName == "") == (n.Expression == "") {
		return &wire.FieldError{Field: "fieldName", Message: "exactly one of fieldName and expression is required"}
	}
	return nil
}

// LongSumAggregator sums a column as 64-bit integers.
type LongSumAggregator struct {
	NumericFields
}

func (*LongSumAggregator) Type() string         { return "longSum" }
func (a *LongSumAggregator) OutputName() string { return a.Name }
func (*LongSumAggregator) aggregatorNode()      {}
func (a *LongSumAggregator) Validate() error    { return a.validate() }

func (a *LongSumAggregator) MarshalJSON() ([]byte, error) {
	type payload LongSumAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// DoubleSumAggregator sums a column as float64.
type DoubleSumAggregator struct {
	NumericFields
}

func (*DoubleSumAggregator) Type() string         { return "doubleSum" }
func (a *DoubleSumAggregator) OutputName() string { return a.Name }
func (*DoubleSumAggregator) aggregatorNode()      {}
func (a *DoubleSumAggregator) Validate() error    { return a.validate() }

func (a *DoubleSumAggregator) MarshalJSON() ([]byte, error) {
	type payload DoubleSumAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// FloatSumAggregator sums a column as float32.
type FloatSumAggregator struct {
	NumericFields
}

func (*FloatSumAggregator) Type() string         { return "floatSum" }
func (a *FloatSumAggregator) OutputName() string { return a.Name }
func (*FloatSumAggregator) aggregatorNode()      {}
func (a *FloatSumAggregator) Validate() error    { return a.validate() }

func (a *FloatSumAggregator) MarshalJSON() ([]byte, error) {
	type payload FloatSumAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// LongMinAggregator keeps the smallest integer value.
type LongMinAggregator struct {
	NumericFields
}

func (*LongMinAggregator) Type() string         { return "longMin" }
func (a *LongMinAggregator) OutputName() string { return a.Name }
func (*LongMinAggregator) aggregatorNode()      {}
func (a *LongMinAggregator) Validate() error    { return a.validate() }

func (a *LongMinAggregator) MarshalJSON() ([]byte, error) {
	type payload LongMinAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// LongMaxAggregator keeps the largest integer value.
type LongMaxAggregator struct {
	NumericFields
}

func (*LongMaxAggregator) Type() string         { return "longMax" }
func (a *LongMaxAggregator) OutputName() string { return a.Name }
func (*LongMaxAggregator) aggregatorNode()      {}
func (a *LongMaxAggregator) Validate() error    { return a.validate() }

func (a *LongMaxAggregator) MarshalJSON() ([]byte, error) {
	type payload LongMaxAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// DoubleMinAggregator keeps the smallest float value.
type DoubleMinAggregator struct {
	NumericFields
}

func (*DoubleMinAggregator) Type() string         { return "doubleMin" }
func (a *DoubleMinAggregator) OutputName() string { return a.Name }
func (*DoubleMinAggregator) aggregatorNode()      {}
func (a *DoubleMinAggregator) Validate() error    { return a.validate() }

func (a *DoubleMinAggregator) MarshalJSON() ([]byte, error) {
	type payload DoubleMinAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// DoubleMaxAggregator keeps the largest float value.
type DoubleMaxAggregator struct {
	NumericFields
}

func (*DoubleMaxAggregator) Type() string         { return "doubleMax" }
func (a *DoubleMaxAggregator) OutputName() string { return a.Name }
func (*DoubleMaxAggregator) aggregatorNode()      {}
func (a *DoubleMaxAggregator) Validate() error    { return a.validate() }

func (a *DoubleMaxAggregator) MarshalJSON() ([]byte, error) {
	type payload DoubleMaxAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// HyperUniqueAggregator estimates distinct values of a hyperUnique column.
type HyperUniqueAggregator struct {
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IsInputHyperUnique bool   `json:"isInputHyperUnique,omitempty"`
	Round              bool   `json:"round,omitempty"`
}

func (*HyperUniqueAggregator) Type() string         { return "hyperUnique" }
func (a *HyperUniqueAggregator) OutputName() string { return a.Name }
func (*HyperUniqueAggregator) aggregatorNode()      {}

func (a *HyperUniqueAggregator) MarshalJSON() ([]byte, error) {
	type payload HyperUniqueAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// CardinalityAggregator estimates distinct values across dimensions.
type CardinalityAggregator struct {
	Name   string        `json:"name"`
	Fields DimensionList `json:"fields"`
	ByRow  bool          `json:"byRow,omitempty"`
	Round  bool          `json:"round,omitempty"`
}

func (*CardinalityAggregator) Type() string         { return "cardinality" }
func (a *CardinalityAggregator) OutputName() string { return a.Name }
func (*CardinalityAggregator) aggregatorNode()      {}

func (a *CardinalityAggregator) MarshalJSON() ([]byte, error) {
	type payload CardinalityAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// ThetaSketchAggregator builds a theta sketch over the distinct values of
// FieldName. Size is the sketch size hint (a power of two, 0 for the
// engine default).
type ThetaSketchAggregator struct {
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IsInputThetaSketch bool   `json:"isInputThetaSketch,omitempty"`
	Size               int    `json:"size,omitempty"`
	ShouldFinalize     *bool  `json:"shouldFinalize,omitempty"`
}

func (*ThetaSketchAggregator) Type() string         { return "thetaSketch" }
func (a *ThetaSketchAggregator) OutputName() string { return a.Name }
func (*ThetaSketchAggregator) aggregatorNode()      {}

func (a *ThetaSketchAggregator) MarshalJSON() ([]byte, error) {
	type payload ThetaSketchAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

func (a *ThetaSketchAggregator) Validate() error {
	return validateSketchSize(a.Size)
}

func validateSketchSize(size int) error {
	if size == 0 {
		return nil
	}
	if size < 16 || size&(size-1) != 0 {
		return &wire.FieldError{Field: "size", Message: "must be a power of two of at least 16"}
	}
	return nil
}

// StringFirstAggregator keeps the string value with the earliest timestamp.
type StringFirstAggregator struct {
	Name           string `json:"name"`
	FieldName      string `json:"fieldName"`
	MaxStringBytes int    `json:"maxStringBytes,omitempty"`
}

func (*StringFirstAggregator) Type() string         { return "stringFirst" }
func (a *StringFirstAggregator) OutputName() string { return a.Name }
func (*StringFirstAggregator) aggregatorNode()      {}

func (a *StringFirstAggregator) MarshalJSON() ([]byte, error) {
	type payload StringFirstAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// StringLastAggregator keeps the string value with the latest timestamp.
type StringLastAggregator struct {
	Name           string `json:"name"`
	FieldName      string `json:"fieldName"`
	MaxStringBytes int    `json:"maxStringBytes,omitempty"`
}

func (*StringLastAggregator) Type() string         { return "stringLast" }
func (a *StringLastAggregator) OutputName() string { return a.Name }
func (*StringLastAggregator) aggregatorNode()      {}

func (a *StringLastAggregator) MarshalJSON() ([]byte, error) {
	type payload StringLastAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

// FilteredAggregator applies Aggregator only to rows matching Filter.
// When Name is empty the inner aggregator's name is reported.
type FilteredAggregator struct {
	Filter     Filter     `json:"filter"`
	Aggregator Aggregator `json:"aggregator"`
	Name       string     `json:"name,omitempty"`
}

func (*FilteredAggregator) Type() string    { return "filtered" }
func (*FilteredAggregator) aggregatorNode() {}

func (a *FilteredAggregator) OutputName() string {
	if a.Name != "" || a.Aggregator == nil {
		return a.Name
	}
	return a.Aggregator.OutputName()
}

func (a *FilteredAggregator) MarshalJSON() ([]byte, error) {
	type payload FilteredAggregator
	return wire.MarshalTagged(a.Type(), (*payload)(a))
}

func (a *FilteredAggregator) UnmarshalJSON(data []byte) error {
	type payload FilteredAggregator
	aux := struct {
		*payload
		Filter     json.RawMessage `json:"filter"`
		Aggregator json.RawMessage `json:"aggregator"`
	}{payload: (*payload)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, Filters, aux.Filter, &a.Filter)
	decodeField(&d, Aggregators, aux.Aggregator, &a.Aggregator)
	return d.err
}

func (a *FilteredAggregator) Validate() error {
	if a.Filter == nil {
		return &wire.FieldError{Field: "filter", Message: "must not be null"}
	}
	if a.Aggregator == nil {
		return &wire.FieldError{Field: "aggregator", Message: "must not be null"}
	}
	return nil
}
