package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// PostAggregator computes a value from aggregates after aggregation.
type PostAggregator interface {
	wire.Variant
	// OutputName is the column the value is reported under. Some field
	// accessors are unnamed when nested.
	OutputName() string
	postAggregatorNode()
}

// PostAggregators is the post-aggregator family.
var PostAggregators = wire.NewFamily[PostAggregator]("postAggregator",
	func() PostAggregator { return new(ArithmeticPostAggregator) },
	func() PostAggregator { return new(FieldAccessPostAggregator) },
	func() PostAggregator { return new(FinalizingFieldAccessPostAggregator) },
	func() PostAggregator { return new(ConstantPostAggregator) },
	func() PostAggregator { return new(ExpressionPostAggregator) },
	func() PostAggregator { return new(HyperUniqueCardinalityPostAggregator) },
	func() PostAggregator { return new(ThetaSketchEstimatePostAggregator) },
	func() PostAggregator { return new(ThetaSketchSetOpPostAggregator) },
	func() PostAggregator { return new(DoubleGreatestPostAggregator) },
	func() PostAggregator { return new(DoubleLeastPostAggregator) },
	func() PostAggregator { return new(LongGreatestPostAggregator) },
	func() PostAggregator { return new(LongLeastPostAggregator) },
)

// ArithmeticPostAggregator applies Fn left to right across Fields.
type ArithmeticPostAggregator struct {
	Name     string             `json:"name"`
	Fn       string             `json:"fn"`
	Fields   PostAggregatorList `json:"fields"`
	Ordering string             `json:"ordering,omitempty"`
}

func (*ArithmeticPostAggregator) Type() string         { return "arithmetic" }
func (p *ArithmeticPostAggregator) OutputName() string { return p.Name }
func (*ArithmeticPostAggregator) postAggregatorNode()  {}

func (p *ArithmeticPostAggregator) MarshalJSON() ([]byte, error) {
	type payload ArithmeticPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

func (p *ArithmeticPostAggregator) Validate() error {
	if !oneOf(p.Fn, false, "+", "-", "*", "/", "quotient", "pow") {
		return &wire.FieldError{Field: "fn", Message: "unknown function " + p.Fn}
	}
	if len(p.Fields) < 2 {
		return &wire.FieldError{Field: "fields", Message: "at least two fields are required"}
	}
	if !oneOf(p.Ordering, true, "numericFirst") {
		return &wire.FieldError{Field: "ordering", Message: "unknown ordering " + p.Ordering}
	}
	return nil
}

// FieldAccessPostAggregator reads an aggregate as-is.
type FieldAccessPostAggregator struct {
	Name      string `json:"name,omitempty"`
	FieldName string `json:"fieldName"`
}

// FieldAccess returns an unnamed accessor for the aggregate fieldName.
func FieldAccess(fieldName string) *FieldAccessPostAggregator {
	return &FieldAccessPostAggregator{FieldName: fieldName}
}

func (*FieldAccessPostAggregator) Type() string         { return "fieldAccess" }
func (p *FieldAccessPostAggregator) OutputName() string { return p.Name }
func (*FieldAccessPostAggregator) postAggregatorNode()  {}

func (p *FieldAccessPostAggregator) MarshalJSON() ([]byte, error) {
	type payload FieldAccessPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// FinalizingFieldAccessPostAggregator reads an aggregate's finalized value.
type FinalizingFieldAccessPostAggregator struct {
	Name      string `json:"name,omitempty"`
	FieldName string `json:"fieldName"`
}

func (*FinalizingFieldAccessPostAggregator) Type() string         { return "finalizingFieldAccess" }
func (p *FinalizingFieldAccessPostAggregator) OutputName() string { return p.Name }
func (*FinalizingFieldAccessPostAggregator) postAggregatorNode()  {}

func (p *FinalizingFieldAccessPostAggregator) MarshalJSON() ([]byte, error) {
	type payload FinalizingFieldAccessPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// ConstantPostAggregator always yields Value.
type ConstantPostAggregator struct {
	Name  string     `json:"name"`
	Value value.Real `json:"value"`
}

func (*ConstantPostAggregator) Type() string         { return "constant" }
func (p *ConstantPostAggregator) OutputName() string { return p.Name }
func (*ConstantPostAggregator) postAggregatorNode()  {}

func (p *ConstantPostAggregator) MarshalJSON() ([]byte, error) {
	type payload ConstantPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// ExpressionPostAggregator evaluates an engine expression over aggregates.
type ExpressionPostAggregator struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Ordering   string `json:"ordering,omitempty"`
}

func (*ExpressionPostAggregator) Type() string         { return "expression" }
func (p *ExpressionPostAggregator) OutputName() string { return p.Name }
func (*ExpressionPostAggregator) postAggregatorNode()  {}

func (p *ExpressionPostAggregator) MarshalJSON() ([]byte, error) {
	type payload ExpressionPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// HyperUniqueCardinalityPostAggregator reads the estimate of a hyperUnique
// aggregate.
type HyperUniqueCardinalityPostAggregator struct {
	Name      string `json:"name,omitempty"`
	FieldName string `json:"fieldName"`
}

func (*HyperUniqueCardinalityPostAggregator) Type() string         { return "hyperUniqueCardinality" }
func (p *HyperUniqueCardinalityPostAggregator) OutputName() string { return p.Name }
func (*HyperUniqueCardinalityPostAggregator) postAggregatorNode()  {}

func (p *HyperUniqueCardinalityPostAggregator) MarshalJSON() ([]byte, error) {
	type payload HyperUniqueCardinalityPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// ThetaSketchEstimatePostAggregator estimates the cardinality of the
// sketch produced by Field.
type ThetaSketchEstimatePostAggregator struct {
	Name  string         `json:"name"`
	Field PostAggregator `json:"field"`
}

func (*ThetaSketchEstimatePostAggregator) Type() string         { return "thetaSketchEstimate" }
func (p *ThetaSketchEstimatePostAggregator) OutputName() string { return p.Name }
func (*ThetaSketchEstimatePostAggregator) postAggregatorNode()  {}

func (p *ThetaSketchEstimatePostAggregator) MarshalJSON() ([]byte, error) {
	type payload ThetaSketchEstimatePostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

func (p *ThetaSketchEstimatePostAggregator) UnmarshalJSON(data []byte) error {
	type payload ThetaSketchEstimatePostAggregator
	aux := struct {
		*payload
		Field json.RawMessage `json:"field"`
	}{payload: (*payload)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, PostAggregators, aux.Field, &p.Field)
	return d.err
}

func (p *ThetaSketchEstimatePostAggregator) Validate() error {
	if p.Field == nil {
		return &wire.FieldError{Field: "field", Message: "must not be null"}
	}
	return nil
}

// Sketch set operations.
const (
	SetOpUnion     = "UNION"
	SetOpIntersect = "INTERSECT"
	SetOpNot       = "NOT"
)

// ThetaSketchSetOpPostAggregator combines the sketches of Fields with Func.
type ThetaSketchSetOpPostAggregator struct {
	Name   string             `json:"name"`
	Func   string             `json:"func"`
	Size   int                `json:"size,omitempty"`
	Fields PostAggregatorList `json:"fields"`
}

func (*ThetaSketchSetOpPostAggregator) Type() string         { return "thetaSketchSetOp" }
func (p *ThetaSketchSetOpPostAggregator) OutputName() string { return p.Name }
func (*ThetaSketchSetOpPostAggregator) postAggregatorNode()  {}

func (p *ThetaSketchSetOpPostAggregator) MarshalJSON() ([]byte, error) {
	type payload ThetaSketchSetOpPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

func (p *ThetaSketchSetOpPostAggregator) Validate() error {
	if !oneOf(p.Func, false, SetOpUnion, SetOpIntersect, SetOpNot) {
		return &wire.FieldError{Field: "func", Message: "unknown set operation " + p.Func}
	}
	if len(p.Fields) < 2 {
		return &wire.FieldError{Field: "fields", Message: "at least two fields are required"}
	}
	return validateSketchSize(p.Size)
}

// DoubleGreatestPostAggregator yields the largest of Fields as a double.
type DoubleGreatestPostAggregator struct {
	Name   string             `json:"name"`
	Fields PostAggregatorList `json:"fields"`
}

func (*DoubleGreatestPostAggregator) Type() string         { return "doubleGreatest" }
func (p *DoubleGreatestPostAggregator) OutputName() string { return p.Name }
func (*DoubleGreatestPostAggregator) postAggregatorNode()  {}

func (p *DoubleGreatestPostAggregator) MarshalJSON() ([]byte, error) {
	type payload DoubleGreatestPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// DoubleLeastPostAggregator yields the smallest of Fields as a double.
type DoubleLeastPostAggregator struct {
	Name   string             `json:"name"`
	Fields PostAggregatorList `json:"fields"`
}

func (*DoubleLeastPostAggregator) Type() string         { return "doubleLeast" }
func (p *DoubleLeastPostAggregator) OutputName() string { return p.Name }
func (*DoubleLeastPostAggregator) postAggregatorNode()  {}

func (p *DoubleLeastPostAggregator) MarshalJSON() ([]byte, error) {
	type payload DoubleLeastPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// LongGreatestPostAggregator yields the largest of Fields as a long.
type LongGreatestPostAggregator struct {
	Name   string             `json:"name"`
	Fields PostAggregatorList `json:"fields"`
}

func (*LongGreatestPostAggregator) Type() string         { return "longGreatest" }
func (p *LongGreatestPostAggregator) OutputName() string { return p.Name }
func (*LongGreatestPostAggregator) postAggregatorNode()  {}

func (p *LongGreatestPostAggregator) MarshalJSON() ([]byte, error) {
	type payload LongGreatestPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// LongLeastPostAggregator yields the smallest of Fields as a long.
type LongLeastPostAggregator struct {
	Name   string             `json:"name"`
	Fields PostAggregatorList `json:"fields"`
}

func (*LongLeastPostAggregator) Type() string         { return "longLeast" }
func (p *LongLeastPostAggregator) OutputName() string { return p.Name }
func (*LongLeastPostAggregator) postAggregatorNode()  {}

func (p *LongLeastPostAggregator) MarshalJSON() ([]byte, error) {
	type payload LongLeastPostAggregator
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}
