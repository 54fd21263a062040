package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// Filter selects the rows a query reads.
type Filter interface {
	wire.Variant
	filterNode()
}

// Filters is the filter family.
var Filters = wire.NewFamily[Filter]("filter",
	func() Filter { return new(SelectorFilter) },
	func() Filter { return new(EqualsFilter) },
	func() Filter { return new(InFilter) },
	func() Filter { return new(BoundFilter) },
	func() Filter { return new(RegexFilter) },
	func() Filter { return new(LikeFilter) },
	func() Filter { return new(SearchFilter) },
	func() Filter { return new(IntervalFilter) },
	func() Filter { return new(ColumnComparisonFilter) },
	func() Filter { return new(ExpressionFilter) },
	func() Filter { return new(NullFilter) },
	func() Filter { return new(AndFilter) },
	func() Filter { return new(OrFilter) },
	func() Filter { return new(NotFilter) },
	func() Filter { return new(TrueFilter) },
	func() Filter { return new(FalseFilter) },
)

// SelectorFilter matches rows whose dimension equals Value.
type SelectorFilter struct {
	Dimension    string             `json:"dimension"`
	Value        string             `json:"value"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

// Selector returns a selector filter on dimension.
func Selector(dimension, v string) *SelectorFilter {
	return &SelectorFilter{Dimension: dimension, Value: v}
}

func (*SelectorFilter) Type() string { return "selector" }
func (*SelectorFilter) filterNode()  {}

func (f *SelectorFilter) MarshalJSON() ([]byte, error) {
	type payload SelectorFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *SelectorFilter) UnmarshalJSON(data []byte) error {
	type payload SelectorFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

// EqualsFilter matches rows whose column equals a typed value.
type EqualsFilter struct {
	Column         string `json:"column"`
	MatchValueType string `json:"matchValueType"`
	MatchValue     any    `json:"matchValue"`
}

func (*EqualsFilter) Type() string { return "equals" }
func (*EqualsFilter) filterNode()  {}

func (f *EqualsFilter) MarshalJSON() ([]byte, error) {
	type payload EqualsFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

// InFilter matches rows whose dimension is one of Values.
type InFilter struct {
	Dimension    string             `json:"dimension"`
	Values       []string           `json:"values"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

func (*InFilter) Type() string { return "in" }
func (*InFilter) filterNode()  {}

func (f *InFilter) MarshalJSON() ([]byte, error) {
	type payload InFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *InFilter) UnmarshalJSON(data []byte) error {
	type payload InFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

// BoundFilter matches a range of dimension values. At least one of Lower
// and Upper must be set.
type BoundFilter struct {
	Dimension    string             `json:"dimension"`
	Lower        string             `json:"lower,omitempty"`
	Upper        string             `json:"upper,omitempty"`
	LowerStrict  bool               `json:"lowerStrict,omitempty"`
	UpperStrict  bool               `json:"upperStrict,omitempty"`
	Ordering     string             `json:"ordering,omitempty"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

func (*BoundFilter) Type() string { return "bound" }
func (*BoundFilter) filterNode()  {}

func (f *BoundFilter) MarshalJSON() ([]byte, error) {
	type payload BoundFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *BoundFilter) UnmarshalJSON(data []byte) error {
	type payload BoundFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

func (f *BoundFilter) Validate() error {
	if f.Lower == "" && f.Upper == "" {
		return &wire.FieldError{Field: "lower", Message: "lower or upper is required"}
	}
	if !oneOf(f.Ordering, true, "lexicographic", "alphanumeric", "numeric", "strlen", "version") {
		return &wire.FieldError{Field: "ordering", Message: "unknown ordering " + f.Ordering}
	}
	return nil
}

// RegexFilter matches dimension values against a pattern. The pattern is
// evaluated by the engine and is not checked here.
type RegexFilter struct {
	Dimension    string             `json:"dimension"`
	Pattern      string             `json:"pattern"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

func (*RegexFilter) Type() string { return "regex" }
func (*RegexFilter) filterNode()  {}

func (f *RegexFilter) MarshalJSON() ([]byte, error) {
	type payload RegexFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *RegexFilter) UnmarshalJSON(data []byte) error {
	type payload RegexFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

// LikeFilter matches dimension values against a SQL LIKE pattern.
type LikeFilter struct {
	Dimension    string             `json:"dimension"`
	Pattern      string             `json:"pattern"`
	Escape       string             `json:"escape,omitempty"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

func (*LikeFilter) Type() string { return "like" }
func (*LikeFilter) filterNode()  {}

func (f *LikeFilter) MarshalJSON() ([]byte, error) {
	type payload LikeFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *LikeFilter) UnmarshalJSON(data []byte) error {
	type payload LikeFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

// SearchQuerySpec is the matcher of a search filter.
// Type is one of "contains", "insensitive_contains" or "fragment".
type SearchQuerySpec struct {
	Type          string   `json:"type"`
	Value         string   `json:"value,omitempty"`
	Values        []string `json:"values,omitempty"`
	CaseSensitive bool     `json:"caseSensitive,omitempty"`
}

// SearchFilter matches dimension values containing a substring.
type SearchFilter struct {
	Dimension    string             `json:"dimension"`
	Query        SearchQuerySpec    `json:"query"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

func (*SearchFilter) Type() string { return "search" }
func (*SearchFilter) filterNode()  {}

func (f *SearchFilter) MarshalJSON() ([]byte, error) {
	type payload SearchFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *SearchFilter) UnmarshalJSON(data []byte) error {
	type payload SearchFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

func (f *SearchFilter) Validate() error {
	switch f.Query.Type {
	case "contains", "insensitive_contains":
		return nil
	case "fragment":
		if len(f.Query.Values) == 0 {
			return &wire.FieldError{Field: "query", Message: "fragment search needs values"}
		}
		return nil
	}
	return &wire.FieldError{Field: "query", Message: "unknown search type " + f.Query.Type}
}

// IntervalFilter matches rows whose time-valued dimension falls in any of
// Intervals.
type IntervalFilter struct {
	Dimension    string             `json:"dimension"`
	Intervals    []value.Interval   `json:"intervals"`
	ExtractionFn ExtractionFunction `json:"extractionFn,omitempty"`
}

func (*IntervalFilter) Type() string { return "interval" }
func (*IntervalFilter) filterNode()  {}

func (f *IntervalFilter) MarshalJSON() ([]byte, error) {
	type payload IntervalFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *IntervalFilter) UnmarshalJSON(data []byte) error {
	type payload IntervalFilter
	aux := struct {
		*payload
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}{payload: (*payload)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, ExtractionFunctions, aux.ExtractionFn, &f.ExtractionFn)
	return d.err
}

// ColumnComparisonFilter matches rows where all listed dimensions are equal.
type ColumnComparisonFilter struct {
	Dimensions DimensionList `json:"dimensions"`
}

func (*ColumnComparisonFilter) Type() string { return "columnComparison" }
func (*ColumnComparisonFilter) filterNode()  {}

func (f *ColumnComparisonFilter) MarshalJSON() ([]byte, error) {
	type payload ColumnComparisonFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *ColumnComparisonFilter) Validate() error {
	if len(f.Dimensions) < 2 {
		return &wire.FieldError{Field: "dimensions", Message: "at least two dimensions are required"}
	}
	return nil
}

// ExpressionFilter matches rows where an engine expression is true.
type ExpressionFilter struct {
	Expression string `json:"expression"`
}

func (*ExpressionFilter) Type() string { return "expression" }
func (*ExpressionFilter) filterNode()  {}

func (f *ExpressionFilter) MarshalJSON() ([]byte, error) {
	type payload ExpressionFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

// NullFilter matches rows where Column is null.
type NullFilter struct {
	Column string `json:"column"`
}

func (*NullFilter) Type() string { return "null" }
func (*NullFilter) filterNode()  {}

func (f *NullFilter) MarshalJSON() ([]byte, error) {
	type payload NullFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

// AndFilter matches rows matched by every field.
type AndFilter struct {
	Fields FilterList `json:"fields"`
}

// And returns the conjunction of fields.
func And(fields ...Filter) *AndFilter {
	return &AndFilter{Fields: fields}
}

func (*AndFilter) Type() string { return "and" }
func (*AndFilter) filterNode()  {}

func (f *AndFilter) MarshalJSON() ([]byte, error) {
	type payload AndFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *AndFilter) Validate() error {
	if len(f.Fields) == 0 {
		return &wire.FieldError{Field: "fields", Message: "must not be empty"}
	}
	return nil
}

// OrFilter matches rows matched by any field.
type OrFilter struct {
	Fields FilterList `json:"fields"`
}

// Or returns the disjunction of fields.
func Or(fields ...Filter) *OrFilter {
	return &OrFilter{Fields: fields}
}

func (*OrFilter) Type() string { return "or" }
func (*OrFilter) filterNode()  {}

func (f *OrFilter) MarshalJSON() ([]byte, error) {
	type payload OrFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *OrFilter) Validate() error {
	if len(f.Fields) == 0 {
		return &wire.FieldError{Field: "fields", Message: "must not be empty"}
	}
	return nil
}

// NotFilter inverts Field.
type NotFilter struct {
	Field Filter `json:"field"`
}

// Not returns the negation of field.
func Not(field Filter) *NotFilter {
	return &NotFilter{Field: field}
}

func (*NotFilter) Type() string { return "not" }
func (*NotFilter) filterNode()  {}

func (f *NotFilter) MarshalJSON() ([]byte, error) {
	type payload NotFilter
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *NotFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Field json.RawMessage `json:"field"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, Filters, aux.Field, &f.Field)
	return d.err
}

func (f *NotFilter) Validate() error {
	if f.Field == nil {
		return &wire.FieldError{Field: "field", Message: "must not be null"}
	}
	return nil
}

// TrueFilter matches every row.
type TrueFilter struct{}

func (*TrueFilter) Type() string { return "true" }
func (*TrueFilter) filterNode()  {}

func (f *TrueFilter) MarshalJSON() ([]byte, error) {
	return wire.MarshalTagged(f.Type(), struct{}{})
}

// FalseFilter matches no row.
type FalseFilter struct{}

func (*FalseFilter) Type() string { return "false" }
func (*FalseFilter) filterNode()  {}

func (f *FalseFilter) MarshalJSON() ([]byte, error) {
	return wire.MarshalTagged(f.Type(), struct{}{})
}
