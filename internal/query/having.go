package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// HavingSpec filters groupBy result rows after aggregation.
type HavingSpec interface {
	wire.Variant
	havingNode()
}

// HavingSpecs is the having spec family.
var HavingSpecs = wire.NewFamily[HavingSpec]("having",
	func() HavingSpec { return new(GreaterThanHaving) },
	func() HavingSpec { return new(LessThanHaving) },
	func() HavingSpec { return new(EqualToHaving) },
	func() HavingSpec { return new(FilterHaving) },
	func() HavingSpec { return new(AndHaving) },
	func() HavingSpec { return new(OrHaving) },
	func() HavingSpec { return new(NotHaving) },
)

// GreaterThanHaving keeps rows whose Aggregation exceeds Value.
type GreaterThanHaving struct {
	Aggregation string     `json:"aggregation"`
	Value       value.Real `json:"value"`
}

func (*GreaterThanHaving) Type() string { return "greaterThan" }
func (*GreaterThanHaving) havingNode()  {}

func (h *GreaterThanHaving) MarshalJSON() ([]byte, error) {
	type payload GreaterThanHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

// LessThanHaving keeps rows whose Aggregation is below Value.
type LessThanHaving struct {
	Aggregation string     `json:"aggregation"`
	Value       value.Real `json:"value"`
}

func (*LessThanHaving) Type() string { return "lessThan" }
func (*LessThanHaving) havingNode()  {}

func (h *LessThanHaving) MarshalJSON() ([]byte, error) {
	type payload LessThanHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

// EqualToHaving keeps rows whose Aggregation equals Value.
type EqualToHaving struct {
	Aggregation string     `json:"aggregation"`
	Value       value.Real `json:"value"`
}

func (*EqualToHaving) Type() string { return "equalTo" }
func (*EqualToHaving) havingNode()  {}

func (h *EqualToHaving) MarshalJSON() ([]byte, error) {
	type payload EqualToHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

// FilterHaving keeps rows matching a dimension filter.
type FilterHaving struct {
	Filter Filter `json:"filter"`
}

func (*FilterHaving) Type() string { return "filter" }
func (*FilterHaving) havingNode()  {}

func (h *FilterHaving) MarshalJSON() ([]byte, error) {
	type payload FilterHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

func (h *FilterHaving) UnmarshalJSON(data []byte) error {
	var aux struct {
		Filter json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, Filters, aux.Filter, &h.Filter)
	return d.err
}

func (h *FilterHaving) Validate() error {
	if h.Filter == nil {
		return &wire.FieldError{Field: "filter", Message: "must not be null"}
	}
	return nil
}

// AndHaving keeps rows kept by every spec.
type AndHaving struct {
	HavingSpecs HavingList `json:"havingSpecs"`
}

func (*AndHaving) Type() string { return "and" }
func (*AndHaving) havingNode()  {}

func (h *AndHaving) MarshalJSON() ([]byte, error) {
	type payload AndHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

// OrHaving keeps rows kept by any spec.
type OrHaving struct {
	HavingSpecs HavingList `json:"havingSpecs"`
}

func (*OrHaving) Type() string { return "or" }
func (*OrHaving) havingNode()  {}

func (h *OrHaving) MarshalJSON() ([]byte, error) {
	type payload OrHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

// NotHaving inverts HavingSpec.
type NotHaving struct {
	HavingSpec HavingSpec `json:"havingSpec"`
}

func (*NotHaving) Type() string { return "not" }
func (*NotHaving) havingNode()  {}

func (h *NotHaving) MarshalJSON() ([]byte, error) {
	type payload NotHaving
	return wire.MarshalTagged(h.Type(), (*payload)(h))
}

func (h *NotHaving) UnmarshalJSON(data []byte) error {
	var aux struct {
		HavingSpec json.RawMessage `json:"havingSpec"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, HavingSpecs, aux.HavingSpec, &h.HavingSpec)
	return d.err
}

func (h *NotHaving) Validate() error {
	if h.HavingSpec == nil {
		return &wire.FieldError{Field: "havingSpec", Message: "must not be null"}
	}
	return nil
}
