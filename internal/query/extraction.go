package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// ExtractionFunction transforms dimension values before they are matched or
// grouped.
type ExtractionFunction interface {
	wire.Variant
	extractionNode()
}

// ExtractionFunctions is the extraction function family.
var ExtractionFunctions = wire.NewFamily[ExtractionFunction]("extractionFn",
	func() ExtractionFunction { return new(RegexExtraction) },
	func() ExtractionFunction { return new(PartialExtraction) },
	func() ExtractionFunction { return new(SubstringExtraction) },
	func() ExtractionFunction { return new(StrlenExtraction) },
	func() ExtractionFunction { return new(TimeFormatExtraction) },
	func() ExtractionFunction { return new(UpperExtraction) },
	func() ExtractionFunction { return new(LowerExtraction) },
	func() ExtractionFunction { return new(CascadeExtraction) },
)

// RegexExtraction returns the Index-th capture group of Expr.
type RegexExtraction struct {
	Expr                    string `json:"expr"`
	Index                   int    `json:"index,omitempty"`
	ReplaceMissingValue     bool   `json:"replaceMissingValue,omitempty"`
	ReplaceMissingValueWith string `json:"replaceMissingValueWith,omitempty"`
}

func (*RegexExtraction) Type() string    { return "regex" }
func (*RegexExtraction) extractionNode() {}

func (e *RegexExtraction) MarshalJSON() ([]byte, error) {
	type payload RegexExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

// PartialExtraction returns the value when it matches Expr, null otherwise.
type PartialExtraction struct {
	Expr string `json:"expr"`
}

func (*PartialExtraction) Type() string    { return "partial" }
func (*PartialExtraction) extractionNode() {}

func (e *PartialExtraction) MarshalJSON() ([]byte, error) {
	type payload PartialExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

// SubstringExtraction returns Length runes starting at Index. A nil Length
// runs to the end of the value.
type SubstringExtraction struct {
	Index  int  `json:"index"`
	Length *int `json:"length,omitempty"`
}

func (*SubstringExtraction) Type() string    { return "substring" }
func (*SubstringExtraction) extractionNode() {}

func (e *SubstringExtraction) MarshalJSON() ([]byte, error) {
	type payload SubstringExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

func (e *SubstringExtraction) Validate() error {
	if e.Index < 0 {
		return &wire.FieldError{Field: "index", Message: "must not be negative"}
	}
	if e.Length != nil && *e.Length < 0 {
		return &wire.FieldError{Field: "length", Message: "must not be negative"}
	}
	return nil
}

// StrlenExtraction returns the value's length.
type StrlenExtraction struct{}

func (*StrlenExtraction) Type() string    { return "strlen" }
func (*StrlenExtraction) extractionNode() {}

func (e *StrlenExtraction) MarshalJSON() ([]byte, error) {
	return wire.MarshalTagged(e.Type(), struct{}{})
}

// TimeFormatExtraction formats a time value with a Joda pattern.
type TimeFormatExtraction struct {
	Format      string      `json:"format,omitempty"`
	TimeZone    string      `json:"timeZone,omitempty"`
	Locale      string      `json:"locale,omitempty"`
	Granularity Granularity `json:"granularity,omitempty"`
	AsMillis    bool        `json:"asMillis,omitempty"`
}

func (*TimeFormatExtraction) Type() string    { return "timeFormat" }
func (*TimeFormatExtraction) extractionNode() {}

func (e *TimeFormatExtraction) MarshalJSON() ([]byte, error) {
	type payload TimeFormatExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

func (e *TimeFormatExtraction) UnmarshalJSON(data []byte) error {
	type payload TimeFormatExtraction
	aux := struct {
		*payload
		Granularity json.RawMessage `json:"granularity"`
	}{payload: (*payload)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, Granularities, aux.Granularity, &e.Granularity)
	return d.err
}

// UpperExtraction upper-cases the value.
type UpperExtraction struct {
	Locale string `json:"locale,omitempty"`
}

func (*UpperExtraction) Type() string    { return "upper" }
func (*UpperExtraction) extractionNode() {}

func (e *UpperExtraction) MarshalJSON() ([]byte, error) {
	type payload UpperExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

// LowerExtraction lower-cases the value.
type LowerExtraction struct {
	Locale string `json:"locale,omitempty"`
}

func (*LowerExtraction) Type() string    { return "lower" }
func (*LowerExtraction) extractionNode() {}

func (e *LowerExtraction) MarshalJSON() ([]byte, error) {
	type payload LowerExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

// CascadeExtraction applies ExtractionFns in order.
type CascadeExtraction struct {
	ExtractionFns ExtractionList `json:"extractionFns"`
}

func (*CascadeExtraction) Type() string    { return "cascade" }
func (*CascadeExtraction) extractionNode() {}

func (e *CascadeExtraction) MarshalJSON() ([]byte, error) {
	type payload CascadeExtraction
	return wire.MarshalTagged(e.Type(), (*payload)(e))
}

func (e *CascadeExtraction) Validate() error {
	if len(e.ExtractionFns) == 0 {
		return &wire.FieldError{Field: "extractionFns", Message: "must not be empty"}
	}
	return nil
}
