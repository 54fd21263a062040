package query

import (
	"encoding/json"
	"slices"

	"github.com/roach88/druidkit/internal/wire"
)

// fieldDecoder decodes the nested variant fields of one payload, keeping the
// first error and skipping the remaining fields once one fails.
type fieldDecoder struct {
	err error
}

func decodeField[T wire.Variant](d *fieldDecoder, f *wire.Family[T], raw json.RawMessage, dst *T) {
	if d.err != nil {
		return
	}
	v, err := f.DecodeOptional(raw)
	if err != nil {
		d.err = err
		return
	}
	*dst = v
}

func decodeList[T wire.Variant](f *wire.Family[T], data []byte) ([]T, error) {
	return f.DecodeArray(data)
}

// FilterList is a list of filters decoded through Filters.
type FilterList []Filter

// UnmarshalJSON implements json.Unmarshaler.
func (l *FilterList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(Filters, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ExtractionList is a list of extraction functions.
type ExtractionList []ExtractionFunction

// UnmarshalJSON implements json.Unmarshaler.
func (l *ExtractionList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(ExtractionFunctions, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// AggregatorList is a list of aggregators.
type AggregatorList []Aggregator

// UnmarshalJSON implements json.Unmarshaler.
func (l *AggregatorList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(Aggregators, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// PostAggregatorList is a list of post-aggregators.
type PostAggregatorList []PostAggregator

// UnmarshalJSON implements json.Unmarshaler.
func (l *PostAggregatorList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(PostAggregators, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// VirtualColumnList is a list of virtual columns.
type VirtualColumnList []VirtualColumn

// UnmarshalJSON implements json.Unmarshaler.
func (l *VirtualColumnList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(VirtualColumns, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// DimensionList is a list of dimension specs, each either a bare column
// name or a tagged object.
type DimensionList []DimensionSpec

// UnmarshalJSON implements json.Unmarshaler.
func (l *DimensionList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(DimensionSpecs, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// HavingList is a list of having specs.
type HavingList []HavingSpec

// UnmarshalJSON implements json.Unmarshaler.
func (l *HavingList) UnmarshalJSON(data []byte) error {
	v, err := decodeList(HavingSpecs, data)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// oneOf reports whether v is one of allowed. The empty string is accepted
// when allowEmpty is set, for optional enum fields.
func oneOf(v string, allowEmpty bool, allowed ...string) bool {
	if v == "" {
		return allowEmpty
	}
	return slices.Contains(allowed, v)
}
