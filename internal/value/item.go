package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/druidkit/internal/wire"
)

// Item is a result row whose keys are not known statically.
//
// Decoding partitions every key into exactly one group by trying, in order:
// the string wrapper (Dimensions), the numeric wrapper (Metrics), then JSON
// null (Nulls). Any other value (a bool, an object, a mixed array) fails
// with UNCLASSIFIABLE_FIELD. Groups are invisible on the wire: encoding
// writes one flat object and the next decode reconstructs the groups.
type Item struct {
	Dimensions map[string]Strings
	Metrics    map[string]Numbers
	Nulls      map[string]struct{}
}

// NewItem returns an empty row.
func NewItem() Item {
	return Item{
		Dimensions: map[string]Strings{},
		Metrics:    map[string]Numbers{},
		Nulls:      map[string]struct{}{},
	}
}

// SetDimension stores a string value under key, removing it from other groups.
func (it *Item) SetDimension(key string, v Strings) {
	it.init()
	it.clear(key)
	it.Dimensions[key] = v
}

// SetMetric stores a numeric value under key, removing it from other groups.
func (it *Item) SetMetric(key string, v Numbers) {
	it.init()
	it.clear(key)
	it.Metrics[key] = v
}

// SetNull records key as null, removing it from other groups.
func (it *Item) SetNull(key string) {
	it.init()
	it.clear(key)
	it.Nulls[key] = struct{}{}
}

// Dimension returns the string value under key.
func (it Item) Dimension(key string) (Strings, bool) {
	v, ok := it.Dimensions[key]
	return v, ok
}

// Metric returns the numeric value under key.
func (it Item) Metric(key string) (Numbers, bool) {
	v, ok := it.Metrics[key]
	return v, ok
}

// Float returns the metric under key when it is a single number.
func (it Item) Float(key string) (float64, bool) {
	v, ok := it.Metrics[key]
	if !ok {
		return 0, false
	}
	r, ok := v.Single()
	return float64(r), ok
}

// IsNull reports whether key was null.
func (it Item) IsNull(key string) bool {
	_, ok := it.Nulls[key]
	return ok
}

// Keys returns every key across the three groups, sorted.
func (it Item) Keys() []string {
	keys := make([]string, 0, it.Len())
	for k := range it.Dimensions {
		keys = append(keys, k)
	}
	for k := range it.Metrics {
		keys = append(keys, k)
	}
	for k := range it.Nulls {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of keys.
func (it Item) Len() int {
	return len(it.Dimensions) + len(it.Metrics) + len(it.Nulls)
}

func (it *Item) init() {
	if it.Dimensions == nil {
		it.Dimensions = map[string]Strings{}
	}
	if it.Metrics == nil {
		it.Metrics = map[string]Numbers{}
	}
	if it.Nulls == nil {
		it.Nulls = map[string]struct{}{}
	}
}

func (it *Item) clear(key string) {
	delete(it.Dimensions, key)
	delete(it.Metrics, key)
	delete(it.Nulls, key)
}

// MarshalJSON writes all groups into one flat object.
// A key present in more than one group is an error.
func (it Item) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, it.Len())
	for k, v := range it.Dimensions {
		flat[k] = v
	}
	for k, v := range it.Metrics {
		if _, dup := flat[k]; dup {
			return nil, fmt.Errorf("item key %q is in more than one group", k)
		}
		flat[k] = v
	}
	for k := range it.Nulls {
		if _, dup := flat[k]; dup {
			return nil, fmt.Errorf("item key %q is in more than one group", k)
		}
		flat[k] = nil
	}
	return json.Marshal(flat)
}

// UnmarshalJSON classifies each key of a JSON object by trial decoding.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &wire.DecodeError{Code: wire.ErrCodeUnclassifiable, Text: string(data), Message: "result item is not a JSON object", Err: err}
	}
	if raw == nil {
		return &wire.DecodeError{Code: wire.ErrCodeUnclassifiable, Text: "null", Message: "result item is null"}
	}

	out := NewItem()
	for key, val := range raw {
		if err := classify(key, val, &out); err != nil {
			return err
		}
	}
	*it = out
	return nil
}

// classify runs the candidate decoders in their fixed priority order and
// stores val in the first group that accepts it.
func classify(key string, val json.RawMessage, it *Item) error {
	var s Strings
	if err := s.UnmarshalJSON(val); err == nil {
		it.Dimensions[key] = s
		return nil
	}

	var n Numbers
	if err := n.UnmarshalJSON(val); err == nil {
		it.Metrics[key] = n
		return nil
	}

	if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
		it.Nulls[key] = struct{}{}
		return nil
	}

	return wire.Unclassifiable(key, string(val))
}
