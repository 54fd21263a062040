package value

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/roach88/druidkit/internal/wire"
)

// OneOrMany holds either a single T or an ordered sequence of T.
//
// Decode tries the bare scalar first, then an array of T; if neither fits
// the value is AMBIGUOUS_VALUE_SHAPE. Encode re-emits exactly the shape that
// was decoded or constructed: scalars stay scalars and arrays stay arrays,
// even a one-element array. The shape is observable through IsMany because
// some result rows are genuinely multi-valued per dimension.
type OneOrMany[T any] struct {
	values []T
	many   bool
}

// Strings is the string instance of OneOrMany, used for result dimensions.
type Strings = OneOrMany[string]

// Numbers is the numeric instance of OneOrMany, used for result metrics.
type Numbers = OneOrMany[Real]

// One returns the scalar form.
func One[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{values: []T{v}}
}

// Many returns the array form. No arguments encodes as [].
func Many[T any](vs ...T) OneOrMany[T] {
	return OneOrMany[T]{values: append([]T{}, vs...), many: true}
}

// IsMany reports whether the value has the array shape.
func (o OneOrMany[T]) IsMany() bool {
	return o.many
}

// Single returns the scalar and true when the value has the scalar shape.
func (o OneOrMany[T]) Single() (T, bool) {
	if o.many || len(o.values) != 1 {
		var zero T
		return zero, false
	}
	return o.values[0], true
}

// Values returns the elements in order; a scalar yields one element.
func (o OneOrMany[T]) Values() []T {
	return slices.Clone(o.values)
}

// Len returns the number of elements.
func (o OneOrMany[T]) Len() int {
	return len(o.values)
}

// MarshalJSON implements json.Marshaler.
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if o.many {
		if len(o.values) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(o.values)
	}
	if len(o.values) == 0 {
		var zero T
		return json.Marshal(zero)
	}
	return json.Marshal(o.values[0])
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '[' && !bytes.Equal(data, []byte("null")) {
		var single T
		if err := json.Unmarshal(data, &single); err == nil {
			*o = OneOrMany[T]{values: []T{single}}
			return nil
		}
	}

	if len(data) > 0 && data[0] == '[' {
		if many, ok := decodeElements[T](data); ok {
			*o = OneOrMany[T]{values: many, many: true}
			return nil
		}
	}

	return wire.AmbiguousShape(string(data))
}

// decodeElements decodes an array element by element. A null element has no
// T to stand for, so it fails the whole array.
func decodeElements[T any](data []byte) ([]T, bool) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, false
	}
	many := make([]T, 0, len(raws))
	for _, raw := range raws {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, false
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, false
		}
		many = append(many, v)
	}
	return many, true
}
