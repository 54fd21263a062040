package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// TagField is the default discriminator key.
const TagField = "type"

// Variant is implemented by every member of a tagged family.
// Type returns the wire discriminator and must be a constant per Go type.
type Variant interface {
	Type() string
}

// Validator is implemented by variants with constraints beyond field
// presence. Validate runs after the payload is decoded.
type Validator interface {
	Validate() error
}

// Family decodes a closed set of variants that share one JSON object shape.
//
// A Family is built once at package init and never mutated afterwards, so
// it is safe for concurrent use.
type Family[T Variant] struct {
	name      string
	tagField  string
	ctors     map[string]func() T
	required  map[string][]string
	keys      map[string][]string
	tags      []string
	shorthand func(data []byte) (T, error)
}

// NewFamily registers the variants produced by ctors under their Type tags.
// Each constructor must return a fresh pointer to a zero payload.
// Duplicate tags panic: that is a programming error, not a decode path.
func NewFamily[T Variant](name string, ctors ...func() T) *Family[T] {
	f := &Family[T]{
		name:     name,
		tagField: TagField,
		ctors:    make(map[string]func() T, len(ctors)),
		required: make(map[string][]string, len(ctors)),
		keys:     make(map[string][]string, len(ctors)),
	}
	for _, ctor := range ctors {
		v := ctor()
		tag := v.Type()
		if _, dup := f.ctors[tag]; dup {
			panic(fmt.Sprintf("wire: duplicate %s tag %q", name, tag))
		}
		f.ctors[tag] = ctor
		f.required[tag] = requiredFields(reflect.TypeOf(v))
		f.keys[tag] = fieldKeys(reflect.TypeOf(v), false)
		f.tags = append(f.tags, tag)
	}
	slices.Sort(f.tags)
	return f
}

// WithShorthand installs a decoder for the scalar form some families accept
// (for example a bare table name for a data source). It is consulted only
// when the JSON value is a non-null scalar.
func (f *Family[T]) WithShorthand(fn func(data []byte) (T, error)) *Family[T] {
	f.shorthand = fn
	return f
}

// WithTagField sets the discriminator key for families that do not use
// "type", such as native queries ("queryType").
func (f *Family[T]) WithTagField(field string) *Family[T] {
	f.tagField = field
	return f
}

// TagField returns the discriminator key.
func (f *Family[T]) TagField() string {
	return f.tagField
}

// Name returns the family name used in errors.
func (f *Family[T]) Name() string {
	return f.name
}

// Tags returns the registered discriminators in sorted order.
func (f *Family[T]) Tags() []string {
	return slices.Clone(f.tags)
}

// New returns a fresh zero payload for tag.
func (f *Family[T]) New(tag string) (T, error) {
	ctor, ok := f.ctors[tag]
	if !ok {
		var zero T
		return zero, UnknownVariant(f.name, tag)
	}
	return ctor(), nil
}

// Decode reads the discriminator, then decodes the same object into the
// matching variant. It either returns a fully populated variant or an error;
// there is no partial result and no default variant.
func (f *Family[T]) Decode(data []byte) (T, error) {
	var zero T

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return zero, MalformedTag(f.name, "empty input")
	}
	if data[0] != '{' {
		if f.shorthand != nil && data[0] != '[' && !bytes.Equal(data, []byte("null")) {
			return f.shorthand(data)
		}
		return zero, MalformedTag(f.name, "expected a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return zero, MalformedTag(f.name, err.Error())
	}

	rawTag, ok := fields[f.tagField]
	if !ok {
		return zero, MalformedTag(f.name, fmt.Sprintf("missing %q", f.tagField))
	}
	rawTag = bytes.TrimSpace(rawTag)
	if len(rawTag) == 0 || rawTag[0] != '"' {
		return zero, MalformedTag(f.name, fmt.Sprintf("%q is not a string", f.tagField))
	}
	var tag string
	if err := json.Unmarshal(rawTag, &tag); err != nil {
		return zero, MalformedTag(f.name, err.Error())
	}

	ctor, ok := f.ctors[tag]
	if !ok {
		return zero, UnknownVariant(f.name, tag)
	}

	for _, key := range f.required[tag] {
		raw, present := fields[key]
		if !present {
			return zero, InvalidPayload(f.name, tag, key, errors.New("required field missing"))
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return zero, InvalidPayload(f.name, tag, key, errors.New("required field is null"))
		}
	}
	if err := f.checkKeyCase(tag, fields); err != nil {
		return zero, err
	}

	v := ctor()
	if err := json.Unmarshal(data, v); err != nil {
		return zero, f.payloadError(tag, err)
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return zero, f.payloadError(tag, err)
		}
	}
	return v, nil
}

// DecodeOptional decodes raw, treating an absent or null value as the zero T.
func (f *Family[T]) DecodeOptional(raw json.RawMessage) (T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		var zero T
		return zero, nil
	}
	return f.Decode(raw)
}

// DecodeList decodes each element of raws in order.
func (f *Family[T]) DecodeList(raws []json.RawMessage) ([]T, error) {
	if raws == nil {
		return nil, nil
	}
	out := make([]T, len(raws))
	for i, raw := range raws {
		v, err := f.Decode(raw)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// DecodeArray decodes a JSON array of variants.
func (f *Family[T]) DecodeArray(data []byte) ([]T, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, InvalidPayload(f.name, "", "", err)
	}
	return f.DecodeList(raws)
}

// payloadError keeps nested decode errors intact and maps everything else
// onto InvalidPayload.
func (f *Family[T]) payloadError(tag string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return InvalidPayload(f.name, tag, fe.Field, errors.New(fe.Message))
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return InvalidPayload(f.name, tag, ute.Field, err)
	}
	return InvalidPayload(f.name, tag, "", err)
}

// checkKeyCase rejects keys that match a payload key only case-insensitively.
// encoding/json would fold them onto the real field, so the decoded value
// would no longer describe the wire bytes.
func (f *Family[T]) checkKeyCase(tag string, fields map[string]json.RawMessage) error {
	known := append([]string{f.tagField}, f.keys[tag]...)
	for key := range fields {
		if slices.Contains(known, key) {
			continue
		}
		for _, k := range known {
			if strings.EqualFold(key, k) {
				return InvalidPayload(f.name, tag, key, fmt.Errorf("key differs from %q only in case", k))
			}
		}
	}
	return nil
}

// FieldError is returned by Validate implementations to name the field
// that violates a constraint.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requiredFields lists the JSON keys of t that are not tagged omitempty.
// Embedded structs without a JSON name are flattened, as encoding/json does.
func requiredFields(t reflect.Type) []string {
	return fieldKeys(t, true)
}

// fieldKeys lists the JSON keys of t, or only the required ones.
func fieldKeys(t reflect.Type, requiredOnly bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if field.Anonymous && name == "" {
			keys = append(keys, fieldKeys(field.Type, requiredOnly)...)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if requiredOnly && (hasOption(opts, "omitempty") || hasOption(opts, "omitzero")) {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}
