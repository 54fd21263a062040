package wire

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes decode failures.
type ErrorCode string

const (
	// ErrCodeUnknownVariant indicates a discriminator with no registered variant.
	ErrCodeUnknownVariant ErrorCode = "UNKNOWN_VARIANT"

	// ErrCodeMalformedTag indicates a missing or non-string discriminator.
	ErrCodeMalformedTag ErrorCode = "MALFORMED_TAG"

	// ErrCodeInvalidPayload indicates a recognized variant whose fields failed validation.
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"

	// ErrCodeIntervalParse indicates an interval string that is not "<start>/<end>".
	ErrCodeIntervalParse ErrorCode = "INTERVAL_PARSE"

	// ErrCodeAmbiguousShape indicates a value that is neither the scalar nor the array form.
	ErrCodeAmbiguousShape ErrorCode = "AMBIGUOUS_VALUE_SHAPE"

	// ErrCodeNumberParse indicates a string that is not a number.
	ErrCodeNumberParse ErrorCode = "NUMBER_PARSE"

	// ErrCodeUnclassifiable indicates a result field that is not a string, number or null.
	ErrCodeUnclassifiable ErrorCode = "UNCLASSIFIABLE_FIELD"
)

// DecodeError is returned by every decoder in druidkit.
//
// Family and Tag are set for tagged-family failures, Field for payload and
// result-row failures, Text for the offending input of scalar codecs.
type DecodeError struct {
	Code    ErrorCode
	Family  string
	Tag     string
	Field   string
	Text    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := string(e.Code)
	if e.Family != "" {
		msg += " " + e.Family
	}
	if e.Tag != "" {
		msg += fmt.Sprintf(" %q", e.Tag)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	if e.Text != "" {
		msg += fmt.Sprintf(" text %q", e.Text)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownVariant builds the error for an unregistered discriminator.
func UnknownVariant(family, tag string) *DecodeError {
	return &DecodeError{Code: ErrCodeUnknownVariant, Family: family, Tag: tag}
}

// MalformedTag builds the error for a missing or non-string discriminator.
func MalformedTag(family, message string) *DecodeError {
	return &DecodeError{Code: ErrCodeMalformedTag, Family: family, Message: message}
}

// InvalidPayload builds the error for a payload field that failed validation.
func InvalidPayload(family, tag, field string, err error) *DecodeError {
	return &DecodeError{Code: ErrCodeInvalidPayload, Family: family, Tag: tag, Field: field, Err: err}
}

// IntervalParse builds the error for an unparseable interval.
func IntervalParse(text, message string) *DecodeError {
	return &DecodeError{Code: ErrCodeIntervalParse, Text: text, Message: message}
}

// AmbiguousShape builds the error for a value matching neither scalar nor array form.
func AmbiguousShape(text string) *DecodeError {
	return &DecodeError{Code: ErrCodeAmbiguousShape, Text: text, Message: "neither scalar nor array of the element type"}
}

// NumberParse builds the error for a string that does not parse as a number.
func NumberParse(text string, err error) *DecodeError {
	return &DecodeError{Code: ErrCodeNumberParse, Text: text, Err: err}
}

// Unclassifiable builds the error for a result field outside string, number and null.
func Unclassifiable(field, text string) *DecodeError {
	return &DecodeError{Code: ErrCodeUnclassifiable, Field: field, Text: text}
}

// HasCode reports whether err is a *DecodeError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsUnknownVariant returns true if err is an unknown-discriminator error.
func IsUnknownVariant(err error) bool {
	return HasCode(err, ErrCodeUnknownVariant)
}

// IsMalformedTag returns true if err is a malformed-discriminator error.
func IsMalformedTag(err error) bool {
	return HasCode(err, ErrCodeMalformedTag)
}

// IsInvalidPayload returns true if err is a payload validation error.
func IsInvalidPayload(err error) bool {
	return HasCode(err, ErrCodeInvalidPayload)
}
