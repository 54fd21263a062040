package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/roach88/druidkit/internal/wire"
)

// Reserved string tokens for the non-finite reals.
const (
	PositiveInfinityToken = "Infinity"
	NegativeInfinityToken = "-Infinity"
)

// Real is a float64 that may also be +Inf or -Inf.
//
// Decode order:
//  1. a JSON string equal to "Infinity" or "-Infinity" maps to ±Inf;
//  2. any other JSON string is parsed as an en-US decimal ("1,234.5"),
//     failing with NUMBER_PARSE;
//  3. anything else is decoded as a JSON number.
//
// Encode: ±Inf become the reserved strings, finite values are always JSON
// numbers. NaN has no wire form and fails to encode.
type Real float64

// Inf returns +Inf when sign >= 0 and -Inf otherwise.
func Inf(sign int) Real {
	return Real(math.Inf(sign))
}

// Float64 returns r as a float64.
func (r Real) Float64() float64 {
	return float64(r)
}

// IsInf reports whether r is an infinity.
func (r Real) IsInf() bool {
	return math.IsInf(float64(r), 0)
}

// MarshalJSON implements json.Marshaler.
func (r Real) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsInf(f, 1):
		return json.Marshal(PositiveInfinityToken)
	case math.IsInf(f, -1):
		return json.Marshal(NegativeInfinityToken)
	case math.IsNaN(f):
		return nil, errors.New("NaN has no JSON representation")
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Real) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return wire.NumberParse(string(data), err)
		}
		switch s {
		case PositiveInfinityToken:
			*r = Inf(1)
			return nil
		case NegativeInfinityToken:
			*r = Inf(-1)
			return nil
		}
		f, err := ParseLocalized(s)
		if err != nil {
			return err
		}
		*r = Real(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return wire.NumberParse(string(data), err)
	}
	*r = Real(f)
	return nil
}

// separators are the en-US decimal and grouping marks, derived once from
// CLDR data at init. Never mutated afterwards.
var separators = deriveSeparators(language.AmericanEnglish)

type numberSeparators struct {
	decimal rune
	group   rune
}

// deriveSeparators formats a known value in tag's locale and reads the marks
// back out of the result. Falls back to '.' and ',' if the output is not
// the expected shape.
func deriveSeparators(tag language.Tag) numberSeparators {
	fallback := numberSeparators{decimal: '.', group: ','}

	formatted := message.NewPrinter(tag).Sprint(number.Decimal(1234.5))
	var marks []rune
	for _, r := range formatted {
		if !unicode.IsDigit(r) {
			marks = append(marks, r)
		}
	}
	if len(marks) != 2 || marks[0] == marks[1] {
		return fallback
	}
	return numberSeparators{group: marks[0], decimal: marks[1]}
}

// checkGrouping requires grouping marks to split the integer digits into
// a leading group of one to three digits followed by groups of exactly three.
func checkGrouping(s string) error {
	s = strings.TrimLeft(s, "+-")
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == separators.decimal || r == 'e' || r == 'E'
	})
	intPart, rest := s, ""
	if end >= 0 {
		intPart, rest = s[:end], s[end:]
	}
	if strings.ContainsRune(rest, separators.group) {
		return errors.New("grouping mark outside the integer digits")
	}
	if !strings.ContainsRune(intPart, separators.group) {
		return nil
	}
	for i, g := range strings.Split(intPart, string(separators.group)) {
		if n := len(g); n == 0 || n > 3 || (i > 0 && n != 3) {
			return fmt.Errorf("misplaced grouping mark in %q", intPart)
		}
	}
	return nil
}

// ParseLocalized parses an en-US formatted decimal such as "1,234.5",
// "-0.25" or "1.5e3". Grouping marks are accepted only between groups of
// three integer digits; any other content fails with NUMBER_PARSE.
func ParseLocalized(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, wire.NumberParse(s, errors.New("empty"))
	}
	if err := checkGrouping(trimmed); err != nil {
		return 0, wire.NumberParse(s, err)
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch r {
		case separators.group:
			continue
		case separators.decimal:
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return 0, wire.NumberParse(s, err)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, wire.NumberParse(s, strconv.ErrRange)
	}
	return f, nil
}
