// Package sqlapi builds requests for the engine's SQL endpoint and decodes
// its responses.
//
// Values are always sent as typed parameters bound to '?' placeholders and
// are never interpolated into the SQL text.
package sqlapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// ResultFormatObject returns each row as a JSON object keyed by column.
const ResultFormatObject = "object"

// TimestampLayout is the text form of TIMESTAMP parameters.
const TimestampLayout = "2006-01-02 15:04:05.000"

// Parameter types understood by the SQL planner.
const (
	TypeVarchar   = "VARCHAR"
	TypeBigint    = "BIGINT"
	TypeDouble    = "DOUBLE"
	TypeBoolean   = "BOOLEAN"
	TypeTimestamp = "TIMESTAMP"
)

// Parameter is one positional value.
type Parameter struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Request is the body posted to the SQL endpoint.
type Request struct {
	Query        string         `json:"query"`
	ResultFormat string         `json:"resultFormat,omitempty"`
	Header       bool           `json:"header,omitempty"`
	Parameters   []Parameter    `json:"parameters,omitempty"`
	Context      *query.Context `json:"context,omitempty"`
}

// NewRequest returns an object-format request binding args to the '?'
// placeholders of sql in order.
func NewRequest(sql string, args ...any) (*Request, error) {
	if n := countPlaceholders(sql); n != len(args) {
		return nil, fmt.Errorf("sql has %d placeholders but %d arguments were given", n, len(args))
	}
	params := make([]Parameter, len(args))
	for i, arg := range args {
		p, err := Param(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		params[i] = p
	}
	return &Request{Query: sql, ResultFormat: ResultFormatObject, Parameters: params}, nil
}

// QueryContext returns the request context, allocating it on first use.
func (r *Request) QueryContext() *query.Context {
	if r.Context == nil {
		r.Context = &query.Context{}
	}
	return r.Context
}

// Param converts a Go value to a typed parameter.
func Param(v any) (Parameter, error) {
	switch x := v.(type) {
	case string:
		return Parameter{Type: TypeVarchar, Value: x}, nil
	case bool:
		return Parameter{Type: TypeBoolean, Value: x}, nil
	case int:
		return Parameter{Type: TypeBigint, Value: int64(x)}, nil
	case int32:
		return Parameter{Type: TypeBigint, Value: int64(x)}, nil
	case int64:
		return Parameter{Type: TypeBigint, Value: x}, nil
	case uint32:
		return Parameter{Type: TypeBigint, Value: int64(x)}, nil
	case float32:
		return double(float64(x))
	case float64:
		return double(x)
	case value.Real:
		return double(x.Float64())
	case decimal.Decimal:
		return Parameter{Type: TypeDouble, Value: json.Number(x.String())}, nil
	case time.Time:
		return Parameter{Type: TypeTimestamp, Value: x.UTC().Format(TimestampLayout)}, nil
	case value.Timestamp:
		return Parameter{Type: TypeTimestamp, Value: x.UTC().Format(TimestampLayout)}, nil
	default:
		return Parameter{}, fmt.Errorf("unsupported parameter type %T", v)
	}
}

func double(f float64) (Parameter, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Parameter{}, fmt.Errorf("non-finite DOUBLE parameter %v", f)
	}
	return Parameter{Type: TypeDouble, Value: f}, nil
}

// countPlaceholders counts '?' outside string literals, quoted identifiers
// and comments.
func countPlaceholders(sql string) int {
	n := 0
	for i := 0; i < len(sql); i++ {
		switch c := sql[i]; {
		case c == '\'' || c == '"':
			// Doubled quotes inside a literal re-enter the same loop.
			for i++; i < len(sql) && sql[i] != c; i++ {
			}
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := i + 2
			for end+1 < len(sql) && !(sql[end] == '*' && sql[end+1] == '/') {
				end++
			}
			i = end + 1
		case c == '?':
			n++
		}
	}
	return n
}

// Encode returns the canonical request body.
func Encode(r *Request) ([]byte, error) {
	return wire.Marshal(r)
}

// DecodeRows decodes an object-format response.
func DecodeRows(data []byte) ([]value.Item, error) {
	var rows []value.Item
	if err := json.Unmarshal(data, &rows); err != nil {
		var de *wire.DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &wire.DecodeError{Code: wire.ErrCodeInvalidPayload, Family: "sql", Field: "rows", Err: err}
	}
	if rows == nil {
		rows = []value.Item{}
	}
	return rows, nil
}
