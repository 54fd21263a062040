package result

import (
	"encoding/json"
	"errors"

	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// Result is the decoded response to one native query.
type Result interface {
	wire.Variant
	// Len returns the number of top-level rows.
	Len() int
	decodeRows(data []byte) error
}

// Family decodes results stored in tagged form.
var Family = wire.NewFamily[Result]("result",
	func() Result { return new(Timeseries) },
	func() Result { return new(TopN) },
	func() Result { return new(GroupBy) },
	func() Result { return new(Scan) },
	func() Result { return new(TimeBoundary) },
)

// Decode decodes an engine response body for a query of queryType.
func Decode(queryType string, data []byte) (Result, error) {
	r, err := Family.New(queryType)
	if err != nil {
		return nil, err
	}
	if err := r.decodeRows(data); err != nil {
		var de *wire.DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, wire.InvalidPayload(Family.Name(), queryType, "rows", err)
	}
	return r, nil
}

// Encode returns the canonical tagged form of r.
func Encode(r Result) ([]byte, error) {
	return wire.Marshal(r)
}

func decodeRows[T any](data []byte, rows *[]T) error {
	if err := json.Unmarshal(data, rows); err != nil {
		return err
	}
	if *rows == nil {
		*rows = []T{}
	}
	return nil
}

// TimeseriesRow is one time bucket.
type TimeseriesRow struct {
	Timestamp value.Timestamp `json:"timestamp"`
	Result    value.Item      `json:"result"`
}

// Timeseries is the response to a timeseries query.
type Timeseries struct {
	Rows []TimeseriesRow `json:"rows"`
}

func (*Timeseries) Type() string                   { return "timeseries" }
func (r *Timeseries) Len() int                     { return len(r.Rows) }
func (r *Timeseries) decodeRows(data []byte) error { return decodeRows(data, &r.Rows) }

func (r *Timeseries) MarshalJSON() ([]byte, error) {
	type payload Timeseries
	return wire.MarshalTagged(r.Type(), (*payload)(r))
}

// TopNRow is the ranked list of one time bucket.
type TopNRow struct {
	Timestamp value.Timestamp `json:"timestamp"`
	Result    []value.Item    `json:"result"`
}

// TopN is the response to a topN query.
type TopN struct {
	Rows []TopNRow `json:"rows"`
}

func (*TopN) Type() string                   { return "topN" }
func (r *TopN) Len() int                     { return len(r.Rows) }
func (r *TopN) decodeRows(data []byte) error { return decodeRows(data, &r.Rows) }

func (r *TopN) MarshalJSON() ([]byte, error) {
	type payload TopN
	return wire.MarshalTagged(r.Type(), (*payload)(r))
}

// GroupByRow is one group of one time bucket.
type GroupByRow struct {
	Version   string          `json:"version"`
	Timestamp value.Timestamp `json:"timestamp"`
	Event     value.Item      `json:"event"`
}

// GroupBy is the response to a groupBy query.
type GroupBy struct {
	Rows []GroupByRow `json:"rows"`
}

func (*GroupBy) Type() string                   { return "groupBy" }
func (r *GroupBy) Len() int                     { return len(r.Rows) }
func (r *GroupBy) decodeRows(data []byte) error { return decodeRows(data, &r.Rows) }

func (r *GroupBy) MarshalJSON() ([]byte, error) {
	type payload GroupBy
	return wire.MarshalTagged(r.Type(), (*payload)(r))
}

// Events returns the event of every row in order.
func (r *GroupBy) Events() []value.Item {
	events := make([]value.Item, len(r.Rows))
	for i, row := range r.Rows {
		events[i] = row.Event
	}
	return events
}

// Scan is the response to a scan query: one batch per segment read.
type Scan struct {
	Rows []ScanBatch `json:"rows"`
}

func (*Scan) Type() string                   { return "scan" }
func (r *Scan) Len() int                     { return len(r.Rows) }
func (r *Scan) decodeRows(data []byte) error { return decodeRows(data, &r.Rows) }

func (r *Scan) MarshalJSON() ([]byte, error) {
	type payload Scan
	return wire.MarshalTagged(r.Type(), (*payload)(r))
}

// TimeBoundaryRow holds the bounds of a data source.
type TimeBoundaryRow struct {
	Timestamp value.Timestamp `json:"timestamp"`
	Result    Bounds          `json:"result"`
}

// Bounds is the earliest and latest event time. A bound the query did not
// ask for is nil.
type Bounds struct {
	MinTime *value.Timestamp `json:"minTime,omitempty"`
	MaxTime *value.Timestamp `json:"maxTime,omitempty"`
}

// TimeBoundary is the response to a timeBoundary query.
type TimeBoundary struct {
	Rows []TimeBoundaryRow `json:"rows"`
}

func (*TimeBoundary) Type() string                   { return "timeBoundary" }
func (r *TimeBoundary) Len() int                     { return len(r.Rows) }
func (r *TimeBoundary) decodeRows(data []byte) error { return decodeRows(data, &r.Rows) }

func (r *TimeBoundary) MarshalJSON() ([]byte, error) {
	type payload TimeBoundary
	return wire.MarshalTagged(r.Type(), (*payload)(r))
}
