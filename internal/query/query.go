package query

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// Query is a native query. The Type tag doubles as the result shape selector.
type Query interface {
	wire.Variant
	// QueryContext returns the query's context, allocating an empty one
	// when none is set.
	QueryContext() *Context
	queryNode()
}

// QueryTagField is the discriminator key of native queries.
const QueryTagField = "queryType"

// Queries is the native query family.
var Queries = wire.NewFamily[Query]("query",
	func() Query { return new(Timeseries) },
	func() Query { return new(TopN) },
	func() Query { return new(GroupBy) },
	func() Query { return new(Scan) },
	func() Query { return new(TimeBoundary) },
).WithTagField(QueryTagField)

// Decode decodes one native query.
func Decode(data []byte) (Query, error) {
	return Queries.Decode(data)
}

// Encode returns the canonical wire bytes of q.
func Encode(q Query) ([]byte, error) {
	return wire.Marshal(q)
}

func ensureContext(c **Context) *Context {
	if *c == nil {
		*c = &Context{}
	}
	return *c
}

// Timeseries aggregates rows into time buckets.
type Timeseries struct {
	DataSource       DataSource         `json:"dataSource"`
	Intervals        []value.Interval   `json:"intervals"`
	Granularity      Granularity        `json:"granularity"`
	Filter           Filter             `json:"filter,omitempty"`
	VirtualColumns   VirtualColumnList  `json:"virtualColumns,omitempty"`
	Aggregations     AggregatorList     `json:"aggregations,omitempty"`
	PostAggregations PostAggregatorList `json:"postAggregations,omitempty"`
	Descending       bool               `json:"descending,omitempty"`
	Limit            int                `json:"limit,omitempty"`
	Context          *Context           `json:"context,omitempty"`
}

func (*Timeseries) Type() string             { return "timeseries" }
func (q *Timeseries) QueryContext() *Context { return ensureContext(&q.Context) }
func (*Timeseries) queryNode()               {}

func (q *Timeseries) MarshalJSON() ([]byte, error) {
	type payload Timeseries
	return wire.MarshalTaggedField(QueryTagField, q.Type(), (*payload)(q))
}

func (q *Timeseries) UnmarshalJSON(data []byte) error {
	type payload Timeseries
	aux := struct {
		*payload
		DataSource  json.RawMessage `json:"dataSource"`
		Granularity json.RawMessage `json:"granularity"`
		Filter      json.RawMessage `json:"filter"`
	}{payload: (*payload)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, DataSources, aux.DataSource, &q.DataSource)
	decodeField(&d, Granularities, aux.Granularity, &q.Granularity)
	decodeField(&d, Filters, aux.Filter, &q.Filter)
	return d.err
}

func (q *Timeseries) Validate() error {
	if err := validateSource(q.DataSource, q.Intervals); err != nil {
		return err
	}
	if q.Limit < 0 {
		return &wire.FieldError{Field: "limit", Message: "must not be negative"}
	}
	return validateOutputNames(q.Aggregations, q.PostAggregations)
}

// TopN ranks the values of one dimension by a metric.
type TopN struct {
	DataSource       DataSource         `json:"dataSource"`
	Intervals        []value.Interval   `json:"intervals"`
	Granularity      Granularity        `json:"granularity"`
	Dimension        DimensionSpec      `json:"dimension"`
	Metric           TopNMetricSpec     `json:"metric"`
	Threshold        int                `json:"threshold"`
	Filter           Filter             `json:"filter,omitempty"`
	VirtualColumns   VirtualColumnList  `json:"virtualColumns,omitempty"`
	Aggregations     AggregatorList     `json:"aggregations,omitempty"`
	PostAggregations PostAggregatorList `json:"postAggregations,omitempty"`
	Context          *Context           `json:"context,omitempty"`
}

func (*TopN) Type() string             { return "topN" }
func (q *TopN) QueryContext() *Context { return ensureContext(&q.Context) }
func (*TopN) queryNode()               {}

func (q *TopN) MarshalJSON() ([]byte, error) {
	type payload TopN
	return wire.MarshalTaggedField(QueryTagField, q.Type(), (*payload)(q))
}

func (q *TopN) UnmarshalJSON(data []byte) error {
	type payload TopN
	aux := struct {
		*payload
		DataSource  json.RawMessage `json:"dataSource"`
		Granularity json.RawMessage `json:"granularity"`
		Dimension   json.RawMessage `json:"dimension"`
		Metric      json.RawMessage `json:"metric"`
		Filter      json.RawMessage `json:"filter"`
	}{payload: (*payload)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, DataSources, aux.DataSource, &q.DataSource)
	decodeField(&d, Granularities, aux.Granularity, &q.Granularity)
	decodeField(&d, DimensionSpecs, aux.Dimension, &q.Dimension)
	decodeField(&d, TopNMetricSpecs, aux.Metric, &q.Metric)
	decodeField(&d, Filters, aux.Filter, &q.Filter)
	return d.err
}

func (q *TopN) Validate() error {
	if err := validateSource(q.DataSource, q.Intervals); err != nil {
		return err
	}
	if q.Threshold <= 0 {
		return &wire.FieldError{Field: "threshold", Message: "must be positive"}
	}
	return validateOutputNames(q.Aggregations, q.PostAggregations)
}

// GroupBy aggregates rows grouped by a set of dimensions.
type GroupBy struct {
	DataSource       DataSource         `json:"dataSource"`
	Intervals        []value.Interval   `json:"intervals"`
	Granularity      Granularity        `json:"granularity"`
	Dimensions       DimensionList      `json:"dimensions,omitempty"`
	Filter           Filter             `json:"filter,omitempty"`
	VirtualColumns   VirtualColumnList  `json:"virtualColumns,omitempty"`
	Aggregations     AggregatorList     `json:"aggregations,omitempty"`
	PostAggregations PostAggregatorList `json:"postAggregations,omitempty"`
	Having           HavingSpec         `json:"having,omitempty"`
	LimitSpec        LimitSpec          `json:"limitSpec,omitempty"`
	SubtotalsSpec    [][]string         `json:"subtotalsSpec,omitempty"`
	Context          *Context           `json:"context,omitempty"`
}

func (*GroupBy) Type() string             { return "groupBy" }
func (q *GroupBy) QueryContext() *Context { return ensureContext(&q.Context) }
func (*GroupBy) queryNode()               {}

func (q *GroupBy) MarshalJSON() ([]byte, error) {
	type payload GroupBy
	return wire.MarshalTaggedField(QueryTagField, q.Type(), (*payload)(q))
}

func (q *GroupBy) UnmarshalJSON(data []byte) error {
	type payload GroupBy
	aux := struct {
		*payload
		DataSource  json.RawMessage `json:"dataSource"`
		Granularity json.RawMessage `json:"granularity"`
		Filter      json.RawMessage `json:"filter"`
		Having      json.RawMessage `json:"having"`
		LimitSpec   json.RawMessage `json:"limitSpec"`
	}{payload: (*payload)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, DataSources, aux.DataSource, &q.DataSource)
	decodeField(&d, Granularities, aux.Granularity, &q.Granularity)
	decodeField(&d, Filters, aux.Filter, &q.Filter)
	decodeField(&d, HavingSpecs, aux.Having, &q.Having)
	decodeField(&d, LimitSpecs, aux.LimitSpec, &q.LimitSpec)
	return d.err
}

func (q *GroupBy) Validate() error {
	if err := validateSource(q.DataSource, q.Intervals); err != nil {
		return err
	}
	return validateOutputNames(q.Aggregations, q.PostAggregations)
}

// Scan result formats.
const (
	ScanResultList          = "list"
	ScanResultCompactedList = "compactedList"
)

// Scan returns raw rows.
type Scan struct {
	DataSource     DataSource        `json:"dataSource"`
	Intervals      []value.Interval  `json:"intervals"`
	Columns        []string          `json:"columns,omitempty"`
	Filter         Filter            `json:"filter,omitempty"`
	VirtualColumns VirtualColumnList `json:"virtualColumns,omitempty"`
	ResultFormat   string            `json:"resultFormat,omitempty"`
	BatchSize      int               `json:"batchSize,omitempty"`
	Limit          int               `json:"limit,omitempty"`
	Offset         int               `json:"offset,omitempty"`
	Order          string            `json:"order,omitempty"`
	Context        *Context          `json:"context,omitempty"`
}

func (*Scan) Type() string             { return "scan" }
func (q *Scan) QueryContext() *Context { return ensureContext(&q.Context) }
func (*Scan) queryNode()               {}

func (q *Scan) MarshalJSON() ([]byte, error) {
	type payload Scan
	return wire.MarshalTaggedField(QueryTagField, q.Type(), (*payload)(q))
}

func (q *Scan) UnmarshalJSON(data []byte) error {
	type payload Scan
	aux := struct {
		*payload
		DataSource json.RawMessage `json:"dataSource"`
		Filter     json.RawMessage `json:"filter"`
	}{payload: (*payload)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, DataSources, aux.DataSource, &q.DataSource)
	decodeField(&d, Filters, aux.Filter, &q.Filter)
	return d.err
}

func (q *Scan) Validate() error {
	if err := validateSource(q.DataSource, q.Intervals); err != nil {
		return err
	}
	if !oneOf(q.ResultFormat, true, ScanResultList, ScanResultCompactedList) {
		return &wire.FieldError{Field: "resultFormat", Message: "unsupported result format " + q.ResultFormat}
	}
	if !oneOf(q.Order, true, "ascending", "descending", "none") {
		return &wire.FieldError{Field: "order", Message: "unknown order " + q.Order}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return &wire.FieldError{Field: "limit", Message: "limit and offset must not be negative"}
	}
	return nil
}

// TimeBoundary returns the earliest and latest timestamps of a data source.
type TimeBoundary struct {
	DataSource DataSource `json:"dataSource"`
	Bound      string     `json:"bound,omitempty"`
	Filter     Filter     `json:"filter,omitempty"`
	Context    *Context   `json:"context,omitempty"`
}

func (*TimeBoundary) Type() string             { return "timeBoundary" }
func (q *TimeBoundary) QueryContext() *Context { return ensureContext(&q.Context) }
func (*TimeBoundary) queryNode()               {}

func (q *TimeBoundary) MarshalJSON() ([]byte, error) {
	type payload TimeBoundary
	return wire.MarshalTaggedField(QueryTagField, q.Type(), (*payload)(q))
}

func (q *TimeBoundary) UnmarshalJSON(data []byte) error {
	type payload TimeBoundary
	aux := struct {
		*payload
		DataSource json.RawMessage `json:"dataSource"`
		Filter     json.RawMessage `json:"filter"`
	}{payload: (*payload)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, DataSources, aux.DataSource, &q.DataSource)
	decodeField(&d, Filters, aux.Filter, &q.Filter)
	return d.err
}

func (q *TimeBoundary) Validate() error {
	if q.DataSource == nil {
		return &wire.FieldError{Field: "dataSource", Message: "must not be null"}
	}
	if !oneOf(q.Bound, true, "minTime", "maxTime") {
		return &wire.FieldError{Field: "bound", Message: "unknown bound " + q.Bound}
	}
	return nil
}

func validateSource(ds DataSource, intervals []value.Interval) error {
	if ds == nil {
		return &wire.FieldError{Field: "dataSource", Message: "must not be null"}
	}
	if len(intervals) == 0 {
		return &wire.FieldError{Field: "intervals", Message: "must not be empty"}
	}
	return nil
}

// validateOutputNames rejects empty and repeated output names across
// aggregators and post-aggregators; the engine reports both under one
// namespace.
func validateOutputNames(aggs []Aggregator, posts []PostAggregator) error {
	seen := make(map[string]bool, len(aggs)+len(posts))
	for _, a := range aggs {
		name := a.OutputName()
		if name == "" {
			return &wire.FieldError{Field: "aggregations", Message: fmt.Sprintf("%s aggregator has no name", a.Type())}
		}
		if seen[name] {
			return &wire.FieldError{Field: "aggregations", Message: fmt.Sprintf("duplicate output name %q", name)}
		}
		seen[name] = true
	}
	for _, p := range posts {
		name := p.OutputName()
		if name == "" {
			return &wire.FieldError{Field: "postAggregations", Message: fmt.Sprintf("%s post-aggregator has no name", p.Type())}
		}
		if seen[name] {
			return &wire.FieldError{Field: "postAggregations", Message: fmt.Sprintf("duplicate output name %q", name)}
		}
		seen[name] = true
	}
	return nil
}
