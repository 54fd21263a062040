package query

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// DataSource names what a query reads from.
type DataSource interface {
	wire.Variant
	dataSourceNode()
}

// DataSources is the data source family. A bare string decodes to a table.
var DataSources = wire.NewFamily[DataSource]("dataSource",
	func() DataSource { return new(TableDataSource) },
	func() DataSource { return new(UnionDataSource) },
	func() DataSource { return new(QueryDataSource) },
).WithShorthand(func(data []byte) (DataSource, error) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return nil, wire.MalformedTag("dataSource", "expected a table name or an object")
	}
	return Table(name), nil
})

// TableDataSource reads one table.
type TableDataSource struct {
	Name string `json:"name"`

	bare bool
}

// Table returns the bare-name form, encoded as a plain string.
func Table(name string) *TableDataSource {
	return &TableDataSource{Name: name, bare: true}
}

func (*TableDataSource) Type() string    { return "table" }
func (*TableDataSource) dataSourceNode() {}

func (t *TableDataSource) MarshalJSON() ([]byte, error) {
	if t.bare {
		return json.Marshal(t.Name)
	}
	type payload TableDataSource
	return wire.MarshalTagged(t.Type(), (*payload)(t))
}

func (t *TableDataSource) Validate() error {
	if t.Name == "" {
		return &wire.FieldError{Field: "name", Message: "must not be empty"}
	}
	return nil
}

// UnionDataSource reads several tables with the same schema.
type UnionDataSource struct {
	DataSources []string `json:"dataSources"`
}

func (*UnionDataSource) Type() string    { return "union" }
func (*UnionDataSource) dataSourceNode() {}

func (u *UnionDataSource) MarshalJSON() ([]byte, error) {
	type payload UnionDataSource
	return wire.MarshalTagged(u.Type(), (*payload)(u))
}

func (u *UnionDataSource) Validate() error {
	if len(u.DataSources) == 0 {
		return &wire.FieldError{Field: "dataSources", Message: "must not be empty"}
	}
	return nil
}

// QueryDataSource reads the result of a subquery.
type QueryDataSource struct {
	Query Query `json:"query"`
}

func (*QueryDataSource) Type() string    { return "query" }
func (*QueryDataSource) dataSourceNode() {}

func (q *QueryDataSource) MarshalJSON() ([]byte, error) {
	type payload QueryDataSource
	return wire.MarshalTagged(q.Type(), (*payload)(q))
}

func (q *QueryDataSource) UnmarshalJSON(data []byte) error {
	var aux struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var d fieldDecoder
	decodeField(&d, Queries, aux.Query, &q.Query)
	return d.err
}

func (q *QueryDataSource) Validate() error {
	if q.Query == nil {
		return &wire.FieldError{Field: "query", Message: "must not be null"}
	}
	return nil
}
