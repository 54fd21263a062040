package ingest

import (
	"encoding/json"
	"net/url"
	"slices"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// InputSource says where the engine reads raw data from.
type InputSource interface {
	wire.Variant
	inputSourceNode()
}

// InputSources is the input source family.
var InputSources = wire.NewFamily[InputSource]("inputSource",
	func() InputSource { return new(LocalInput) },
	func() InputSource { return new(HTTPInput) },
	func() InputSource { return new(InlineInput) },
	func() InputSource { return new(S3Input) },
	func() InputSource { return new(DruidInput) },
)

// LocalInput reads files on the engine hosts. Either BaseDir with Filter or
// an explicit Files list is required.
type LocalInput struct {
	BaseDir string   `json:"baseDir,omitempty"`
	Filter  string   `json:"filter,omitempty"`
	Files   []string `json:"files,omitempty"`
}

func (*LocalInput) Type() string     { return "local" }
func (*LocalInput) inputSourceNode() {}

func (s *LocalInput) MarshalJSON() ([]byte, error) {
	type payload LocalInput
	return wire.MarshalTagged(s.Type(), (*payload)(s))
}

func (s *LocalInput) Validate() error {
	if s.BaseDir == "" && len(s.Files) == 0 {
		return &wire.FieldError{Field: "baseDir", Message: "baseDir or files is required"}
	}
	return nil
}

// HTTPInput reads from HTTP URIs.
type HTTPInput struct {
	URIs []string `json:"uris"`
}

func (*HTTPInput) Type() string     { return "http" }
func (*HTTPInput) inputSourceNode() {}

func (s *HTTPInput) MarshalJSON() ([]byte, error) {
	type payload HTTPInput
	return wire.MarshalTagged(s.Type(), (*payload)(s))
}

func (s *HTTPInput) Validate() error {
	if len(s.URIs) == 0 {
		return &wire.FieldError{Field: "uris", Message: "must not be empty"}
	}
	if err := validateURIs(s.URIs, "http", "https"); err != nil {
		return err
	}
	return nil
}

// InlineInput carries the data in the task itself.
type InlineInput struct {
	Data string `json:"data"`
}

func (*InlineInput) Type() string     { return "inline" }
func (*InlineInput) inputSourceNode() {}

func (s *InlineInput) MarshalJSON() ([]byte, error) {
	type payload InlineInput
	return wire.MarshalTagged(s.Type(), (*payload)(s))
}

// S3Input reads objects from S3. Exactly one of URIs and Prefixes is set.
type S3Input struct {
	URIs     []string `json:"uris,omitempty"`
	Prefixes []string `json:"prefixes,omitempty"`
}

func (*S3Input) Type() string     { return "s3" }
func (*S3Input) inputSourceNode() {}

func (s *S3Input) MarshalJSON() ([]byte, error) {
	type payload S3Input
	return wire.MarshalTagged(s.Type(), (*payload)(s))
}

func (s *S3Input) Validate() error {
	if (len(s.URIs) == 0) == (len(s.Prefixes) == 0) {
		return &wire.FieldError{Field: "uris", Message: "exactly one of uris and prefixes is required"}
	}
	if err := validateURIs(s.URIs, "s3"); err != nil {
		return err
	}
	if err := validateURIs(s.Prefixes, "s3"); err != nil {
		err.Field = "prefixes"
		return err
	}
	return nil
}

// DruidInput re-reads existing segments of a data source, as reindexing
// tasks do.
type DruidInput struct {
	DataSource string         `json:"dataSource"`
	Interval   value.Interval `json:"interval"`
	Filter     query.Filter   `json:"filter,omitempty"`
}

func (*DruidInput) Type() string     { return "druid" }
func (*DruidInput) inputSourceNode() {}

func (s *DruidInput) MarshalJSON() ([]byte, error) {
	type payload DruidInput
	return wire.MarshalTagged(s.Type(), (*payload)(s))
}

func (s *DruidInput) UnmarshalJSON(data []byte) error {
	type payload DruidInput
	aux := struct {
		*payload
		Filter json.RawMessage `json:"filter"`
	}{payload: (*payload)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f, err := query.Filters.DecodeOptional(aux.Filter)
	if err != nil {
		return err
	}
	s.Filter = f
	return nil
}

func validateURIs(uris []string, schemes ...string) *wire.FieldError {
	for _, raw := range uris {
		u, err := url.Parse(raw)
		if err != nil {
			return &wire.FieldError{Field: "uris", Message: err.Error()}
		}
		if !slices.Contains(schemes, u.Scheme) {
			return &wire.FieldError{Field: "uris", Message: "unsupported scheme in " + raw}
		}
	}
	return nil
}

// InputFormat says how raw bytes are parsed into rows.
type InputFormat interface {
	wire.Variant
	inputFormatNode()
}

// InputFormats is the input format family.
var InputFormats = wire.NewFamily[InputFormat]("inputFormat",
	func() InputFormat { return new(JSONFormat) },
	func() InputFormat { return new(CSVFormat) },
	func() InputFormat { return new(TSVFormat) },
	func() InputFormat { return new(ParquetFormat) },
)

// FlattenField extracts one column from nested input.
type FlattenField struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Expr string `json:"expr,omitempty"`
}

// FlattenSpec flattens nested JSON or Parquet input.
type FlattenSpec struct {
	UseFieldDiscovery *bool          `json:"useFieldDiscovery,omitempty"`
	Fields            []FlattenField `json:"fields,omitempty"`
}

// JSONFormat parses newline-delimited JSON.
type JSONFormat struct {
	FlattenSpec *FlattenSpec `json:"flattenSpec,omitempty"`
}

func (*JSONFormat) Type() string     { return "json" }
func (*JSONFormat) inputFormatNode() {}

func (f *JSONFormat) MarshalJSON() ([]byte, error) {
	type payload JSONFormat
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

// CSVFormat parses comma-separated values. Columns is required unless
// FindColumnsFromHeader is set.
type CSVFormat struct {
	Columns               []string `json:"columns,omitempty"`
	FindColumnsFromHeader bool     `json:"findColumnsFromHeader,omitempty"`
	SkipHeaderRows        int      `json:"skipHeaderRows,omitempty"`
	ListDelimiter         string   `json:"listDelimiter,omitempty"`
}

func (*CSVFormat) Type() string     { return "csv" }
func (*CSVFormat) inputFormatNode() {}

func (f *CSVFormat) MarshalJSON() ([]byte, error) {
	type payload CSVFormat
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *CSVFormat) Validate() error {
	if len(f.Columns) == 0 && !f.FindColumnsFromHeader {
		return &wire.FieldError{Field: "columns", Message: "columns or findColumnsFromHeader is required"}
	}
	return nil
}

// TSVFormat parses delimiter-separated values, tab by default.
type TSVFormat struct {
	Columns               []string `json:"columns,omitempty"`
	FindColumnsFromHeader bool     `json:"findColumnsFromHeader,omitempty"`
	SkipHeaderRows        int      `json:"skipHeaderRows,omitempty"`
	Delimiter             string   `json:"delimiter,omitempty"`
	ListDelimiter         string   `json:"listDelimiter,omitempty"`
}

func (*TSVFormat) Type() string     { return "tsv" }
func (*TSVFormat) inputFormatNode() {}

func (f *TSVFormat) MarshalJSON() ([]byte, error) {
	type payload TSVFormat
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}

func (f *TSVFormat) Validate() error {
	if len(f.Columns) == 0 && !f.FindColumnsFromHeader {
		return &wire.FieldError{Field: "columns", Message: "columns or findColumnsFromHeader is required"}
	}
	return nil
}

// ParquetFormat parses Parquet files.
type ParquetFormat struct {
	BinaryAsString bool         `json:"binaryAsString,omitempty"`
	FlattenSpec    *FlattenSpec `json:"flattenSpec,omitempty"`
}

func (*ParquetFormat) Type() string     { return "parquet" }
func (*ParquetFormat) inputFormatNode() {}

func (f *ParquetFormat) MarshalJSON() ([]byte, error) {
	type payload ParquetFormat
	return wire.MarshalTagged(f.Type(), (*payload)(f))
}
