package ingest

import (
	"github.com/roach88/druidkit/internal/wire"
)

// PartitionsSpec decides how rows are split into segments.
type PartitionsSpec interface {
	wire.Variant
	partitionsNode()
}

// PartitionsSpecs is the partitions spec family.
var PartitionsSpecs = wire.NewFamily[PartitionsSpec]("partitionsSpec",
	func() PartitionsSpec { return new(DynamicPartitions) },
	func() PartitionsSpec { return new(HashedPartitions) },
	func() PartitionsSpec { return new(SingleDimPartitions) },
	func() PartitionsSpec { return new(RangePartitions) },
)

// DynamicPartitions cuts segments by row count as data arrives.
type DynamicPartitions struct {
	MaxRowsPerSegment int   `json:"maxRowsPerSegment,omitempty"`
	MaxTotalRows      int64 `json:"maxTotalRows,omitempty"`
}

func (*DynamicPartitions) Type() string    { return "dynamic" }
func (*DynamicPartitions) partitionsNode() {}

func (p *DynamicPartitions) MarshalJSON() ([]byte, error) {
	type payload DynamicPartitions
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// HashedPartitions shards by a hash of PartitionDimensions. Exactly one of
// NumShards and TargetRowsPerSegment may be set.
type HashedPartitions struct {
	NumShards            int      `json:"numShards,omitempty"`
	TargetRowsPerSegment int      `json:"targetRowsPerSegment,omitempty"`
	PartitionDimensions  []string `json:"partitionDimensions,omitempty"`
}

func (*HashedPartitions) Type() string    { return "hashed" }
func (*HashedPartitions) partitionsNode() {}

func (p *HashedPartitions) MarshalJSON() ([]byte, error) {
	type payload HashedPartitions
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

func (p *HashedPartitions) Validate() error {
	if p.NumShards > 0 && p.TargetRowsPerSegment > 0 {
		return &wire.FieldError{Field: "numShards", Message: "numShards and targetRowsPerSegment are mutually exclusive"}
	}
	return nil
}

// SingleDimPartitions splits on value ranges of one dimension.
type SingleDimPartitions struct {
	PartitionDimension   string `json:"partitionDimension"`
	TargetRowsPerSegment int    `json:"targetRowsPerSegment,omitempty"`
	MaxRowsPerSegment    int    `json:"maxRowsPerSegment,omitempty"`
	AssumeGrouped        bool   `json:"assumeGrouped,omitempty"`
}

func (*SingleDimPartitions) Type() string    { return "single_dim" }
func (*SingleDimPartitions) partitionsNode() {}

func (p *SingleDimPartitions) MarshalJSON() ([]byte, error) {
	type payload SingleDimPartitions
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

// RangePartitions splits on value ranges of several dimensions.
type RangePartitions struct {
	PartitionDimensions  []string `json:"partitionDimensions"`
	TargetRowsPerSegment int      `json:"targetRowsPerSegment,omitempty"`
	MaxRowsPerSegment    int      `json:"maxRowsPerSegment,omitempty"`
	AssumeGrouped        bool     `json:"assumeGrouped,omitempty"`
}

func (*RangePartitions) Type() string    { return "range" }
func (*RangePartitions) partitionsNode() {}

func (p *RangePartitions) MarshalJSON() ([]byte, error) {
	type payload RangePartitions
	return wire.MarshalTagged(p.Type(), (*payload)(p))
}

func (p *RangePartitions) Validate() error {
	if len(p.PartitionDimensions) == 0 {
		return &wire.FieldError{Field: "partitionDimensions", Message: "must not be empty"}
	}
	return nil
}
