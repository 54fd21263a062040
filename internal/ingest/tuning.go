package ingest

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// TuningConfig holds task performance settings.
type TuningConfig interface {
	wire.Variant
	tuningNode()
}

// TuningConfigs is the tuning config family.
var TuningConfigs = wire.NewFamily[TuningConfig]("tuningConfig",
	func() TuningConfig { return new(ParallelTuning) },
	func() TuningConfig { return new(IndexTuning) },
	func() TuningConfig { return new(KafkaTuning) },
)

// ParallelTuning tunes a parallel batch task.
type ParallelTuning struct {
	MaxRowsInMemory          int            `json:"maxRowsInMemory,omitempty"`
	MaxBytesInMemory         int64          `json:"maxBytesInMemory,omitempty"`
	PartitionsSpec           PartitionsSpec `json:"partitionsSpec,omitempty"`
	MaxNumConcurrentSubTasks int            `json:"maxNumConcurrentSubTasks,omitempty"`
	MaxRetry                 int            `json:"maxRetry,omitempty"`
	ForceGuaranteedRollup    bool           `json:"forceGuaranteedRollup,omitempty"`
}

func (*ParallelTuning) Type() string { return "index_parallel" }
func (*ParallelTuning) tuningNode()  {}

func (c *ParallelTuning) MarshalJSON() ([]byte, error) {
	type payload ParallelTuning
	return wire.MarshalTagged(c.Type(), (*payload)(c))
}

func (c *ParallelTuning) UnmarshalJSON(data []byte) error {
	type payload ParallelTuning
	aux := struct {
		*payload
		PartitionsSpec json.RawMessage `json:"partitionsSpec"`
	}{payload: (*payload)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	spec, err := PartitionsSpecs.DecodeOptional(aux.PartitionsSpec)
	if err != nil {
		return err
	}
	c.PartitionsSpec = spec
	return nil
}

// Validate checks that perfect rollup is only requested with a partitioning
// that supports it.
func (c *ParallelTuning) Validate() error {
	if !c.ForceGuaranteedRollup {
		return nil
	}
	if _, dynamic := c.PartitionsSpec.(*DynamicPartitions); dynamic || c.PartitionsSpec == nil {
		return &wire.FieldError{Field: "partitionsSpec", Message: "forceGuaranteedRollup needs hashed, single_dim or range partitioning"}
	}
	return nil
}

// IndexTuning tunes a single-process batch task.
type IndexTuning struct {
	MaxRowsInMemory  int            `json:"maxRowsInMemory,omitempty"`
	MaxBytesInMemory int64          `json:"maxBytesInMemory,omitempty"`
	PartitionsSpec   PartitionsSpec `json:"partitionsSpec,omitempty"`
}

func (*IndexTuning) Type() string { return "index" }
func (*IndexTuning) tuningNode()  {}

func (c *IndexTuning) MarshalJSON() ([]byte, error) {
	type payload IndexTuning
	return wire.MarshalTagged(c.Type(), (*payload)(c))
}

func (c *IndexTuning) UnmarshalJSON(data []byte) error {
	type payload IndexTuning
	aux := struct {
		*payload
		PartitionsSpec json.RawMessage `json:"partitionsSpec"`
	}{payload: (*payload)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	spec, err := PartitionsSpecs.DecodeOptional(aux.PartitionsSpec)
	if err != nil {
		return err
	}
	c.PartitionsSpec = spec
	return nil
}

// KafkaTuning tunes a Kafka supervisor's tasks.
type KafkaTuning struct {
	MaxRowsInMemory           int    `json:"maxRowsInMemory,omitempty"`
	MaxRowsPerSegment         int    `json:"maxRowsPerSegment,omitempty"`
	IntermediatePersistPeriod string `json:"intermediatePersistPeriod,omitempty"`
	ResetOffsetAutomatically  bool   `json:"resetOffsetAutomatically,omitempty"`
}

func (*KafkaTuning) Type() string { return "kafka" }
func (*KafkaTuning) tuningNode()  {}

func (c *KafkaTuning) MarshalJSON() ([]byte, error) {
	type payload KafkaTuning
	return wire.MarshalTagged(c.Type(), (*payload)(c))
}
