package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/druidkit/internal/ids"
	"github.com/roach88/druidkit/internal/value"
	"github.com/roach88/druidkit/internal/wire"
)

// Task is an ingestion or maintenance task submitted to the overlord.
type Task interface {
	wire.Variant
	// TaskID returns the id, empty when the overlord should assign one.
	TaskID() string
	// DataSourceName is the data source the task writes or deletes.
	DataSourceName() string
	setTaskID(id string)
}

// Tasks is the task family.
var Tasks = wire.NewFamily[Task]("task",
	func() Task { return new(ParallelIndexTask) },
	func() Task { return new(IndexTask) },
	func() Task { return new(KillTask) },
	func() Task { return new(CompactTask) },
)

// Decode decodes one task spec.
func Decode(data []byte) (Task, error) {
	return Tasks.Decode(data)
}

// Encode returns the canonical wire bytes of t.
func Encode(t Task) ([]byte, error) {
	return wire.Marshal(t)
}

// NewTaskID builds an id of the form "<type>_<dataSource>_<unique>".
func NewTaskID(gen ids.Generator, t Task) string {
	return fmt.Sprintf("%s_%s_%s", t.Type(), t.DataSourceName(), gen.Generate())
}

// AssignID gives t a generated id unless it already has one, and returns
// the id in effect.
func AssignID(gen ids.Generator, t Task) string {
	if id := t.TaskID(); id != "" {
		return id
	}
	id := NewTaskID(gen, t)
	t.setTaskID(id)
	return id
}

// IngestionSpec is the body of a batch ingestion task.
type IngestionSpec struct {
	DataSchema   DataSchema   `json:"dataSchema"`
	IOConfig     IOConfig     `json:"ioConfig"`
	TuningConfig TuningConfig `json:"tuningConfig,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *IngestionSpec) UnmarshalJSON(data []byte) error {
	type payload IngestionSpec
	aux := struct {
		*payload
		IOConfig     json.RawMessage `json:"ioConfig"`
		TuningConfig json.RawMessage `json:"tuningConfig"`
	}{payload: (*payload)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	io, err := IOConfigs.DecodeOptional(aux.IOConfig)
	if err != nil {
		return err
	}
	tuning, err := TuningConfigs.DecodeOptional(aux.TuningConfig)
	if err != nil {
		return err
	}
	s.IOConfig, s.TuningConfig = io, tuning
	return nil
}

// validate checks the schema and that the I/O and tuning configs belong to
// a task of taskType.
func (s *IngestionSpec) validate(taskType string) error {
	if err := s.DataSchema.validate(); err != nil {
		return err
	}
	if s.IOConfig == nil {
		return &wire.FieldError{Field: "ioConfig", Message: "must not be null"}
	}
	if s.IOConfig.Type() != taskType {
		return &wire.FieldError{Field: "ioConfig", Message: fmt.Sprintf("%s ioConfig in a %s task", s.IOConfig.Type(), taskType)}
	}
	if s.TuningConfig != nil && s.TuningConfig.Type() != taskType {
		return &wire.FieldError{Field: "tuningConfig", Message: fmt.Sprintf("%s tuningConfig in a %s task", s.TuningConfig.Type(), taskType)}
	}
	return nil
}

// ParallelIndexTask ingests batch data with parallel subtasks.
type ParallelIndexTask struct {
	ID      string         `json:"id,omitempty"`
	Spec    IngestionSpec  `json:"spec"`
	Context map[string]any `json:"context,omitempty"`
}

func (*ParallelIndexTask) Type() string             { return "index_parallel" }
func (t *ParallelIndexTask) TaskID() string         { return t.ID }
func (t *ParallelIndexTask) DataSourceName() string { return t.Spec.DataSchema.DataSource }
func (t *ParallelIndexTask) setTaskID(id string)    { t.ID = id }

func (t *ParallelIndexTask) MarshalJSON() ([]byte, error) {
	type payload ParallelIndexTask
	return wire.MarshalTagged(t.Type(), (*payload)(t))
}

func (t *ParallelIndexTask) Validate() error {
	return t.Spec.validate(t.Type())
}

// IndexTask ingests batch data in a single process.
type IndexTask struct {
	ID      string         `json:"id,omitempty"`
	Spec    IngestionSpec  `json:"spec"`
	Context map[string]any `json:"context,omitempty"`
}

func (*IndexTask) Type() string             { return "index" }
func (t *IndexTask) TaskID() string         { return t.ID }
func (t *IndexTask) DataSourceName() string { return t.Spec.DataSchema.DataSource }
func (t *IndexTask) setTaskID(id string)    { t.ID = id }

func (t *IndexTask) MarshalJSON() ([]byte, error) {
	type payload IndexTask
	return wire.MarshalTagged(t.Type(), (*payload)(t))
}

func (t *IndexTask) Validate() error {
	return t.Spec.validate(t.Type())
}

// KillTask permanently deletes unused segments in Interval.
type KillTask struct {
	ID           string         `json:"id,omitempty"`
	DataSource   string         `json:"dataSource"`
	Interval     value.Interval `json:"interval"`
	MarkAsUnused bool           `json:"markAsUnused,omitempty"`
}

func (*KillTask) Type() string             { return "kill" }
func (t *KillTask) TaskID() string         { return t.ID }
func (t *KillTask) DataSourceName() string { return t.DataSource }
func (t *KillTask) setTaskID(id string)    { t.ID = id }

func (t *KillTask) MarshalJSON() ([]byte, error) {
	type payload KillTask
	return wire.MarshalTagged(t.Type(), (*payload)(t))
}

// CompactionInput selects the segments a compaction rewrites.
type CompactionInput struct {
	Type     string         `json:"type"`
	Interval value.Interval `json:"interval"`
}

// CompactionIO is the I/O config of a compaction task.
type CompactionIO struct {
	Type      string          `json:"type"`
	InputSpec CompactionInput `json:"inputSpec"`
}

// CompactTask rewrites the segments of an interval.
type CompactTask struct {
	ID           string       `json:"id,omitempty"`
	DataSource   string       `json:"dataSource"`
	IOConfig     CompactionIO `json:"ioConfig"`
	TuningConfig TuningConfig `json:"tuningConfig,omitempty"`
}

// Compact returns a compaction task over interval.
func Compact(dataSource string, interval value.Interval) *CompactTask {
	return &CompactTask{
		DataSource: dataSource,
		IOConfig: CompactionIO{
			Type:      "compact",
			InputSpec: CompactionInput{Type: "interval", Interval: interval},
		},
	}
}

func (*CompactTask) Type() string             { return "compact" }
func (t *CompactTask) TaskID() string         { return t.ID }
func (t *CompactTask) DataSourceName() string { return t.DataSource }
func (t *CompactTask) setTaskID(id string)    { t.ID = id }

func (t *CompactTask) MarshalJSON() ([]byte, error) {
	type payload CompactTask
	return wire.MarshalTagged(t.Type(), (*payload)(t))
}

func (t *CompactTask) UnmarshalJSON(data []byte) error {
	type payload CompactTask
	aux := struct {
		*payload
		TuningConfig json.RawMessage `json:"tuningConfig"`
	}{payload: (*payload)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	tuning, err := TuningConfigs.DecodeOptional(aux.TuningConfig)
	if err != nil {
		return err
	}
	t.TuningConfig = tuning
	return nil
}

func (t *CompactTask) Validate() error {
	if t.IOConfig.Type != "compact" || t.IOConfig.InputSpec.Type != "interval" {
		return &wire.FieldError{Field: "ioConfig", Message: `expected a "compact" ioConfig with an "interval" inputSpec`}
	}
	return nil
}
