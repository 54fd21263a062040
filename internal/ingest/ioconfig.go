package ingest

import (
	"encoding/json"

	"github.com/roach88/druidkit/internal/wire"
)

// IOConfig connects a task to its input.
type IOConfig interface {
	wire.Variant
	ioConfigNode()
}

// IOConfigs is the I/O config family.
var IOConfigs = wire.NewFamily[IOConfig]("ioConfig",
	func() IOConfig { return new(ParallelIO) },
	func() IOConfig { return new(IndexIO) },
	func() IOConfig { return new(KafkaIO) },
)

// ParallelIO is the I/O config of a parallel batch task.
type ParallelIO struct {
	InputSource      InputSource `json:"inputSource"`
	InputFormat      InputFormat `json:"inputFormat,omitempty"`
	AppendToExisting bool        `json:"appendToExisting,omitempty"`
	DropExisting     bool        `json:"dropExisting,omitempty"`
}

func (*ParallelIO) Type() string  { return "index_parallel" }
func (*ParallelIO) ioConfigNode() {}

func (c *ParallelIO) MarshalJSON() ([]byte, error) {
	type payload ParallelIO
	return wire.MarshalTagged(c.Type(), (*payload)(c))
}

func (c *ParallelIO) UnmarshalJSON(data []byte) error {
	type payload ParallelIO
	aux := struct {
		*payload
		InputSource json.RawMessage `json:"inputSource"`
		InputFormat json.RawMessage `json:"inputFormat"`
	}{payload: (*payload)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	return decodeInput(aux.InputSource, aux.InputFormat, &c.InputSource, &c.InputFormat)
}

func (c *ParallelIO) Validate() error {
	return validateInput(c.InputSource, c.InputFormat)
}

// IndexIO is the I/O config of a single-process batch task.
type IndexIO struct {
	InputSource      InputSource `json:"inputSource"`
	InputFormat      InputFormat `json:"inputFormat,omitempty"`
	AppendToExisting bool        `json:"appendToExisting,omitempty"`
}

func (*IndexIO) Type() string  { return "index" }
func (*IndexIO) ioConfigNode() {}

func (c *IndexIO) MarshalJSON() ([]byte, error) {
	type payload IndexIO
	return wire.MarshalTagged(c.Type(), (*payload)(c))
}

func (c *IndexIO) UnmarshalJSON(data []byte) error {
	type payload IndexIO
	aux := struct {
		*payload
		InputSource json.RawMessage `json:"inputSource"`
		InputFormat json.RawMessage `json:"inputFormat"`
	}{payload: (*payload)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	return decodeInput(aux.InputSource, aux.InputFormat, &c.InputSource, &c.InputFormat)
}

func (c *IndexIO) Validate() error {
	return validateInput(c.InputSource, c.InputFormat)
}

// KafkaIO is the I/O config of a Kafka supervisor.
type KafkaIO struct {
	Topic              string            `json:"topic"`
	ConsumerProperties map[string]string `json:"consumerProperties"`
	InputFormat        InputFormat       `json:"inputFormat,omitempty"`
	TaskCount          int               `json:"taskCount,omitempty"`
	Replicas           int               `json:"replicas,omitempty"`
	TaskDuration       string            `json:"taskDuration,omitempty"`
	UseEarliestOffset  bool              `json:"useEarliestOffset,omitempty"`
}

func (*KafkaIO) Type() string  { return "kafka" }
func (*KafkaIO) ioConfigNode() {}

func (c *KafkaIO) MarshalJSON() ([]byte, error) {
	type payload KafkaIO
	return wire.MarshalTagged(c.Type(), (*payload)(c))
}

func (c *KafkaIO) UnmarshalJSON(data []byte) error {
	type payload KafkaIO
	aux := struct {
		*payload
		InputFormat json.RawMessage `json:"inputFormat"`
	}{payload: (*payload)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	format, err := InputFormats.DecodeOptional(aux.InputFormat)
	if err != nil {
		return err
	}
	c.InputFormat = format
	return nil
}

func (c *KafkaIO) Validate() error {
	if c.Topic == "" {
		return &wire.FieldError{Field: "topic", Message: "must not be empty"}
	}
	if c.ConsumerProperties["bootstrap.servers"] == "" {
		return &wire.FieldError{Field: "consumerProperties", Message: "bootstrap.servers is required"}
	}
	return nil
}

func decodeInput(rawSource, rawFormat json.RawMessage, source *InputSource, format *InputFormat) error {
	s, err := InputSources.DecodeOptional(rawSource)
	if err != nil {
		return err
	}
	f, err := InputFormats.DecodeOptional(rawFormat)
	if err != nil {
		return err
	}
	*source, *format = s, f
	return nil
}

// validateInput requires a format for every source except druid, which
// reads segments and has no raw format.
func validateInput(source InputSource, format InputFormat) error {
	if source == nil {
		return &wire.FieldError{Field: "inputSource", Message: "must not be null"}
	}
	if _, reindex := source.(*DruidInput); !reindex && format == nil {
		return &wire.FieldError{Field: "inputFormat", Message: "required for " + source.Type() + " input"}
	}
	return nil
}
