package result

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/druidkit/internal/value"
)

// ScanBatch is the rows one segment contributed to a scan.
//
// Both result formats are accepted. With "compactedList" each event is an
// array aligned with Columns; it is expanded to an Item on decode, so a
// batch always encodes in list form.
type ScanBatch struct {
	SegmentID string       `json:"segmentId"`
	Columns   []string     `json:"columns"`
	Events    []value.Item `json:"events"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ScanBatch) UnmarshalJSON(data []byte) error {
	var aux struct {
		SegmentID string            `json:"segmentId"`
		Columns   []string          `json:"columns"`
		Events    []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	events := make([]value.Item, len(aux.Events))
	for i, raw := range aux.Events {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			expanded, err := expandCompacted(aux.Columns, raw)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			raw = expanded
		}
		if err := json.Unmarshal(raw, &events[i]); err != nil {
			return err
		}
	}

	b.SegmentID, b.Columns, b.Events = aux.SegmentID, aux.Columns, events
	return nil
}

// expandCompacted turns a compacted event into the equivalent object.
func expandCompacted(columns []string, raw json.RawMessage) (json.RawMessage, error) {
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	if len(values) != len(columns) {
		return nil, fmt.Errorf("%d values for %d columns", len(values), len(columns))
	}
	obj := make(map[string]json.RawMessage, len(columns))
	for i, col := range columns {
		obj[col] = values[i]
	}
	return json.Marshal(obj)
}
