package value

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the engine's result timestamp format.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a result-row timestamp: UTC, millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC milliseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.UTC().Format(TimestampLayout))
}

// UnmarshalJSON accepts any RFC 3339 timestamp, with or without fraction.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", text, err)
	}
	*ts = NewTimestamp(t)
	return nil
}
