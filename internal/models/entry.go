package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LogEntry is a log record as received on the ingest endpoint. Level and
// Message are the only named fields; every other key in the payload is
// captured in Extra so that nothing a client sends is ever dropped.
type LogEntry struct {
	Level   string
	Message string
	Extra   map[string]interface{}
}

// UnmarshalJSON decodes a log entry, splitting the payload into the named
// fields and the open-ended extra map.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	level, ok := raw["level"].(string)
	if !ok {
		return fmt.Errorf("log entry missing string field %q", "level")
	}
	message, ok := raw["message"].(string)
	if !ok {
		return fmt.Errorf("log entry missing string field %q", "message")
	}

	delete(raw, "level")
	delete(raw, "message")

	e.Level = level
	e.Message = message
	e.Extra = raw
	return nil
}

// MarshalJSON encodes the entry back to its wire shape, with the extra
// fields flattened alongside level and message.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["level"] = e.Level
	out["message"] = e.Message
	return json.Marshal(out)
}

// QueuedRecord is the subset of a LogEntry accepted for persistence.
// Timestamp holds the resolved RFC3339 time and Details the serialized
// extra fields, including that timestamp.
type QueuedRecord struct {
	Level     string
	Message   string
	Timestamp string
	Details   string
}

// StoredRow is a persisted log record. Rows are append-only; nothing in
// the service updates or deletes them.
type StoredRow struct {
	ID        int64  `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details"`
}

// IngestionStats tracks counters for the ingest pipeline.
type IngestionStats struct {
	TotalEntries int64     `json:"total_entries"`
	Accepted     int64     `json:"accepted"`
	Filtered     int64     `json:"filtered"`
	Dropped      int64     `json:"dropped"`
	LastEntry    time.Time `json:"last_entry"`
}
