package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEntryUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantErr   bool
		wantLevel string
		wantExtra map[string]interface{}
	}{
		{
			name:      "named fields only",
			payload:   `{"level":"error","message":"disk full"}`,
			wantLevel: "error",
			wantExtra: map[string]interface{}{},
		},
		{
			name:      "extra fields captured",
			payload:   `{"level":"error","message":"x","service":"billing","attempt":3}`,
			wantLevel: "error",
			wantExtra: map[string]interface{}{"service": "billing", "attempt": float64(3)},
		},
		{
			name:      "nested extra values survive",
			payload:   `{"level":"info","message":"y","ctx":{"pod":"a","labels":["x","y"]}}`,
			wantLevel: "info",
			wantExtra: map[string]interface{}{
				"ctx": map[string]interface{}{"pod": "a", "labels": []interface{}{"x", "y"}},
			},
		},
		{
			name:    "missing level",
			payload: `{"message":"no level"}`,
			wantErr: true,
		},
		{
			name:    "missing message",
			payload: `{"level":"error"}`,
			wantErr: true,
		},
		{
			name:    "non-string level",
			payload: `{"level":3,"message":"x"}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			payload: `["level","message"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry LogEntry
			err := json.Unmarshal([]byte(tt.payload), &entry)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantExtra, entry.Extra)
		})
	}
}

func TestLogEntryRoundTrip(t *testing.T) {
	payload := `{"level":"error","message":"x","timestamp":"2024-01-01T00:00:00Z","trace":{"id":"abc"}}`

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(payload), &entry))

	out, err := json.Marshal(entry)
	require.NoError(t, err)

	var original, reencoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &original))
	require.NoError(t, json.Unmarshal(out, &reencoded))

	// No field present in the original payload may be dropped.
	assert.Equal(t, original, reencoded)
}

func TestLogEntryBatchDecode(t *testing.T) {
	payload := `[{"level":"error","message":"a"},{"level":"info","message":"b"}]`

	var entries []LogEntry
	require.NoError(t, json.Unmarshal([]byte(payload), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Message)
	assert.Equal(t, "info", entries[1].Level)
}
