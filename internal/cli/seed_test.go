package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateEntryShape(t *testing.T) {
	entry := generateEntry("error")

	assert.Equal(t, "error", entry["level"])
	assert.NotEmpty(t, entry["message"])
	assert.NotEmpty(t, entry["service"])
	assert.NotEmpty(t, entry["host"])
}

func TestScenarioParsing(t *testing.T) {
	content := `
batches:
  - count: 5
    level: error
    fields:
      service: billing
  - count: 2
    level: info
`
	var scenario Scenario
	require.NoError(t, yaml.Unmarshal([]byte(content), &scenario))

	require.Len(t, scenario.Batches, 2)
	assert.Equal(t, 5, scenario.Batches[0].Count)
	assert.Equal(t, "error", scenario.Batches[0].Level)
	assert.Equal(t, "billing", scenario.Batches[0].Fields["service"])
	assert.Equal(t, 2, scenario.Batches[1].Count)
}

func TestSendBatch(t *testing.T) {
	var mu sync.Mutex
	var received [][]map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ingest", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var batch []map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &batch))

		mu.Lock()
		received = append(received, batch)
		mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	oldURL := serverURL
	serverURL = srv.URL
	defer func() { serverURL = oldURL }()

	client := &http.Client{Timeout: 5 * time.Second}
	batch := []map[string]interface{}{generateEntry("error"), generateEntry("info")}
	require.NoError(t, sendBatch(client, batch))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Len(t, received[0], 2)
}

func TestSendBatchRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	oldURL := serverURL
	serverURL = srv.URL
	defer func() { serverURL = oldURL }()

	client := &http.Client{Timeout: 5 * time.Second}
	err := sendBatch(client, []map[string]interface{}{generateEntry("error")})
	assert.Error(t, err)
}

func TestSeedFromScenarioFile(t *testing.T) {
	var mu sync.Mutex
	total := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var batch []map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &batch))

		mu.Lock()
		total += len(batch)
		mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
batches:
  - count: 3
    level: error
    fields:
      service: billing
`), 0o644))

	oldURL, oldScenario, oldInterval := serverURL, seedScenario, seedInterval
	serverURL, seedScenario, seedInterval = srv.URL, path, 0
	defer func() { serverURL, seedScenario, seedInterval = oldURL, oldScenario, oldInterval }()

	client := &http.Client{Timeout: 5 * time.Second}
	require.NoError(t, seedFromScenario(seedCmd, client))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, total)
}
