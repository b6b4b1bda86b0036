package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/logsink/internal/models"
	"github.com/telhawk-systems/logsink/internal/queue"
)

// recordingRepository collects inserted records and can fail selected writes.
type recordingRepository struct {
	mu       sync.Mutex
	inserted []models.QueuedRecord
	failOn   map[string]error
}

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{failOn: make(map[string]error)}
}

func (r *recordingRepository) InsertLog(ctx context.Context, rec models.QueuedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failOn[rec.Message]; ok {
		return err
	}
	r.inserted = append(r.inserted, rec)
	return nil
}

func (r *recordingRepository) CountLogs(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.inserted)), nil
}

func (r *recordingRepository) Close() {}

func (r *recordingRepository) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.inserted))
	for i, rec := range r.inserted {
		out[i] = rec.Message
	}
	return out
}

func TestWriterPersistsInOrder(t *testing.T) {
	q := queue.New(10)
	repo := newRecordingRepository()
	w := NewWriter(q, repo, nil)
	w.Start()

	for _, msg := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(models.QueuedRecord{Level: "error", Message: msg}))
	}

	q.Close()
	require.True(t, w.Wait(5*time.Second))

	assert.Equal(t, []string{"A", "B", "C"}, repo.messages())
}

func TestWriterContinuesAfterInsertFailure(t *testing.T) {
	q := queue.New(10)
	repo := newRecordingRepository()
	repo.failOn["B"] = errors.New("connection reset")

	w := NewWriter(q, repo, nil)
	w.Start()

	for _, msg := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(models.QueuedRecord{Level: "error", Message: msg}))
	}

	q.Close()
	require.True(t, w.Wait(5*time.Second))

	// B is lost, the writer keeps going.
	assert.Equal(t, []string{"A", "C"}, repo.messages())
}

func TestWriterExitsOnEmptyClosedQueue(t *testing.T) {
	q := queue.New(10)
	w := NewWriter(q, newRecordingRepository(), nil)
	w.Start()

	q.Close()
	assert.True(t, w.Wait(5*time.Second))
}

func TestWriterWaitTimeout(t *testing.T) {
	q := queue.New(10)
	w := NewWriter(q, newRecordingRepository(), nil)
	w.Start()

	// Queue stays open: the writer keeps running and Wait must give up.
	assert.False(t, w.Wait(50*time.Millisecond))

	q.Close()
	assert.True(t, w.Wait(5*time.Second))
}
