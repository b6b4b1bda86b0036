package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/telhawk-systems/logsink/internal/logging"
	"github.com/telhawk-systems/logsink/internal/models"
	"github.com/telhawk-systems/logsink/internal/queue"
)

// IngestService filters incoming log entries, enriches missing timestamps
// and hands accepted records to the queue. Enqueue may block under
// backpressure; it never fails a request.
type IngestService struct {
	queue      *queue.Queue
	level      string
	logger     *logging.Logger
	stats      models.IngestionStats
	statsMutex sync.RWMutex
}

func NewIngestService(q *queue.Queue, level string, logger *logging.Logger) *IngestService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		queue:  q,
		level:  level,
		logger: logger,
	}
}

// IngestBatch processes one request's entries in order and returns the
// number of records enqueued. Entries whose level does not exactly match
// the configured level are discarded silently. Returning does not mean the
// records are durable, only that they are buffered.
func (s *IngestService) IngestBatch(ctx context.Context, entries []models.LogEntry) int {
	accepted := 0
	for _, entry := range entries {
		if entry.Level != s.level {
			s.logger.DebugContext(ctx, "entry filtered", logging.Level(entry.Level))
			s.recordFiltered()
			continue
		}

		rec := s.buildRecord(&entry)

		// Blocks while the queue is full. A false return means the
		// queue closed during shutdown; the record is dropped.
		if s.queue.Enqueue(rec) {
			s.recordAccepted()
			accepted++
		} else {
			s.logger.DebugContext(ctx, "queue closed, entry dropped", logging.Level(entry.Level))
			s.recordDropped()
		}
	}
	return accepted
}

// buildRecord enriches the entry's extra fields and shapes it for the
// queue. A missing timestamp is injected as the current UTC time in
// RFC3339; a provided one is kept verbatim.
func (s *IngestService) buildRecord(entry *models.LogEntry) models.QueuedRecord {
	if entry.Extra == nil {
		entry.Extra = make(map[string]interface{})
	}
	if _, ok := entry.Extra["timestamp"]; !ok {
		entry.Extra["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	// Non-string timestamps fall back to the empty string.
	timestamp, _ := entry.Extra["timestamp"].(string)

	// Details carries the whole extra map, injected timestamp included.
	// Serialization failure degrades to an empty details column rather
	// than failing the entry.
	details := ""
	if b, err := json.Marshal(entry.Extra); err == nil {
		details = string(b)
	}

	return models.QueuedRecord{
		Level:     entry.Level,
		Message:   entry.Message,
		Timestamp: timestamp,
		Details:   details,
	}
}

// QueueDepth returns the number of records buffered but not yet persisted.
func (s *IngestService) QueueDepth() int {
	return s.queue.Len()
}

// GetStats returns a snapshot of the ingestion counters.
func (s *IngestService) GetStats() models.IngestionStats {
	s.statsMutex.RLock()
	defer s.statsMutex.RUnlock()
	return s.stats
}

func (s *IngestService) recordAccepted() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	s.stats.TotalEntries++
	s.stats.Accepted++
	s.stats.LastEntry = time.Now()
}

func (s *IngestService) recordFiltered() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	s.stats.TotalEntries++
	s.stats.Filtered++
	s.stats.LastEntry = time.Now()
}

func (s *IngestService) recordDropped() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	s.stats.TotalEntries++
	s.stats.Dropped++
	s.stats.LastEntry = time.Now()
}
