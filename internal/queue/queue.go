// Package queue provides the bounded FIFO buffer connecting the ingest
// handlers to the persistence writer. Producers block when the buffer is
// full; that blocking is the service's backpressure mechanism.
package queue

import (
	"sync"

	"github.com/telhawk-systems/logsink/internal/models"
)

// DefaultCapacity is used when the configured capacity is zero or negative.
const DefaultCapacity = 10000

// Queue is a bounded FIFO queue of records pending persistence. It is safe
// for concurrent producers; the writer is the single consumer.
type Queue struct {
	records chan models.QueuedRecord
	done    chan struct{}
	once    sync.Once
}

// New creates a queue with the given capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		records: make(chan models.QueuedRecord, capacity),
		done:    make(chan struct{}),
	}
}

// Enqueue appends rec, blocking while the queue is full. It reports false
// once the queue has been closed; the record is then dropped. Records from
// one caller keep their relative order.
func (q *Queue) Enqueue(rec models.QueuedRecord) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.records <- rec:
		return true
	case <-q.done:
		return false
	}
}

// Dequeue removes the oldest record, blocking while the queue is empty.
// After Close, it keeps draining buffered records and reports false only
// once the buffer is exhausted.
func (q *Queue) Dequeue() (models.QueuedRecord, bool) {
	select {
	case rec := <-q.records:
		return rec, true
	case <-q.done:
		// Closed: drain whatever is still buffered.
		select {
		case rec := <-q.records:
			return rec, true
		default:
			return models.QueuedRecord{}, false
		}
	}
}

// Close marks the queue closed. Pending Dequeue calls continue to drain
// already-buffered records; new Enqueue calls fail. Safe to call more than
// once.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
	})
}

// Len returns the number of buffered records.
func (q *Queue) Len() int {
	return len(q.records)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.records)
}
