// Package worker runs the single background consumer that drains the
// queue into the durable store.
package worker

import (
	"context"
	"time"

	"github.com/telhawk-systems/logsink/internal/logging"
	"github.com/telhawk-systems/logsink/internal/queue"
	"github.com/telhawk-systems/logsink/internal/repository"
)

// Writer holds the sole reading end of the queue and the repository
// handle. It runs until the queue is closed and drained.
type Writer struct {
	queue  *queue.Queue
	repo   repository.LogRepository
	logger *logging.Logger
	done   chan struct{}
}

func NewWriter(q *queue.Queue, repo repository.LogRepository, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Writer{
		queue:  q,
		repo:   repo,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the writer goroutine. Call once at process init.
func (w *Writer) Start() {
	go w.run()
}

func (w *Writer) run() {
	defer close(w.done)

	for {
		rec, ok := w.queue.Dequeue()
		if !ok {
			w.logger.Info("queue drained, writer stopping")
			return
		}

		// A failed write loses the record; the writer keeps going.
		if err := w.repo.InsertLog(context.Background(), rec); err != nil {
			w.logger.Error("failed to persist log record",
				logging.Error(err),
				logging.Level(rec.Level),
			)
		}
	}
}

// Wait blocks until the writer has drained the queue and exited. A
// non-positive timeout waits indefinitely; otherwise Wait reports whether
// the drain finished in time.
func (w *Writer) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-w.done
		return true
	}
	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
