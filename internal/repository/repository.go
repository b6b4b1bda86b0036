package repository

import (
	"context"

	"github.com/telhawk-systems/logsink/internal/models"
)

// LogRepository is the storage backend for accepted log records. Rows are
// append-only; nothing in the service updates or deletes them.
type LogRepository interface {
	InsertLog(ctx context.Context, rec models.QueuedRecord) error
	CountLogs(ctx context.Context) (int64, error)
	Close()
}
