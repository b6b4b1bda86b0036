package database

import (
	"context"
	"time"
)

// Standard timeout durations for database operations
const (
	// DefaultWriteTimeout is the timeout for single-row writes
	DefaultWriteTimeout = 10 * time.Second

	// DefaultBulkTimeout is the timeout for bulk operations and migrations
	DefaultBulkTimeout = 30 * time.Second
)

// WriteContext creates a context with DefaultWriteTimeout.
// Use this for INSERT operations.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}

// BulkContext creates a context with DefaultBulkTimeout.
// Use this for bulk operations and migrations.
func BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultBulkTimeout)
}
