package server

import (
	"net/http"

	"github.com/telhawk-systems/logsink/internal/handlers"
	"github.com/telhawk-systems/logsink/internal/middleware"
)

// NewRouter constructs a ServeMux with the ingest API routes registered.
func NewRouter(h *handlers.IngestHandler) http.Handler {
	mux := http.NewServeMux()

	// Ingestion endpoint
	mux.HandleFunc("/ingest", h.HandleIngest)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	return middleware.RequestID(mux)
}
