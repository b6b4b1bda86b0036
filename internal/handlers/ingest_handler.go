package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/telhawk-systems/logsink/internal/httputil"
	"github.com/telhawk-systems/logsink/internal/logging"
	"github.com/telhawk-systems/logsink/internal/models"
	"github.com/telhawk-systems/logsink/internal/ratelimit"
	"github.com/telhawk-systems/logsink/internal/service"
)

type IngestHandler struct {
	service       *service.IngestService
	limiter       ratelimit.RateLimiter
	logger        *logging.Logger
	maxBatchBytes int64
}

func NewIngestHandler(svc *service.IngestService, limiter ratelimit.RateLimiter, logger *logging.Logger, maxBatchBytes int64) *IngestHandler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestHandler{
		service:       svc,
		limiter:       limiter,
		logger:        logger,
		maxBatchBytes: maxBatchBytes,
	}
}

// HandleIngest accepts a JSON array of log entries. The 202 response means
// accepted entries are buffered for persistence, not that they are durable.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sourceIP := getClientIP(r)
	allowed, err := h.limiter.Allow(r.Context(), sourceIP)
	if err != nil {
		// Fail open: a broken limiter must not block ingestion.
		h.logger.WarnContext(r.Context(), "rate limit check failed", logging.Error(err))
	} else if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if h.maxBatchBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBatchBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "empty request body")
		return
	}

	var entries []models.LogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "request body must be a JSON array of log entries")
		return
	}

	accepted := h.service.IngestBatch(r.Context(), entries)
	h.logger.DebugContext(r.Context(), "batch ingested",
		logging.IP(sourceIP),
		logging.FieldAccepted, accepted,
		logging.FieldFiltered, len(entries)-accepted,
	)

	// Accepted means buffered; persistence happens asynchronously.
	w.WriteHeader(http.StatusAccepted)
}

func (h *IngestHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *IngestHandler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ready",
		"queue_depth": h.service.QueueDepth(),
		"stats":       h.service.GetStats(),
	})
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
