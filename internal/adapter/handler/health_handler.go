package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"quotecheck/internal/domain/port"
)

// HealthHandler reports the monitor state and pings whichever stores are
// enabled. Nil stores are left out of the report.
type HealthHandler struct {
	storage port.StoragePort
	cache   port.CachePort
	state   func() string
	logger  *slog.Logger
}

func NewHealthHandler(storage port.StoragePort, cache port.CachePort, state func() string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		cache:   cache,
		state:   state,
		logger:  logger,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	overallStatus := "healthy"
	checks := map[string]string{}

	if h.storage != nil {
		checks["database"] = "healthy"
		if err := h.storage.Ping(r.Context()); err != nil {
			checks["database"] = "unhealthy"
			overallStatus = "degraded"
			h.logger.Warn("database health check failed", "error", err)
		}
	}

	if h.cache != nil {
		checks["redis"] = "healthy"
		if err := h.cache.Ping(r.Context()); err != nil {
			checks["redis"] = "unhealthy"
			overallStatus = "degraded"
			h.logger.Warn("redis health check failed", "error", err)
		}
	}

	response := map[string]interface{}{
		"status":  overallStatus,
		"monitor": h.state(),
		"checks":  checks,
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
