package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quotecheck/internal/domain/port"
)

// ComparisonHandler serves recorded comparisons. Endpoints backed by a
// disabled store answer 503.
type ComparisonHandler struct {
	storage port.StoragePort
	cache   port.CachePort
	logger  *slog.Logger
}

func NewComparisonHandler(storage port.StoragePort, cache port.CachePort, logger *slog.Logger) *ComparisonHandler {
	return &ComparisonHandler{
		storage: storage,
		cache:   cache,
		logger:  logger,
	}
}

func symbolFrom(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
}

func (h *ComparisonHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		http.Error(w, "redis cache is not enabled", http.StatusServiceUnavailable)
		return
	}
	symbol := symbolFrom(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	rec, err := h.cache.GetLatest(r.Context(), symbol)
	if err != nil {
		h.logger.Error("failed to get latest comparison", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *ComparisonHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		http.Error(w, "redis cache is not enabled", http.StatusServiceUnavailable)
		return
	}
	symbol := symbolFrom(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	recs, err := h.cache.GetWindow(r.Context(), symbol)
	if err != nil {
		h.logger.Error("failed to get comparison window", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":      symbol,
		"comparisons": recs,
	})
}

func (h *ComparisonHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		http.Error(w, "postgres storage is not enabled", http.StatusServiceUnavailable)
		return
	}
	symbol := symbolFrom(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	period := parsePeriod(r, time.Hour)

	stats, err := h.storage.AccuracyStats(r.Context(), symbol, period)
	if err != nil {
		h.logger.Error("failed to get accuracy stats", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":       stats.Symbol,
		"period":       period.String(),
		"count":        stats.Count,
		"avg_accuracy": stats.AvgAccuracy,
		"min_accuracy": stats.MinAccuracy,
		"mismatches":   stats.Mismatches,
	})
}

func parsePeriod(r *http.Request, defaultPeriod time.Duration) time.Duration {
	periodStr := r.URL.Query().Get("period")
	if periodStr == "" {
		return defaultPeriod
	}

	duration, err := time.ParseDuration(periodStr)
	if err != nil || duration <= 0 {
		return defaultPeriod
	}

	return duration
}
