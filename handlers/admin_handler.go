package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/adseawright/flight-price-backend/middleware"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/sirupsen/logrus"
)

// Helper to respond with JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("Error marshalling JSON response")
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	h.logger.WithFields(logrus.Fields{
		"request_id":  middleware.GetRequestID(r.Context()),
		"status_code": code,
		"path":        r.URL.Path,
	}).Info("API error: " + message)
	h.respondWithJSON(w, code, models.ErrorResponse{Error: message})
}

// Health reports whether the lookup store can be read.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Error("Health check failed: DB ping error")
		h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "lookup store unreachable",
		})
		return
	}

	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Health check failed: lookup store tables unreadable")
		h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "lookup store not initialized",
		})
		return
	}

	lastSeed, err := h.store.LastSeed(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Health check: rebuild log unavailable")
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"routes":    stats.Routes,
		"store":     stats,
		"last_seed": lastSeed,
	})
}

// SeedHistory lists the most recent store rebuilds, newest first.
// GET /seed-history?limit=10
func (h *Handler) SeedHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			h.respondWithError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	records, err := h.store.SeedHistory(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read seed history")
		h.respondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"seeds": records})
}
