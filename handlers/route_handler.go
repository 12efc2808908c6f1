package handlers

import (
	"errors"
	"net/http"

	"github.com/adseawright/flight-price-backend/middleware"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/adseawright/flight-price-backend/services"
	"github.com/sirupsen/logrus"
)

// DropdownData lists every airline of the category mapping.
// GET /dropdown-data
func (h *Handler) DropdownData(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string][]models.Option{
		"airlines": h.filters.Airlines(),
	})
}

// Cascade serves one stage of the dropdown cascade, e.g.
// GET /destination-cities?airline=Indigo&from_city=Delhi
func (h *Handler) Cascade(stage services.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, err := services.ParseSelection(stage, r.URL.Query())
		if err != nil {
			h.metrics.CascadeLookupsTotal.WithLabelValues(stage.ResponseKey(), "invalid").Inc()
			var selErr *services.InvalidSelectionError
			if errors.As(err, &selErr) {
				h.respondWithError(w, r, http.StatusBadRequest, selErr.Message())
				return
			}
			h.respondWithError(w, r, http.StatusBadRequest, "Invalid selection")
			return
		}

		options, err := h.filters.Resolve(r.Context(), stage, sel)
		if err != nil {
			h.metrics.CascadeLookupsTotal.WithLabelValues(stage.ResponseKey(), "error").Inc()
			h.logger.WithError(err).WithFields(logrus.Fields{
				"request_id": middleware.GetRequestID(r.Context()),
				"stage":      stage.ResponseKey(),
			}).Error("Cascade lookup failed")
			h.respondWithError(w, r, http.StatusInternalServerError, "Internal server error")
			return
		}

		outcome := "ok"
		if len(options) == 0 {
			outcome = "empty"
		}
		h.metrics.CascadeLookupsTotal.WithLabelValues(stage.ResponseKey(), outcome).Inc()

		h.respondWithJSON(w, http.StatusOK, map[string][]models.Option{
			stage.ResponseKey(): options,
		})
	}
}
