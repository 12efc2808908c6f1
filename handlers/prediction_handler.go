package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/adseawright/flight-price-backend/models"
	"github.com/adseawright/flight-price-backend/services"
)

// maxPredictBody caps the /predict request body.
const maxPredictBody = 1 << 16

// Predict returns the predicted fare for one flight.
// POST /predict
// with JSON body: {"airline": "Indigo", "from": "Delhi", ..., "dep_date": "2025-12-15"}
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload map[string]interface{}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil || payload == nil {
		h.metrics.PredictionsTotal.WithLabelValues("invalid").Inc()
		h.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	price, err := h.predictor.Predict(payload)
	if err != nil {
		var missing *services.MissingFieldsError
		if errors.As(err, &missing) {
			h.metrics.PredictionsTotal.WithLabelValues("invalid").Inc()
			h.respondWithError(w, r, http.StatusBadRequest, missing.Error())
			return
		}
		h.metrics.PredictionsTotal.WithLabelValues("error").Inc()
		h.respondWithError(w, r, http.StatusInternalServerError, "Prediction failed")
		return
	}

	h.metrics.PredictionsTotal.WithLabelValues("ok").Inc()
	h.respondWithJSON(w, http.StatusOK, models.PredictionResponse{
		PredictedPrice: fmt.Sprintf("%.2f INR", price),
	})
}
