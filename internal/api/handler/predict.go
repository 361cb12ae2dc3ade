// Package handler provides HTTP handlers for the abrigobot API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abrigobot/abrigobot/internal/api/models"
	"github.com/abrigobot/abrigobot/internal/api/response"
	"github.com/abrigobot/abrigobot/internal/recommend"
)

// PredictHandler handles the prediction endpoint.
type PredictHandler struct {
	service *recommend.Service
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(service *recommend.Service) *PredictHandler {
	return &PredictHandler{service: service}
}

// Predict handles POST /v1/predict - clothing and rain recommendation.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var input models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	rec, err := h.service.Predict(r.Context(), recommend.Request{
		Lat:       input.Lat,
		Lon:       input.Lon,
		LeadHours: input.Lead,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidInput) {
			response.BadRequest(w, r, "invalid coordinates or lead time", []models.FieldError{
				{Field: "lat", Message: "must be a finite value in [-90, 90]"},
				{Field: "lon", Message: "must be a finite value in [-180, 180]"},
				{Field: "lead", Message: "must be an integer in [0, 48]"},
			})
			return
		}
		// Pipeline failures keep the legacy generic shape; detail stays in
		// the server logs.
		response.JSON(w, r, http.StatusInternalServerError, models.PredictError{Error: "prediction failed"})
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewPredictResponse(rec))
}
