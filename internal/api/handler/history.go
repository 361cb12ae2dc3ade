package handler

import (
	"net/http"
	"strconv"

	"github.com/abrigobot/abrigobot/internal/api/models"
	"github.com/abrigobot/abrigobot/internal/api/response"
	"github.com/abrigobot/abrigobot/internal/history"
)

const maxHistoryLimit = 200

// HistoryHandler handles the served-prediction history endpoints.
type HistoryHandler struct {
	repo history.Repository
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(repo history.Repository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// Recent handles GET /v1/predictions/recent - latest served predictions.
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, r, "invalid limit parameter", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		response.InternalError(w, r, "failed to list predictions")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewHistoryResponse(records))
}
