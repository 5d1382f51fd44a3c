package leaderboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

// GetRankings serves GET /leaderboard?range=weekly&tz=Area/City.
// The tz parameter only affects the monthly range, whose window starts
// at the first of the month in the viewer's zone. Defaults to UTC.
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := r.Context().Value("user_id").(string)
	if !ok || viewerID == "" {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = string(RangeWeekly)
	}
	rng, ok := ParseRange(rangeParam)
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "range must be daily, weekly, monthly, or all"})
		return
	}

	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid tz"})
			return
		}
		loc = l
	}

	result, err := h.agg.Rankings(r.Context(), rng, loc, viewerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get leaderboard"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
