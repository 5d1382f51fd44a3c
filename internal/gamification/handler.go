package gamification

import (
	"encoding/json"
	"net/http"

	"github.com/physics-daily/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func getUserID(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value("user_id").(string)
	return uid, ok && uid != ""
}

// ── Gamification State ──────────────────────────────────

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	writeJSON(w, http.StatusOK, h.service.State(userID))
}

// ── Session (daily login) ───────────────────────────────

// StartSession records a calendar-day login and returns the daily
// award. Repeat calls on the same day return awarded=false.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	writeJSON(w, http.StatusOK, h.service.CheckDailyLogin(userID))
}

// ── Quiz Completion ─────────────────────────────────────

func (h *Handler) CompleteQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.QuizSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.TopicID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "topic_id is required"})
		return
	}

	result, err := h.service.CompleteQuiz(userID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
