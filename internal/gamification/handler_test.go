package gamification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/physics-daily/backend/internal/models"
)

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	if userID == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), "user_id", userID))
}

func TestGetStateHandler(t *testing.T) {
	h := NewHandler(newTestService(t, nil))

	w := httptest.NewRecorder()
	h.GetState(w, authedRequest("GET", "/api/v1/gamification", nil, "u1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var state models.GamificationState
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 1, state.Level)
	assert.Equal(t, int64(0), state.TotalXP)
	assert.NotNil(t, state.Badges)
}

func TestGetStateRequiresAuth(t *testing.T) {
	h := NewHandler(newTestService(t, nil))

	w := httptest.NewRecorder()
	h.GetState(w, authedRequest("GET", "/api/v1/gamification", nil, ""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartSessionHandler(t *testing.T) {
	h := NewHandler(newTestService(t, nil))

	w := httptest.NewRecorder()
	h.StartSession(w, authedRequest("POST", "/api/v1/gamification/session", nil, "u1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.DailyLoginResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Awarded)
	assert.Equal(t, 1, result.LoginStreak)
	assert.Equal(t, int64(2), result.XP)

	// Same day again: no award
	w = httptest.NewRecorder()
	h.StartSession(w, authedRequest("POST", "/api/v1/gamification/session", nil, "u1"))
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Awarded)
}

func TestCompleteQuizHandler(t *testing.T) {
	h := NewHandler(newTestService(t, smallCatalog()))

	body, _ := json.Marshal(models.QuizSubmission{
		TopicID:        "kinematics",
		CorrectCount:   4,
		TotalQuestions: 5,
	})
	w := httptest.NewRecorder()
	h.CompleteQuiz(w, authedRequest("POST", "/api/v1/gamification/quiz", body, "u1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.QuizXPResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	// 4 correct * 4 base + 10 explorer
	assert.Equal(t, int64(26), result.XP)
	assert.Equal(t, float64(40), result.CompletionPercentage)
}

func TestCompleteQuizHandlerValidation(t *testing.T) {
	h := NewHandler(newTestService(t, nil))

	w := httptest.NewRecorder()
	h.CompleteQuiz(w, authedRequest("POST", "/api/v1/gamification/quiz", []byte("{not json"), "u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, _ := json.Marshal(models.QuizSubmission{CorrectCount: 3, TotalQuestions: 5})
	w = httptest.NewRecorder()
	h.CompleteQuiz(w, authedRequest("POST", "/api/v1/gamification/quiz", body, "u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
