package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mayssameid/Clash-of-Digits/internal/app"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"go.uber.org/zap"
)

// APIHandler serves the REST endpoints used by the setup, arena, leaderboard and feedback pages.
type APIHandler struct {
	service *app.ArenaService
	log     *zap.Logger
}

func NewAPIHandler(service *app.ArenaService, log *zap.Logger) *APIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIHandler{service: service, log: log}
}

// Register mounts every endpoint on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("GET /api/users", h.listUsers)
	mux.HandleFunc("POST /api/game-sessions", h.createGameSession)
	mux.HandleFunc("POST /api/scores", h.recordScore)
	mux.HandleFunc("POST /api/feedback", h.submitFeedback)
	mux.HandleFunc("GET /api/feedback/recent", h.recentFeedback)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/leaderboard/{userId}", h.playerStats)
	mux.HandleFunc("GET /api/arenas", h.arenas)
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type userResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

func (h *APIHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, created, err := h.service.RegisterUser(r.Context(), req.Username, req.Email)
	switch {
	case errors.Is(err, domain.ErrUsernameRequired):
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	case err != nil:
		h.fail(w, "Failed to create user", err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, userResponse{Message: "User already exists", User: user})
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: user})
}

func (h *APIHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, "Failed to retrieve users", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

type createSessionRequest struct {
	Player1ID  int64  `json:"player1_id"`
	Player2ID  *int64 `json:"player2_id"`
	Difficulty string `json:"difficulty"`
	GameMode   string `json:"game_mode"`
}

func (h *APIHandler) createGameSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Player1ID <= 0 || req.Difficulty == "" || req.GameMode == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	id, err := h.service.CreateGameSession(r.Context(), domain.GameSession{
		Player1ID:  req.Player1ID,
		Player2ID:  req.Player2ID,
		Difficulty: domain.Difficulty(req.Difficulty),
		GameMode:   domain.GameMode(req.GameMode),
	})
	switch {
	case errors.Is(err, domain.ErrInvalidDifficulty), errors.Is(err, domain.ErrInvalidGameMode), errors.Is(err, domain.ErrMissingFields):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.fail(w, "Failed to create game session", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Game session created successfully",
		"session_id": id,
	})
}

type recordScoreRequest struct {
	SessionID      int64 `json:"session_id"`
	UserID         int64 `json:"user_id"`
	Score          *int  `json:"score"`
	CorrectAnswers int   `json:"correct_answers"`
	TotalQuestions int   `json:"total_questions"`
	TimeSpent      int   `json:"time_spent"`
}

func (h *APIHandler) recordScore(w http.ResponseWriter, r *http.Request) {
	var req recordScoreRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID <= 0 || req.UserID <= 0 || req.Score == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	id, err := h.service.RecordScore(r.Context(), domain.ScoreRecord{
		SessionID:      req.SessionID,
		UserID:         req.UserID,
		Score:          *req.Score,
		CorrectAnswers: req.CorrectAnswers,
		TotalQuestions: req.TotalQuestions,
		TimeSpent:      req.TimeSpent,
	})
	if err != nil {
		h.fail(w, "Failed to save score", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Score saved successfully",
		"score_id": id,
	})
}

func (h *APIHandler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req domain.Feedback
	if !decode(w, r, &req) {
		return
	}
	id, err := h.service.SubmitFeedback(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrFeedbackRequired):
		writeError(w, http.StatusBadRequest, "Name, email, and rating are required")
		return
	case errors.Is(err, domain.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	case err != nil:
		h.fail(w, "Failed to save feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Feedback submitted successfully",
		"feedback_id": id,
	})
}

func (h *APIHandler) recentFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.RecentFeedback(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, "Failed to retrieve feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := h.service.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, "Failed to retrieve leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(top))
}

func (h *APIHandler) playerStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Player not found")
		return
	}
	stats, err := h.service.PlayerStats(r.Context(), userID)
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "Player not found")
		return
	case err != nil:
		h.fail(w, "Failed to retrieve player statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) arenas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"active": h.service.ActiveArenas()})
}

func (h *APIHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
