package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/app"
	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"github.com/mayssameid/Clash-of-Digits/internal/client"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"github.com/mayssameid/Clash-of-Digits/internal/infra/memory"
	transport "github.com/mayssameid/Clash-of-Digits/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ app.Registrar       = (*client.Client)(nil)
	_ arena.ScoreRecorder = (*client.Client)(nil)
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	service := app.NewArenaService(app.Repositories{
		Users:       memory.NewUserRepository(store),
		Sessions:    memory.NewGameSessionRepository(store),
		Scores:      memory.NewScoreRepository(store),
		Feedback:    memory.NewFeedbackRepository(store),
		Leaderboard: memory.NewLeaderboardRepository(store),
		Arenas:      memory.NewArenaStore(),
	}, arena.DefaultTiming(), nil)
	server := httptest.NewServer(transport.NewRouter(service, transport.RouterOptions{}))
	t.Cleanup(server.Close)
	return server
}

func TestPrepareArenaAndRecordScoreOverHTTP(t *testing.T) {
	ctx := context.Background()
	server := newBackend(t)
	c := client.New(server.URL+"/api/", time.Second, nil)

	cfg, err := app.PrepareArena(ctx, c, arena.Config{Player1: "Ana", Player2: "Ben", Mode: domain.Multiplayer, Difficulty: domain.Hard})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Player1ID)
	assert.Equal(t, int64(2), cfg.Player2ID)
	assert.Equal(t, int64(1), cfg.SessionID)

	user, created, err := c.RegisterUser(ctx, "Ana", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), user.ID)

	id, err := c.RecordScore(ctx, domain.ScoreRecord{SessionID: cfg.SessionID, UserID: cfg.Player1ID, Score: 300, CorrectAnswers: 3, TotalQuestions: 10, TimeSpent: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	top, err := c.Leaderboard(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Ana", top[0].Username)

	stats, err := c.PlayerStats(ctx, cfg.Player1ID)
	require.NoError(t, err)
	assert.Equal(t, 300, stats.HighestScore)

	_, err = c.PlayerStats(ctx, cfg.Player2ID)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	fbID, err := c.SubmitFeedback(ctx, domain.Feedback{Name: "Ana", Email: "ana@example.com", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fbID)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	server := newBackend(t)
	c := client.New(server.URL+"/api", time.Second, nil)

	_, err := c.RecordScore(context.Background(), domain.ScoreRecord{UserID: 1})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Missing required fields", apiErr.Message)
}

func TestPrepareArenaReportsUnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to create user"})
	}))
	defer server.Close()
	c := client.New(server.URL, time.Second, nil)

	cfg, err := app.PrepareArena(context.Background(), c, arena.Config{Player1: "Ana"})
	require.Error(t, err)
	assert.Zero(t, cfg.SessionID)
	assert.Equal(t, "Ana", cfg.Player1)
	assert.Equal(t, arena.ComputerName, cfg.Player2)
}
