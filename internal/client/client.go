// Package client talks to the arena REST API from a remote game.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// Client implements app.Registrar and arena.ScoreRecorder over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New builds a client for baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With(zap.String("component", "api_client")),
	}
}

type userEnvelope struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

// RegisterUser creates the user or returns the existing one with that name.
func (c *Client) RegisterUser(ctx context.Context, username, email string) (domain.User, bool, error) {
	var out userEnvelope
	status, err := c.do(ctx, http.MethodPost, "/users", map[string]string{"username": username, "email": email}, &out)
	if err != nil {
		return domain.User{}, false, err
	}
	return out.User, status == http.StatusCreated, nil
}

func (c *Client) CreateGameSession(ctx context.Context, session domain.GameSession) (int64, error) {
	var out struct {
		SessionID int64 `json:"session_id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/game-sessions", session, &out); err != nil {
		return 0, err
	}
	return out.SessionID, nil
}

func (c *Client) RecordScore(ctx context.Context, rec domain.ScoreRecord) (int64, error) {
	var out struct {
		ScoreID int64 `json:"score_id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/scores", rec, &out); err != nil {
		return 0, err
	}
	c.log.Debug("score saved", zap.Int64("user_id", rec.UserID), zap.Int("score", rec.Score))
	return out.ScoreID, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, fb domain.Feedback) (int64, error) {
	var out struct {
		FeedbackID int64 `json:"feedback_id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/feedback", fb, &out); err != nil {
		return 0, err
	}
	return out.FeedbackID, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	path := "/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.PlayerStats
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlayerStats maps a 404 to domain.ErrPlayerNotFound.
func (c *Client) PlayerStats(ctx context.Context, userID int64) (domain.PlayerStats, error) {
	var out domain.PlayerStats
	_, err := c.do(ctx, http.MethodGet, "/leaderboard/"+strconv.FormatInt(userID, 10), nil, &out)
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
		return domain.PlayerStats{}, domain.ErrPlayerNotFound
	}
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
