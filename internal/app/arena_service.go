package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	defaultFeedbackLimit    = 5
	maxFeedbackLimit        = 50
)

// UserRepository stores registered players.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// GameSessionRepository stores played games.
type GameSessionRepository interface {
	Create(ctx context.Context, session domain.GameSession) (int64, error)
}

// ScoreRepository stores final scores.
type ScoreRepository interface {
	Create(ctx context.Context, rec domain.ScoreRecord) (int64, error)
}

// FeedbackRepository stores survey submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, fb domain.Feedback) (int64, error)
	Recent(ctx context.Context, limit int) ([]domain.FeedbackSummary, error)
}

// LeaderboardRepository aggregates scores per player (from cache/backing store).
type LeaderboardRepository interface {
	Top(ctx context.Context, limit int) ([]domain.PlayerStats, error)
	Player(ctx context.Context, userID int64) (domain.PlayerStats, error)
}

// ArenaRegistry tracks live arena games (in-memory, Redis, etc).
type ArenaRegistry interface {
	Add(id string, loop *arena.Loop)
	Get(id string) (*arena.Loop, bool)
	Remove(id string)
	Count() int
}

type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Repositories groups the storage dependencies of ArenaService.
type Repositories struct {
	Users       UserRepository
	Sessions    GameSessionRepository
	Scores      ScoreRepository
	Feedback    FeedbackRepository
	Leaderboard LeaderboardRepository
	Arenas      ArenaRegistry
}

// ArenaService contains the backend use cases and hosts live arena games.
type ArenaService struct {
	repos  Repositories
	timing arena.Timing
	feed   *Feed
	log    *zap.Logger
}

func NewArenaService(repos Repositories, timing arena.Timing, log *zap.Logger) *ArenaService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArenaService{repos: repos, timing: timing, feed: NewFeed(), log: log}
}

// RegisterUser returns the existing user with username, or creates one.
// created reports whether a new row was inserted.
func (s *ArenaService) RegisterUser(ctx context.Context, username, email string) (domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, false, domain.ErrUsernameRequired
	}

	existing, err := s.repos.Users.FindByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, false, err
	}

	user, err := s.repos.Users.Create(ctx, domain.User{Username: username, Email: strings.TrimSpace(email)})
	if err != nil {
		return domain.User{}, false, err
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, true, nil
}

func (s *ArenaService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repos.Users.List(ctx)
}

// CreateGameSession records a new game; Player2ID is nil against the computer.
func (s *ArenaService) CreateGameSession(ctx context.Context, session domain.GameSession) (int64, error) {
	if session.Player1ID <= 0 {
		return 0, domain.ErrMissingFields
	}
	if !session.Difficulty.Valid() {
		return 0, domain.ErrInvalidDifficulty
	}
	if !session.GameMode.Valid() {
		return 0, domain.ErrInvalidGameMode
	}
	if session.Player2ID != nil && *session.Player2ID <= 0 {
		session.Player2ID = nil
	}
	return s.repos.Sessions.Create(ctx, session)
}

// RecordScore stores a final score and refreshes leaderboard readers.
// It satisfies arena.ScoreRecorder for in-process games.
func (s *ArenaService) RecordScore(ctx context.Context, rec domain.ScoreRecord) (int64, error) {
	if rec.SessionID <= 0 || rec.UserID <= 0 {
		return 0, domain.ErrMissingFields
	}
	id, err := s.repos.Scores.Create(ctx, rec)
	if err != nil {
		return 0, err
	}

	if inv, ok := s.repos.Leaderboard.(invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.log.Warn("leaderboard invalidate failed", zap.Error(err))
		}
	}
	if s.feed.Active() {
		if top, err := s.Leaderboard(ctx, defaultLeaderboardLimit); err == nil {
			s.feed.Publish(top)
		}
	}
	return id, nil
}

func (s *ArenaService) SubmitFeedback(ctx context.Context, fb domain.Feedback) (int64, error) {
	fb.Name = strings.TrimSpace(fb.Name)
	fb.Email = strings.TrimSpace(fb.Email)
	if fb.Name == "" || fb.Email == "" || fb.Rating == 0 {
		return 0, domain.ErrFeedbackRequired
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return 0, domain.ErrInvalidRating
	}
	return s.repos.Feedback.Create(ctx, fb)
}

func (s *ArenaService) RecentFeedback(ctx context.Context, limit int) ([]domain.FeedbackSummary, error) {
	return s.repos.Feedback.Recent(ctx, clampLimit(limit, defaultFeedbackLimit, maxFeedbackLimit))
}

// Leaderboard returns players with at least one game, highest total score first.
func (s *ArenaService) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	return s.repos.Leaderboard.Top(ctx, clampLimit(limit, defaultLeaderboardLimit, maxLeaderboardLimit))
}

func (s *ArenaService) PlayerStats(ctx context.Context, userID int64) (domain.PlayerStats, error) {
	if userID <= 0 {
		return domain.PlayerStats{}, domain.ErrPlayerNotFound
	}
	return s.repos.Leaderboard.Player(ctx, userID)
}

// SubscribeLeaderboard streams the top leaderboard after every recorded score.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ArenaService) SubscribeLeaderboard(ctx context.Context) (<-chan []domain.PlayerStats, func(), error) {
	initial, err := s.Leaderboard(ctx, defaultLeaderboardLimit)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.Subscribe(initial)
	return ch, cancel, nil
}

// OpenArena builds a live game whose scores are recorded by this service.
func (s *ArenaService) OpenArena(cfg arena.Config, renderer arena.Renderer) (string, *arena.Loop) {
	id := uuid.NewString()
	loop := arena.NewLoop(cfg, arena.Options{
		Renderer: renderer,
		Recorder: s,
		Logger:   s.log.With(zap.String("arena_id", id)),
		Timing:   s.timing,
	})
	s.repos.Arenas.Add(id, loop)
	return id, loop
}

func (s *ArenaService) Arena(id string) (*arena.Loop, error) {
	loop, ok := s.repos.Arenas.Get(id)
	if !ok {
		return nil, domain.ErrArenaNotFound
	}
	return loop, nil
}

func (s *ArenaService) CloseArena(id string) {
	s.repos.Arenas.Remove(id)
}

func (s *ArenaService) ActiveArenas() int {
	return s.repos.Arenas.Count()
}

func clampLimit(limit, def, hi int) int {
	if limit <= 0 {
		return def
	}
	if limit > hi {
		return hi
	}
	return limit
}
