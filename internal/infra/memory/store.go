package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// Store is an in-process stand-in for the relational backend. Each repository
// type below is a view over the same tables.
type Store struct {
	mu       sync.RWMutex
	clock    func() time.Time
	users    []domain.User
	sessions []domain.GameSession
	scores   []storedScore
	feedback []domain.Feedback
}

type storedScore struct {
	id       int64
	rec      domain.ScoreRecord
	playedAt time.Time
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{clock: now}
}

// UserRepository implements app.UserRepository.
type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) FindByUsername(_ context.Context, username string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = int64(len(r.s.users) + 1)
	user.CreatedAt = r.s.clock()
	r.s.users = append(r.s.users, user)
	return user, nil
}

// List returns users newest first.
func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0, len(r.s.users))
	for i := len(r.s.users) - 1; i >= 0; i-- {
		out = append(out, r.s.users[i])
	}
	return out, nil
}

// GameSessionRepository implements app.GameSessionRepository.
type GameSessionRepository struct{ s *Store }

func NewGameSessionRepository(s *Store) *GameSessionRepository {
	return &GameSessionRepository{s: s}
}

func (r *GameSessionRepository) Create(_ context.Context, session domain.GameSession) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session.ID = int64(len(r.s.sessions) + 1)
	session.CreatedAt = r.s.clock()
	r.s.sessions = append(r.s.sessions, session)
	return session.ID, nil
}

// ScoreRepository implements app.ScoreRepository.
type ScoreRepository struct{ s *Store }

func NewScoreRepository(s *Store) *ScoreRepository { return &ScoreRepository{s: s} }

func (r *ScoreRepository) Create(_ context.Context, rec domain.ScoreRecord) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := int64(len(r.s.scores) + 1)
	r.s.scores = append(r.s.scores, storedScore{id: id, rec: rec, playedAt: r.s.clock()})
	return id, nil
}

// FeedbackRepository implements app.FeedbackRepository.
type FeedbackRepository struct{ s *Store }

func NewFeedbackRepository(s *Store) *FeedbackRepository { return &FeedbackRepository{s: s} }

func (r *FeedbackRepository) Create(_ context.Context, fb domain.Feedback) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fb.ID = int64(len(r.s.feedback) + 1)
	fb.CreatedAt = r.s.clock()
	r.s.feedback = append(r.s.feedback, fb)
	return fb.ID, nil
}

func (r *FeedbackRepository) Recent(_ context.Context, limit int) ([]domain.FeedbackSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.FeedbackSummary, 0, limit)
	for i := len(r.s.feedback) - 1; i >= 0 && len(out) < limit; i-- {
		fb := r.s.feedback[i]
		out = append(out, domain.FeedbackSummary{
			Name:      fb.Name,
			Rating:    fb.Rating,
			Liked:     fb.Liked,
			CreatedAt: fb.CreatedAt,
		})
	}
	return out, nil
}

// LeaderboardRepository aggregates scores per user on every call.
type LeaderboardRepository struct{ s *Store }

func NewLeaderboardRepository(s *Store) *LeaderboardRepository {
	return &LeaderboardRepository{s: s}
}

func (r *LeaderboardRepository) Top(_ context.Context, limit int) ([]domain.PlayerStats, error) {
	stats := r.aggregate()
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalScore > stats[j].TotalScore
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (r *LeaderboardRepository) Player(_ context.Context, userID int64) (domain.PlayerStats, error) {
	for _, st := range r.aggregate() {
		if st.UserID == userID {
			return st, nil
		}
	}
	return domain.PlayerStats{}, domain.ErrPlayerNotFound
}

func (r *LeaderboardRepository) aggregate() []domain.PlayerStats {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byUser := make(map[int64]*domain.PlayerStats)
	order := make([]int64, 0)
	for _, sc := range r.s.scores {
		st, ok := byUser[sc.rec.UserID]
		if !ok {
			st = &domain.PlayerStats{UserID: sc.rec.UserID}
			byUser[sc.rec.UserID] = st
			order = append(order, sc.rec.UserID)
		}
		st.GamesPlayed++
		st.TotalScore += sc.rec.Score
		st.TotalCorrect += sc.rec.CorrectAnswers
		st.TotalQuestions += sc.rec.TotalQuestions
		if sc.rec.Score > st.HighestScore {
			st.HighestScore = sc.rec.Score
		}
		if sc.playedAt.After(st.LastPlayed) {
			st.LastPlayed = sc.playedAt
		}
	}

	out := make([]domain.PlayerStats, 0, len(order))
	for _, id := range order {
		st := byUser[id]
		st.AverageScore = float64(st.TotalScore) / float64(st.GamesPlayed)
		for _, u := range r.s.users {
			if u.ID == id {
				st.Username = u.Username
				break
			}
		}
		out = append(out, *st)
	}
	return out
}
