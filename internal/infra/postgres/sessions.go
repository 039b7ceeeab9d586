package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// GameSessionRepository stores played games.
type GameSessionRepository struct {
	pool *pgxpool.Pool
}

func NewGameSessionRepository(pool *pgxpool.Pool) *GameSessionRepository {
	return &GameSessionRepository{pool: pool}
}

func (r *GameSessionRepository) Create(ctx context.Context, session domain.GameSession) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO game_sessions (player1_id, player2_id, difficulty, game_mode) VALUES ($1, $2, $3, $4) RETURNING session_id`,
		session.Player1ID, session.Player2ID, string(session.Difficulty), string(session.GameMode),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create game session: %w", err)
	}
	return id, nil
}

// ScoreRepository stores final scores.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) Create(ctx context.Context, rec domain.ScoreRecord) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO scores (session_id, user_id, score, correct_answers, total_questions, time_spent)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING score_id`,
		rec.SessionID, rec.UserID, rec.Score, rec.CorrectAnswers, rec.TotalQuestions, rec.TimeSpent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create score: %w", err)
	}
	return id, nil
}

// FeedbackRepository stores survey submissions.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb domain.Feedback) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO feedback (name, email, rating, liked, disliked, feature_requests, challenges, additional_comments)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		 RETURNING feedback_id`,
		fb.Name, fb.Email, fb.Rating, fb.Liked, fb.Disliked, fb.FeatureRequests, fb.Challenges, fb.AdditionalComments,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create feedback: %w", err)
	}
	return id, nil
}

func (r *FeedbackRepository) Recent(ctx context.Context, limit int) ([]domain.FeedbackSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, rating, COALESCE(liked, ''), created_at FROM feedback ORDER BY created_at DESC, feedback_id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.FeedbackSummary
	for rows.Next() {
		var fs domain.FeedbackSummary
		if err := rows.Scan(&fs.Name, &fs.Rating, &fs.Liked, &fs.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}
