package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

const playerStatsSelect = `
SELECT u.user_id,
       u.username,
       COUNT(s.score_id)::int                   AS games_played,
       COALESCE(SUM(s.score), 0)::int           AS total_score,
       COALESCE(AVG(s.score), 0)::float8        AS average_score,
       COALESCE(MAX(s.score), 0)::int           AS highest_score,
       COALESCE(SUM(s.correct_answers), 0)::int AS total_correct,
       COALESCE(SUM(s.total_questions), 0)::int AS total_questions,
       MAX(s.created_at)                        AS last_played
FROM users u
JOIN scores s ON s.user_id = u.user_id`

// LeaderboardRepository aggregates the scores table per player.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

func (r *LeaderboardRepository) Top(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	rows, err := r.pool.Query(ctx, playerStatsSelect+`
GROUP BY u.user_id, u.username
ORDER BY total_score DESC, u.user_id
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.PlayerStats
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *LeaderboardRepository) Player(ctx context.Context, userID int64) (domain.PlayerStats, error) {
	row := r.pool.QueryRow(ctx, playerStatsSelect+`
WHERE u.user_id = $1
GROUP BY u.user_id, u.username`, userID)
	st, err := scanStats(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerStats{}, domain.ErrPlayerNotFound
	}
	return st, err
}

func scanStats(row pgx.Row) (domain.PlayerStats, error) {
	var st domain.PlayerStats
	err := row.Scan(
		&st.UserID,
		&st.Username,
		&st.GamesPlayed,
		&st.TotalScore,
		&st.AverageScore,
		&st.HighestScore,
		&st.TotalCorrect,
		&st.TotalQuestions,
		&st.LastPlayed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, err
	}
	if err != nil {
		return st, fmt.Errorf("scan player stats: %w", err)
	}
	return st, nil
}
