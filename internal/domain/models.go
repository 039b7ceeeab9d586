package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty controls operand ranges, distractor spread and opponent accuracy.
type Difficulty string

const (
	Easy     Difficulty = "easy"
	Moderate Difficulty = "moderate"
	Hard     Difficulty = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Moderate, Hard:
		return true
	}
	return false
}

// ParseDifficulty normalizes raw input; unknown values fall back to Easy.
func ParseDifficulty(raw string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if d.Valid() {
		return d
	}
	return Easy
}

// GameMode selects whether Player2 is a human or the computer opponent.
type GameMode string

const (
	SinglePlayer GameMode = "single-player"
	Multiplayer  GameMode = "multiplayer"
)

func (m GameMode) Valid() bool {
	return m == SinglePlayer || m == Multiplayer
}

// ParseGameMode normalizes raw input; unknown values fall back to SinglePlayer.
func ParseGameMode(raw string) GameMode {
	m := GameMode(strings.ToLower(strings.TrimSpace(raw)))
	if m.Valid() {
		return m
	}
	return SinglePlayer
}

// Operator is one of the three arithmetic operations used in the arena.
type Operator string

const (
	Add      Operator = "+"
	Subtract Operator = "-"
	Multiply Operator = "*"
)

// Symbol returns the operator as displayed to players.
func (o Operator) Symbol() string {
	if o == Multiply {
		return "×"
	}
	return string(o)
}

// Question is a single arithmetic prompt with its integer answer.
type Question struct {
	Operator Operator `json:"operator"`
	Operand1 int      `json:"operand1"`
	Operand2 int      `json:"operand2"`
	Answer   int      `json:"-"`
}

// NewQuestion builds a question, ordering subtraction operands so the result is never negative.
func NewQuestion(op Operator, a, b int) Question {
	if op == Subtract && a < b {
		a, b = b, a
	}
	q := Question{Operator: op, Operand1: a, Operand2: b}
	switch op {
	case Add:
		q.Answer = a + b
	case Subtract:
		q.Answer = a - b
	case Multiply:
		q.Answer = a * b
	}
	return q
}

// Text renders the prompt, e.g. "7 × 3 = ?".
func (q Question) Text() string {
	return fmt.Sprintf("%d %s %d = ?", q.Operand1, q.Operator.Symbol(), q.Operand2)
}

// ScoreRecord is one player's final result for a finished game.
type ScoreRecord struct {
	SessionID      int64 `json:"session_id"`
	UserID         int64 `json:"user_id"`
	Score          int   `json:"score"`
	CorrectAnswers int   `json:"correct_answers"`
	TotalQuestions int   `json:"total_questions"`
	TimeSpent      int   `json:"time_spent"`
}

// User is a registered player identity.
type User struct {
	ID        int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GameSession ties two players to one played game.
type GameSession struct {
	ID         int64      `json:"session_id"`
	Player1ID  int64      `json:"player1_id"`
	Player2ID  *int64     `json:"player2_id"`
	Difficulty Difficulty `json:"difficulty"`
	GameMode   GameMode   `json:"game_mode"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Feedback is a survey submission from the feedback page.
type Feedback struct {
	ID                 int64     `json:"feedback_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Rating             int       `json:"rating"`
	Liked              string    `json:"liked"`
	Disliked           string    `json:"disliked"`
	FeatureRequests    string    `json:"feature_requests"`
	Challenges         string    `json:"challenges"`
	AdditionalComments string    `json:"additional_comments"`
	CreatedAt          time.Time `json:"created_at"`
}

// FeedbackSummary is the public projection shown in the recent feedback list.
type FeedbackSummary struct {
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Liked     string    `json:"liked"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerStats aggregates all recorded scores for a user.
type PlayerStats struct {
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	GamesPlayed    int       `json:"games_played"`
	TotalScore     int       `json:"total_score"`
	AverageScore   float64   `json:"average_score"`
	HighestScore   int       `json:"highest_score"`
	TotalCorrect   int       `json:"total_correct"`
	TotalQuestions int       `json:"total_questions"`
	LastPlayed     time.Time `json:"last_played"`
}

// Accuracy returns the share of answered questions that were correct, in [0,1].
func (s PlayerStats) Accuracy() float64 {
	if s.TotalQuestions <= 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalQuestions)
}
