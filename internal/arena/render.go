package arena

import (
	"context"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// QuestionView is what a renderer needs to draw a new question.
type QuestionView struct {
	Number        int            `json:"number"`
	Total         int            `json:"total"`
	Turn          Side           `json:"turn"`
	PlayerName    string         `json:"playerName"`
	Text          string         `json:"text"`
	Answers       []int          `json:"answers"`
	TimeRemaining int            `json:"timeRemaining"`
	ComputerTurn  bool           `json:"computerTurn"`
	Scores        [2]PlayerScore `json:"scores"`
}

// RevealView reports a resolved question. Selected is -1 when time ran out.
type RevealView struct {
	Responder Side           `json:"responder"`
	Correct   int            `json:"correct"`
	Selected  int            `json:"selected"`
	TimedOut  bool           `json:"timedOut"`
	Scores    [2]PlayerScore `json:"scores"`
}

// NextView announces whose turn the next question belongs to.
type NextView struct {
	Number     int    `json:"number"`
	Turn       Side   `json:"turn"`
	PlayerName string `json:"playerName"`
}

// PlayerResult is one row of the final summary.
type PlayerResult struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Correct int    `json:"correct"`
	Points  int    `json:"points"`
}

// Summary is rendered once when the game ends.
type Summary struct {
	Players [2]PlayerResult `json:"players"`
	Winner  Side            `json:"winner"`
	Tie     bool            `json:"tie"`
}

// WinnerName returns the winner's name, or "" on a tie.
func (s Summary) WinnerName() string {
	if s.Tie {
		return ""
	}
	return s.Players[s.Winner].Name
}

// Renderer draws engine events. Calls arrive on the controller goroutine.
type Renderer interface {
	Question(QuestionView)
	Tick(Tick)
	Reveal(RevealView)
	Feedback(correct bool)
	Next(NextView)
	Summary(Summary)
}

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) Question(QuestionView) {}
func (NopRenderer) Tick(Tick)             {}
func (NopRenderer) Reveal(RevealView)     {}
func (NopRenderer) Feedback(bool)         {}
func (NopRenderer) Next(NextView)         {}
func (NopRenderer) Summary(Summary)       {}

// ScoreRecorder persists a finished game's score for one player.
type ScoreRecorder interface {
	RecordScore(ctx context.Context, rec domain.ScoreRecord) (int64, error)
}
