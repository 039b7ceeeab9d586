package arena

import "fmt"

// PointsPerCorrect converts correct answers into persisted points.
const PointsPerCorrect = 100

// Side identifies a seat at the arena.
type Side int

const (
	Player1 Side = iota
	Player2
)

func (s Side) Other() Side {
	if s == Player1 {
		return Player2
	}
	return Player1
}

func (s Side) String() string {
	if s == Player2 {
		return "player2"
	}
	return "player1"
}

// PlayerScore counts in-game points (one per correct answer) and correct answers.
type PlayerScore struct {
	Score   int `json:"score"`
	Correct int `json:"correct"`
}

// Ledger holds both players' scores for one game.
type Ledger struct {
	scores [2]PlayerScore
}

// Record applies one resolution; only correct answers change the tally.
func (l *Ledger) Record(side Side, correct bool) {
	if !correct {
		return
	}
	l.scores[side].Score++
	l.scores[side].Correct++
}

func (l *Ledger) Get(side Side) PlayerScore {
	return l.scores[side]
}

func (l *Ledger) Points(side Side) int {
	return l.scores[side].Correct * PointsPerCorrect
}

func (l *Ledger) Snapshot() [2]PlayerScore {
	return l.scores
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player1":
		*s = Player1
	case "player2":
		*s = Player2
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}
