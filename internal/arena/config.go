package arena

import (
	"strings"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

const (
	DefaultPlayer1        = "Player 1"
	DefaultPlayer2        = "Player 2"
	ComputerName          = "Computer"
	DefaultTotalQuestions = 10
)

// Config is fixed for the lifetime of one game. Zero ids mean "not registered".
type Config struct {
	Player1        string
	Player2        string
	Mode           domain.GameMode
	Difficulty     domain.Difficulty
	TotalQuestions int
	Player1ID      int64
	Player2ID      int64
	SessionID      int64
}

// Normalize fills defaults and coerces unknown mode and difficulty values.
func (c Config) Normalize() Config {
	c.Mode = domain.ParseGameMode(string(c.Mode))
	c.Difficulty = domain.ParseDifficulty(string(c.Difficulty))
	c.Player1 = strings.TrimSpace(c.Player1)
	c.Player2 = strings.TrimSpace(c.Player2)
	if c.Player1 == "" {
		c.Player1 = DefaultPlayer1
	}
	if c.Player2 == "" {
		if c.Mode == domain.Multiplayer {
			c.Player2 = DefaultPlayer2
		} else {
			c.Player2 = ComputerName
		}
	}
	if c.TotalQuestions <= 0 {
		c.TotalQuestions = DefaultTotalQuestions
	}
	return c
}

// Name returns the display name for side.
func (c Config) Name(side Side) string {
	if side == Player2 {
		return c.Player2
	}
	return c.Player1
}

// Timing holds every delay the controller schedules.
type Timing struct {
	TimeLimit      int
	Tick           time.Duration
	ResolveDelay   time.Duration
	ThinkMin       time.Duration
	ThinkMax       time.Duration
	AutoAdvance    time.Duration // zero waits for Advance
	PersistTimeout time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		TimeLimit:      10,
		Tick:           time.Second,
		ResolveDelay:   1500 * time.Millisecond,
		ThinkMin:       800 * time.Millisecond,
		ThinkMax:       1500 * time.Millisecond,
		PersistTimeout: 5 * time.Second,
	}
}

func (t Timing) withDefaults() Timing {
	def := DefaultTiming()
	if t.TimeLimit <= 0 {
		t.TimeLimit = def.TimeLimit
	}
	if t.Tick <= 0 {
		t.Tick = def.Tick
	}
	if t.ResolveDelay <= 0 {
		t.ResolveDelay = def.ResolveDelay
	}
	if t.ThinkMin <= 0 {
		t.ThinkMin = def.ThinkMin
	}
	if t.ThinkMax <= 0 {
		t.ThinkMax = def.ThinkMax
	}
	if t.PersistTimeout <= 0 {
		t.PersistTimeout = def.PersistTimeout
	}
	return t
}
