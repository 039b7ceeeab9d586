package app

import (
	"context"
	"fmt"

	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// Registrar is the subset of backend calls needed before a game starts.
// ArenaService and client.Client both satisfy it.
type Registrar interface {
	RegisterUser(ctx context.Context, username, email string) (domain.User, bool, error)
	CreateGameSession(ctx context.Context, session domain.GameSession) (int64, error)
}

// PrepareArena registers the human players and opens a game session, filling
// the ids in cfg. On error the returned config carries whatever ids were
// obtained so the game can still be played without saving.
func PrepareArena(ctx context.Context, reg Registrar, cfg arena.Config) (arena.Config, error) {
	cfg = cfg.Normalize()

	p1, _, err := reg.RegisterUser(ctx, cfg.Player1, "")
	if err != nil {
		return cfg, fmt.Errorf("register %s: %w", cfg.Player1, err)
	}
	cfg.Player1ID = p1.ID

	var player2ID *int64
	if cfg.Mode == domain.Multiplayer && cfg.Player2 != arena.ComputerName {
		p2, _, err := reg.RegisterUser(ctx, cfg.Player2, "")
		if err != nil {
			return cfg, fmt.Errorf("register %s: %w", cfg.Player2, err)
		}
		cfg.Player2ID = p2.ID
		player2ID = &p2.ID
	}

	sessionID, err := reg.CreateGameSession(ctx, domain.GameSession{
		Player1ID:  cfg.Player1ID,
		Player2ID:  player2ID,
		Difficulty: cfg.Difficulty,
		GameMode:   cfg.Mode,
	})
	if err != nil {
		return cfg, fmt.Errorf("create game session: %w", err)
	}
	cfg.SessionID = sessionID
	return cfg, nil
}
