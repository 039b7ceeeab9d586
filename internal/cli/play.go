package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mayssameid/Clash-of-Digits/internal/app"
	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"github.com/mayssameid/Clash-of-Digits/internal/client"
	"github.com/mayssameid/Clash-of-Digits/internal/config"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"github.com/mayssameid/Clash-of-Digits/internal/transport/console"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type playOptions struct {
	player1    string
	player2    string
	mode       string
	difficulty string
	questions  int
	apiURL     string
	offline    bool
}

// NewPlayCmd plays one game in the terminal, saving scores through the REST API.
func NewPlayCmd(configPath *string) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), loadConfig(*configPath), opts)
		},
	}
	cmd.Flags().StringVar(&opts.player1, "player1", "", "first player's name")
	cmd.Flags().StringVar(&opts.player2, "player2", "", "second player's name (multiplayer)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(domain.SinglePlayer), "single-player or multiplayer")
	cmd.Flags().StringVar(&opts.difficulty, "difficulty", string(domain.Easy), "easy, moderate or hard")
	cmd.Flags().IntVar(&opts.questions, "questions", arena.DefaultTotalQuestions, "questions per game")
	cmd.Flags().StringVar(&opts.apiURL, "api", "", "score API base url (overrides config)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "play without saving scores")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, opts playOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	log := newLogger(cfg)
	defer log.Sync()

	arenaCfg := arena.Config{
		Player1:        opts.player1,
		Player2:        opts.player2,
		Mode:           domain.GameMode(opts.mode),
		Difficulty:     domain.Difficulty(opts.difficulty),
		TotalQuestions: opts.questions,
	}.Normalize()

	out := console.NewRenderer(os.Stdout, arenaCfg)
	gameOpts := arena.Options{
		Renderer: out,
		Logger:   log,
		Timing:   cfg.ArenaTiming(),
	}

	if !opts.offline {
		apiURL := opts.apiURL
		if apiURL == "" {
			apiURL = cfg.API.URL
		}
		api := client.New(apiURL, config.TTLDuration(cfg.API.Timeout, 0), log)
		prepared, err := app.PrepareArena(ctx, api, arenaCfg)
		if err != nil {
			log.Warn("game setup failed", zap.Error(err))
			out.Notice(fmt.Sprintf("Could not reach the score server at %s. This game will not be saved.", apiURL))
			prepared.SessionID = 0
		} else {
			gameOpts.Recorder = api
		}
		arenaCfg = prepared
	}

	out.Notice(fmt.Sprintf("%s vs %s, %s, %d questions. Type 1-%d to answer, Enter to continue, q to quit.",
		arenaCfg.Player1, arenaCfg.Player2, arenaCfg.Difficulty, arenaCfg.TotalQuestions, arena.ChoiceCount))

	loop := arena.NewLoop(arenaCfg, gameOpts)
	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		if err := console.ReadInput(inputCtx, os.Stdin, loop, out); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("input stopped", zap.Error(err))
		}
	}()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		select {
		case <-quit:
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	err := loop.Run(runCtx)
	if errors.Is(err, context.Canceled) {
		out.Notice("Game abandoned.")
		return nil
	}
	return err
}
