package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mayssameid/Clash-of-Digits/internal/app"
	"github.com/mayssameid/Clash-of-Digits/internal/config"
	"github.com/mayssameid/Clash-of-Digits/internal/infra/memory"
	"github.com/mayssameid/Clash-of-Digits/internal/infra/postgres"
	redisstore "github.com/mayssameid/Clash-of-Digits/internal/infra/redis"
	transport "github.com/mayssameid/Clash-of-Digits/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arena backend (REST API and websocket games)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := loadConfig(configPath)
	log := newLogger(cfg)
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	leaderboardTTL := config.TTLDuration(cfg.Leaderboard.TTL, time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	repos := buildRepositories(pool, redisClient, redisTTL, leaderboardTTL)
	service := app.NewArenaService(repos, cfg.ArenaTiming(), log)

	limiter := transport.NewRateLimiter(transport.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Enabled:           cfg.RateLimit.Enabled,
		TrustProxy:        cfg.RateLimit.TrustProxy,
	}, log)
	stopPruner := make(chan struct{})
	defer close(stopPruner)
	go limiter.RunPruner(time.Minute, stopPruner)

	handler := transport.NewRouter(service, transport.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSDebug:      cfg.CORS.Debug,
		RateLimiter:    limiter,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		log.Info("starting arena backend",
			zap.String("addr", server.Addr),
			zap.Bool("postgres", pool != nil),
			zap.Bool("redis", redisClient != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildRepositories picks Postgres for durable data when a pool is given and
// Redis for the leaderboard cache and arena registry when a client is given.
// Anything unset falls back to the in-memory store.
func buildRepositories(pool *pgxpool.Pool, redisClient *redis.Client, redisTTL, leaderboardTTL time.Duration) app.Repositories {
	var repos app.Repositories
	var loader app.LeaderboardRepository

	if pool != nil {
		repos.Users = postgres.NewUserRepository(pool)
		repos.Sessions = postgres.NewGameSessionRepository(pool)
		repos.Scores = postgres.NewScoreRepository(pool)
		repos.Feedback = postgres.NewFeedbackRepository(pool)
		loader = postgres.NewLeaderboardRepository(pool)
	} else {
		store := memory.NewStore()
		repos.Users = memory.NewUserRepository(store)
		repos.Sessions = memory.NewGameSessionRepository(store)
		repos.Scores = memory.NewScoreRepository(store)
		repos.Feedback = memory.NewFeedbackRepository(store)
		loader = memory.NewLeaderboardRepository(store)
	}

	if redisClient != nil {
		repos.Leaderboard = redisstore.NewLeaderboardCache(redisClient, loader, leaderboardTTL)
		repos.Arenas = redisstore.NewArenaStore(redisClient, redisTTL)
	} else {
		repos.Leaderboard = memory.NewLeaderboardCache(loader, leaderboardTTL)
		repos.Arenas = memory.NewArenaStore()
	}
	return repos
}
