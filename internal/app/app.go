package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	authjwt "github.com/pairday/balance-platform/internal/auth/jwt"
	"github.com/pairday/balance-platform/internal/config"
	"github.com/pairday/balance-platform/internal/couple"
	"github.com/pairday/balance-platform/internal/docstore"
	"github.com/pairday/balance-platform/internal/game"
	"github.com/pairday/balance-platform/internal/growth"
	"github.com/pairday/balance-platform/internal/history"
	"github.com/pairday/balance-platform/internal/logging"
	"github.com/pairday/balance-platform/internal/server"
	ws "github.com/pairday/balance-platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	clock       *game.Clock
	gameHandler *game.Handler
	bgCancels   []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	loc, err := cfg.Game.Location()
	if err != nil {
		return nil, err
	}

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	tokens := authjwt.NewManager(authjwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	store := docstore.NewRedisStore(redisClient, cfg.Game.MergeRetryAttempts, cfg.Game.SubscribeBufferSize, logger)
	historyStore := history.NewPGStore(pool)
	growthSvc := growth.NewService(growth.NewPGStore(pool), cfg.Game.ParticipationXP, cfg.Game.AchievementBonusXP, logger)
	couples := couple.NewPGDirectory(pool)

	bank := game.NewBank()
	selector := game.NewSelector(bank)
	manager := game.NewStateManager(store, selector, loc, logger)
	gameSvc := game.NewService(store, bank, manager, historyStore, growthSvc, couples, logger)

	clock := game.NewClock(loc, cfg.Game.RolloverTick, logger)
	hub := ws.NewHub(logger)
	gameHandler := game.NewHandler(gameSvc, hub, tokens, store, clock, logger)
	gameHTTP := game.NewHTTPHandler(gameSvc, clock, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, tokens, server.GameHandlers{
		Today:             gameHTTP.HandleToday,
		History:           gameHTTP.HandleHistory,
		DeleteHistoryItem: gameHTTP.HandleDeleteHistoryItem,
		WebSocket:         gameHandler.HandleWebSocket,
	})

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		http:        apiServer,
		clock:       clock,
		gameHandler: gameHandler,
		bgCancels:   make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		err := a.clock.Run(bgCtx, a.gameHandler.RefreshActive, a.gameHandler.BroadcastCountdown)
		if err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("rollover clock stopped")
		}
	}()
}
