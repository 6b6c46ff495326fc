package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport/websocket"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	statsRepo, closeStorage, err := initStatsRepository(ctx, logger, conf.Redis)
	if err != nil {
		return err
	}
	defer closeStorage()

	statsService := service.NewStatsService(logger, statsRepo)
	botService := service.NewBotService(logger, conf.Bot.MoveDelay)

	hub := websocket.NewHub(logger)
	gameManager := usecase.NewGameManager(logger, hub, botService, statsService, usecase.BoardLimits{
		Min:     conf.Board.MinSize,
		Max:     conf.Board.MaxSize,
		Default: conf.Board.DefaultSize,
	})

	wsServer := websocket.New(logger, conf.WebSocket, hub, gameManager)
	go wsServer.RunSweeper(ctx)

	lobbyHandler := rest.NewLobbyHandler(logger, gameManager, statsService, hub)
	httpServer := rest.New(logger, conf.HTTPPort, rest.NewRouter(logger, lobbyHandler, wsServer.ServeWS))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := httpServer.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown HTTP server", "error", err)
	}

	wsServer.Shutdown()

	return nil
}

// initStatsRepository - redis backed statistics when enabled, in-memory otherwise.
func initStatsRepository(ctx context.Context, logger *slog.Logger, conf config.Redis) (repository.StatsRepository, func(), error) {
	log := logger.With("method", "initStatsRepository")

	if !conf.Enabled {
		log.Info("Redis disabled, keeping statistics in memory")
		return repository.NewMemoryStatsRepository(), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.GetRedisAddr(), conf.Password, conf.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewStatsRepository(redisStorage.Connection), closeStorage, nil
}
