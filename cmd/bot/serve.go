package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/mroshb/trivia_bot/internal/api"
	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/game"
	"github.com/mroshb/trivia_bot/internal/handlers"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/services"
	"github.com/mroshb/trivia_bot/internal/storage"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"github.com/mroshb/trivia_bot/telegram"
	"github.com/spf13/cobra"
)

const (
	flushInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel, cfg.AppEnv == "development")
	defer logger.Sync()

	logger.Info("Starting Trivia Bot...", "storage", cfg.StorageDriver)

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			return fmt.Errorf("production security validation failed: %w", err)
		}
		logger.Info("Production security validation passed")
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := repositories.LoadState(ctx, store)
	if err != nil {
		return err
	}
	scores := repositories.NewScoreRepository(state)
	questions := repositories.NewQuestionRepository(state)
	content := repositories.NewContentRepository(state)

	bot, err := telegram.InitBot(cfg)
	if err != nil {
		return err
	}

	sessions := services.NewSessionService(cfg.Game, questions, scores, bot, game.RealClock())
	lobbies := services.NewLobbyService()
	admin := services.NewAdminService(cfg.SuperAdminTgID, state, questions, content, scores, cfg.BroadcastConcurrency)
	handlerMgr := handlers.NewHandlerManager(cfg, sessions, lobbies, admin, scores, questions, content)

	// Failures can surface while a round lock is held, so the alert is sent
	// from its own goroutine.
	state.OnPersistFailure(func(err error) {
		go handlerMgr.NotifyPersistenceFailure(err, bot)
	})

	flushCtx, stopFlusher := context.WithCancel(context.Background())
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		state.RunFlusher(flushCtx, flushInterval)
	}()

	bot.Start(handlerMgr)

	var server *api.Server
	if cfg.HTTPEnabled {
		server = api.NewServer(":"+cfg.AppPort, sessions, scores, questions, state)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("HTTP server failed", "error", err)
			}
		}()
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv, "http", cfg.HTTPEnabled)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	bot.Stop()
	sessions.StopAll()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown failed", "error", err)
		}
		cancel()
	}

	// The flusher writes once more before returning.
	stopFlusher()
	<-flushed
	if state.Dirty() {
		logger.Error("Exiting with unsaved changes")
	}
	logger.Info("Bot stopped")
	return nil
}
