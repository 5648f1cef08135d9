package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgstash/internal/server/api"
	"tgstash/internal/server/config"
	"tgstash/internal/server/database"
	"tgstash/internal/server/relay"
	"tgstash/internal/server/service"
	"tgstash/internal/server/storage"
	"tgstash/internal/server/store"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"channel", cfg.ChannelID,
		"relay_timeout", cfg.RelayTimeout,
		"max_file_size", cfg.MaxFileSize,
	)

	ctx := context.Background()

	// Metadata store
	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations complete")
		st = database.NewRepository(db)

	case config.BackendFile:
		fs, err := store.NewJSONFileStore(cfg.StorePath)
		if err != nil {
			slog.Error("failed to open flat-file store", "path", cfg.StorePath, "error", err)
			os.Exit(1)
		}
		slog.Info("flat-file store opened", "path", cfg.StorePath)
		st = fs
	}

	// Upload spool
	spool := storage.NewFileSpool(cfg.SpoolPath)
	if err := spool.EnsureDir(); err != nil {
		slog.Error("failed to initialize spool", "error", err)
		os.Exit(1)
	}
	slog.Info("upload spool initialized", "path", cfg.SpoolPath)

	// Channel relay
	rel, err := relay.NewTelegramRelay(cfg.BotToken, cfg.ChannelID, cfg.TelegramAPIURL, cfg.RelayTimeout)
	if err != nil {
		slog.Error("failed to connect channel relay", "error", err)
		os.Exit(1)
	}

	// Service
	svc := service.NewRelayService(st, rel, spool)

	// Admin token verifier
	var verifier api.TokenVerifier
	if cfg.AdminTokenHash != "" {
		verifier = api.NewBcryptVerifier(cfg.AdminTokenHash)
	} else {
		verifier = api.NewPlainVerifier(cfg.AdminToken)
	}

	// Start spool sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	sweeper := storage.NewSweeper(cfg.SpoolPath, cfg.SpoolMaxAge, cfg.SweepInterval)
	sweeper.Start(sweepCtx)

	// Setup HTTP router
	handler := api.NewHandler(svc, st, cfg.MaxFileSize)
	e := api.SetupRouter(handler, verifier, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop spool sweeper
	sweepCancel()
	sweeper.Wait()

	slog.Info("server exited cleanly")
}
