package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tracker/internal/amqp"
	"tracker/internal/auth"
	"tracker/internal/cache"
	"tracker/internal/config"
	"tracker/internal/core"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/storage"
	"tracker/internal/store"
	"tracker/internal/store/memory"
	"tracker/internal/stream"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	var (
		entryStore store.EntryStore
		userStore  store.UserStore
		reports    store.SummaryStore
	)

	switch cfg.DataBackend {
	case "memory":
		mem := memory.New()
		entryStore, userStore, reports = mem, mem, mem
		logger.Info("Initialized memory backend")
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		entryStore, userStore, reports = repo, repo, repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	}

	// AMQP is optional: without it entries still persist, only the event
	// feed for the reporting worker goes dark.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, entry events disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	hub := stream.NewHub(entryStore, logger)
	snapshots := cache.NewLRU[core.Snapshot](500, 5*time.Minute)
	snapshots.StartCleanup(10 * time.Minute)
	defer snapshots.Close()

	entrySvc := services.NewEntryService(entryStore, hub, publisher, snapshots)
	authSvc := auth.NewService(userStore, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)

	srv := apphttp.NewServer(":"+cfg.Port, entrySvc, authSvc, hub, reports, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 120 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tracker server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
