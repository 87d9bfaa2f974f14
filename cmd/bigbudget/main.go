package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bigbudget/internal/amqp"
	"bigbudget/internal/backend"
	"bigbudget/internal/cache"
	"bigbudget/internal/calendar"
	"bigbudget/internal/config"
	apphttp "bigbudget/internal/http"
	applog "bigbudget/internal/log"
	"bigbudget/internal/payroll"
	"bigbudget/internal/services"
	"bigbudget/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	result, err := backend.New(cfg, slog.Default())
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	ctx := context.Background()

	snap, err := result.Store.LoadSnapshot(ctx)
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	entries := store.New(result.Store)
	entries.Load(snap)
	logger.Info("Snapshot loaded", "entries", entries.Len(), "deposits", len(snap.Deposits))

	savedUsers, err := result.Store.LoadUsers(ctx)
	if err != nil {
		logger.Error("Failed to load paycheck users", "error", err)
		os.Exit(1)
	}
	users := payroll.NewUsers(result.Store)
	users.Load(savedUsers)
	logger.Info("Paycheck users loaded", "count", len(savedUsers))

	// AMQP is optional: without a broker the API runs standalone.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		} else {
			defer amqpClient.Close()
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var publisher services.EntryPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	budget := services.NewBudgetService(entries, publisher)
	aggregator := calendar.New(entries, users)

	caches := cache.NewManager()
	caches.Register(aggregator.Breakdowns())
	caches.StartCleanup(cfg.SweepInterval)
	defer caches.StopCleanup()

	srv := apphttp.NewServer(":"+cfg.Port, budget, aggregator, users)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting bigbudget server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-runCtx.Done()
	logger.Info("Server stopped gracefully")
}
