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

	"finapp/internal/amqp"
	"finapp/internal/backend"
	"finapp/internal/config"
	"finapp/internal/core"
	apphttp "finapp/internal/http"
	"finapp/internal/ledger"
	applog "finapp/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New("finapp", slog.LevelInfo)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := backend.Create(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	opts := []ledger.Option{}
	if cfg.EnforceFunds {
		opts = append(opts, ledger.WithOverdraft(core.Money{Cents: cfg.OverdraftCents}))
		logger.Info("Funds enforcement enabled", "overdraft_cents", cfg.OverdraftCents)
	}

	// Mutation events are optional: without an AMQP URL the ledger runs
	// standalone and the export worker never sees live changes.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, ledger.WithEvents(amqpClient))
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange)
	}

	led, err := ledger.Open(context.Background(), store, opts...)
	if err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, led, cfg.ExcludedCategories, logger.WithComponent("http"))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finapp server", "port", cfg.Port, "backend", cfg.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
