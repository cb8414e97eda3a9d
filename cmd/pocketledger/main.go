package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"pocketledger/internal/backup"
	"pocketledger/internal/cache"
	"pocketledger/internal/cli"
	apphttp "pocketledger/internal/http"
	"pocketledger/internal/log"
	"pocketledger/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	ledger, err := cli.OpenLedger(context.Background(), cfg, logger, true)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	opts := apphttp.Options{
		Logger:    logger,
		RateLimit: ratelimit.DefaultConfig(),
	}
	if cfg.BackupBlobURL != "" {
		b, err := backup.New(cfg.BackupBlobURL, cfg.BackupContainer, logger)
		if err != nil {
			logger.Error("Failed to initialize backup", log.FieldError, err)
			os.Exit(1)
		}
		opts.Backup = b
	}

	caches := cache.NewManager(logger)
	caches.Register(ledger.Reports)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, opts)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	})
	caches.StartCleanup(ctx, time.Minute)

	logger.Info("Starting pocketledger server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"transactions", len(ledger.Snapshot().Transactions))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
