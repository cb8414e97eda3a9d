// Package cli provides common process initialization shared by the
// pocketledger, ledger-worker, ledgerctl and ledger-mcp commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pocketledger/internal/backend"
	"pocketledger/internal/cache"
	"pocketledger/internal/category"
	"pocketledger/internal/config"
	"pocketledger/internal/log"
	"pocketledger/internal/service"
	"pocketledger/internal/stats"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the given LOG_LEVEL and sets it
// as the slog default. An unknown level falls back to info; Validate
// reports it.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, _ := config.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: out})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Ledger is an opened ledger service with its stats cache.
type Ledger struct {
	*service.LedgerService
	Reports *cache.LRUCache[stats.Report]
}

// OpenLedger opens the configured snapshot store, builds the service and
// loads the persisted snapshot. With publish set, committed events go to
// AMQP when AMQP_URL is configured.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, publish bool) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger)

	reg := category.Default()
	if cfg.CategoriesFile != "" {
		if reg, err = category.LoadFile(cfg.CategoriesFile); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Loaded category catalog", "path", cfg.CategoriesFile, "categories", reg.Len())
	}

	stores, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	reports := cache.NewLRUCache[stats.Report](cfg.StatsCacheSize, cfg.StatsCacheTTL)
	opts := service.Options{
		Store:       stores.Store,
		Registry:    reg,
		LoadMode:    cfg.LedgerLoadMode(),
		WeekStart:   cfg.LedgerWeekStart(),
		ReportCache: reports,
		Logger:      logger,
	}
	if publish {
		client, err := factory.CreatePublisher(ctx, bcfg)
		if err != nil {
			_ = stores.Cleanup()
			return nil, err
		}
		// A nil *amqp.Client must not become a non-nil interface.
		if client != nil {
			opts.Publisher = client
		}
	}

	svc, err := service.NewLedgerService(opts)
	if err != nil {
		_ = stores.Cleanup()
		return nil, err
	}
	if err := svc.Bootstrap(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return &Ledger{LedgerService: svc, Reports: reports}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
