package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pocketledger/internal/backend"
	"pocketledger/internal/cli"
	"pocketledger/internal/log"
	"pocketledger/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	logger.Info("Starting ledger-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)
	setupCtx := context.Background()

	// The store is read only, to rebuild the mirror on reconcile.
	stores, err := factory.CreateStore(setupCtx, bcfg)
	if err != nil {
		logger.Error("Failed to open snapshot store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer stores.Cleanup()

	mirror, err := factory.CreateMirror(setupCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", log.FieldError, err)
		os.Exit(1)
	}

	consumer, err := factory.CreatePublisher(setupCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer consumer.Close()

	syncWorker := worker.NewSyncWorker(mirror, stores.Store, logger)
	reconciler := worker.NewReconciler(syncWorker, worker.ReconcilerConfig{Interval: cfg.ReconcileInterval})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := reconciler.Stop(ctx); err != nil {
			logger.Warn("Reconciler stop timed out", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Consume(gctx, syncWorker.Handle)
	})
	g.Go(func() error {
		if err := reconciler.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
