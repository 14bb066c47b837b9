package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"debttracker/internal/backend"
	"debttracker/internal/cache"
	"debttracker/internal/cli"
	"debttracker/internal/core"
	applog "debttracker/internal/log"
	"debttracker/internal/worker"
)

func main() {
	// Load .env file for local development
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Warn("Ignoring unreadable .env file", "error", err)
	}

	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting sheets-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if backendCfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	storeResult, err := factory.CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize snapshot store", "error", err, applog.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	sink, err := factory.CreateSink(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize sheet sink", "error", err)
		os.Exit(1)
	}

	amqpClient, err := factory.CreateAMQPClient(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	snapshots := cache.NewLRUCache[core.Snapshot](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	syncWorker := worker.NewSyncWorker(storeResult.Store, sink, snapshots)

	// Catch up on events published while the worker was down.
	if _, err := syncWorker.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeLedgerEvents(gctx, syncWorker.HandleLedgerEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		cache.NewJanitor(snapshots).Run(gctx, cfg.SnapshotCacheTTL)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
	}

	hits, misses := snapshots.Stats()
	logger.Info("Shutting down sheets-worker...", "cache_hits", hits, "cache_misses", misses)
	cli.Cleanup(logger, 30*time.Second,
		cli.Closer(amqpClient.Close),
		cli.Closer(storeResult.Cleanup),
	)
}
