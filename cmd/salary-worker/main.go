package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"debttracker/internal/backend"
	"debttracker/internal/cli"
	applog "debttracker/internal/log"
	"debttracker/internal/services"
)

func main() {
	// Load .env file for local development
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Warn("Ignoring unreadable .env file", "error", err)
	}

	logger := cli.SetupLogger(applog.ComponentSalary)
	logger.Info("Starting salary-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
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

	// Salary credits are announced so the sheets worker can mirror them.
	var publisher services.EventPublisher
	amqpClient, err := factory.CreateAMQPClient(ctx, backendCfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, salary credits will not be published", "error", err)
	} else if amqpClient != nil {
		publisher = amqpClient
	}

	processor := services.NewSalaryProcessor(storeResult.Store, publisher, services.SalaryProcessorConfig{
		Interval: cfg.SalaryCheckInterval,
	})
	logger.Info("Salary processor configured",
		"interval", cfg.SalaryCheckInterval,
		applog.FieldBackend, backendCfg.Type,
		"amqp_enabled", publisher != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		select {
		case <-gctx.Done():
		case <-processor.Done():
		}
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Salary worker stopped with error", "error", err)
	}

	logger.Info("Shutting down salary-worker...")
	cleanups := []func(context.Context) error{cli.Closer(storeResult.Cleanup)}
	if amqpClient != nil {
		cleanups = append([]func(context.Context) error{cli.Closer(amqpClient.Close)}, cleanups...)
	}
	cli.Cleanup(logger, 30*time.Second, cleanups...)
}
