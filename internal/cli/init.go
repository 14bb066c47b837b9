// Package cli holds the start-up steps shared by the worker commands.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"debttracker/internal/config"
	applog "debttracker/internal/log"
)

// SetupLogger builds a component logger at the LOG_LEVEL found in the
// environment and installs it as the slog default.
func SetupLogger(component string) *applog.Logger {
	level, ok := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	logger := applog.New(applog.Config{Level: level, Component: component})
	if !ok {
		logger.Warn("Unknown LOG_LEVEL, using info", "value", os.Getenv("LOG_LEVEL"))
	}
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. Missing files are
// ignored; variables already set in the environment win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Cleanup runs fns in order under a shared deadline, logging failures.
func Cleanup(logger *applog.Logger, timeout time.Duration, fns ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, fn := range fns {
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			logger.Error("Cleanup step failed", "error", err)
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Warn("Shutdown timeout reached")
		return
	}
	logger.Info("Shutdown complete")
}

// Closer adapts an io.Closer style func to a cleanup step.
func Closer(close func() error) func(context.Context) error {
	return func(context.Context) error { return close() }
}
