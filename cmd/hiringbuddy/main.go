package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hiringbuddy/internal/cli"
	"hiringbuddy/internal/config"
	"hiringbuddy/internal/errors"
	"hiringbuddy/internal/observability"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Pull secrets from Vault when configured
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to apply Vault secrets")
		os.Exit(1)
	}

	// Set up observability
	obsConfig := observability.GetObservabilityConfig(cfg, cli.Version)
	obsManager, err := observability.NewObservabilityManager(obsConfig, cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize observability")
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obsManager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Observability shutdown failed", "error", err)
		}
	}()

	// Log startup
	logger.Info("Starting hiringbuddy application",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"provider", cfg.AI.Provider)

	// Execute command with cancellable context
	if err := cli.Execute(ctx, cfg, logger, obsManager.GetMetrics()); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
