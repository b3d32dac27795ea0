// Package main implements the entry point for the airdrop checker API:
// an HTTP service whose lookup routes read through a shared in-memory
// cache in front of a blockchain node and a third-party indexer.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/chain"
	"github.com/mumair738/airdrop-checker-sub011/config"
	"github.com/mumair738/airdrop-checker-sub011/metric"
	"github.com/mumair738/airdrop-checker-sub011/pkg/cache"
	"github.com/mumair738/airdrop-checker-sub011/pkg/retry"
	"github.com/mumair738/airdrop-checker-sub011/server"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "airdropd"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	var registry *metric.Registry
	if cfg.Metrics.Enabled {
		registry = metric.NewRegistry()
	}

	sharedCache, err := buildCache(ctx, cfg, registry)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer func() {
		if err := sharedCache.Close(); err != nil {
			slog.Warn("Cache close failed", "error", err)
		}
	}()

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Chain.MaxRetries
	rpc := chain.NewRPCClient(cfg.Chain.RPCURL, cfg.Chain.RequestTimeout, retryCfg)
	indexer := chain.NewIndexerClient(cfg.Chain.IndexerURL, cfg.Chain.RequestTimeout, retryCfg)

	apiServer := server.New(cfg, sharedCache, rpc, indexer, logger, registry)

	return runWithSignalHandling(ctx, cfg, apiServer, registry, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting airdrop checker API",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// buildCache creates the shared cache, with Prometheus metrics when the
// metrics registry is enabled.
func buildCache(ctx context.Context, cfg *config.Config, registry *metric.Registry) (cache.Cache[json.RawMessage], error) {
	var opts []cache.Option[json.RawMessage]
	if registry != nil {
		opts = append(opts, cache.WithMetrics[json.RawMessage](registry, "shared"))
	}
	return cache.New[json.RawMessage](ctx, cfg.Cache, opts...)
}

// runWithSignalHandling starts the servers and waits for a shutdown signal.
func runWithSignalHandling(
	ctx context.Context,
	cfg *config.Config,
	apiServer *server.Server,
	registry *metric.Registry,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	errCh := make(chan error, 2)

	go func() {
		errCh <- apiServer.Start()
	}()

	var metricsServer *metric.Server
	if registry != nil {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		go func() {
			errCh <- metricsServer.Start()
		}()
	}

	select {
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Error("API server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return nil
}
