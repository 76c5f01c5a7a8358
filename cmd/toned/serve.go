package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nullteam/toneengine/internal/cadence"
	"github.com/nullteam/toneengine/internal/config"
	"github.com/nullteam/toneengine/internal/httpapi"
	"github.com/nullteam/toneengine/internal/metrics"
	"github.com/nullteam/toneengine/internal/tonesource"
	"github.com/nullteam/toneengine/internal/waveform"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tone engine's admin surface, holding the registry and source pool alive",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, loader, err := config.Load(configPath, nil)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := initLogger(cfg.Logging)
	logger.Info("toned starting", "config_path", configPath)

	appMetrics := metrics.NewMetrics()

	cache := waveform.NewCache().WithMetrics(appMetrics)
	registry, err := cadence.NewRegistry(cache, logger)
	if err != nil {
		logger.Error("failed to build cadence registry", "error", err)
		os.Exit(1)
	}
	registry.WithMetrics(appMetrics)
	registry.SetDefaultLanguage(cfg.Cadence.DefaultLanguage)

	if cfg.Cadence.PackPath != "" {
		if err := cadence.LoadPack(registry, cfg.Cadence.PackPath); err != nil {
			logger.Error("failed to load cadence pack", "path", cfg.Cadence.PackPath, "error", err)
			os.Exit(1)
		}
		logger.Info("cadence pack loaded", "path", cfg.Cadence.PackPath)
	}

	pool := tonesource.NewPool(registry, logger).WithMetrics(appMetrics)

	loader.Watch(func(newCfg *config.Config) {
		registry.SetDefaultLanguage(newCfg.Cadence.DefaultLanguage)
		if newCfg.Cadence.PackPath != "" {
			if err := cadence.LoadPack(registry, newCfg.Cadence.PackPath); err != nil {
				logger.Warn("cadence pack reload failed", "path", newCfg.Cadence.PackPath, "error", err)
			} else {
				logger.Info("cadence pack reloaded", "path", newCfg.Cadence.PackPath)
			}
		}
	})

	var httpServer *httpapi.Server
	if cfg.HTTP.Enabled {
		httpServer = httpapi.New(httpapi.Config{Address: cfg.HTTP.Address, Enabled: true}, logger, registry, pool, appMetrics)
		httpServer.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("error stopping admin HTTP server", "error", err)
		}
	}
	if err := pool.Close(); err != nil {
		logger.Error("error stopping source pool", "error", err)
	}

	logger.Info("toned stopped")
	return nil
}

// initLogger builds the single *slog.Logger every package is handed
// at construction, per cfg.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}
