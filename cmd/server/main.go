// Package main is the entry point for the catalog API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/shopapi/internal/config"
	"github.com/vyrodovalexey/shopapi/internal/server"
	"github.com/vyrodovalexey/shopapi/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger for startup errors
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.Int("probe_port", cfg.ProbePort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("events_enabled", cfg.EventsEnabled),
		zap.Bool("strict_validation", cfg.StrictValidation),
		zap.Strings("cors_allowed_origins", cfg.CORSAllowedOrigins),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	itemStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", zap.Error(err))
		return 1
	}

	srv := server.New(cfg, logger, itemStore)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// newStore creates the catalog store, loading the sample products when
// seeding is enabled.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.MemoryStore, error) {
	itemStore := store.NewMemoryStore()

	if !cfg.SeedSampleData {
		logger.Info("starting with an empty catalog")
		return itemStore, nil
	}

	samples := store.SampleItems()
	if err := itemStore.Seed(ctx, samples); err != nil {
		return nil, fmt.Errorf("seeding sample data: %w", err)
	}

	logger.Info("sample data loaded", zap.Int("items", len(samples)))
	return itemStore, nil
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
