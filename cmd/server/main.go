package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/VideoTubeGo/internal/app"
	"github.com/utafrali/VideoTubeGo/internal/config"
	"github.com/utafrali/VideoTubeGo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("videotube-api", cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("videotube api exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("videotube api stopped")
}

// run wires the application and blocks until SIGINT or SIGTERM.
func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting videotube api",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("media_provider", cfg.MediaProvider),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
		slog.Bool("redis_enabled", cfg.RedisEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}
