package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/vovakirdan/chatscope-server/internal/app"
	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/log"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	logger := log.New("info")

	cfg, resolvedPath, err := config.Load(logger, configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger = log.New(cfg.LogLevel)
	logger.Info().Str("config", resolvedPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	logger.Info().Str("addr", cfg.Addr).Str("source", cfg.Source.Kind).Msg("starting chatscope server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
