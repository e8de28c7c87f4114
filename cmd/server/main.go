package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hydrosync/internal/app/server"
	"hydrosync/internal/app/server/config"
	"hydrosync/internal/utils/logger"
)

func main() {
	cfg := config.MustLoad()
	log := logger.NewWithFile(cfg.Env, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init server", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
