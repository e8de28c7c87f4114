// Package server собирает удаленное хранилище: HTTP API, пул Postgres и поток изменений.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"hydrosync/internal/app/server/api"
	"hydrosync/internal/app/server/config"
	"hydrosync/internal/domain/realtime"
	"hydrosync/internal/infrastructure/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg      *config.Config
	log      *slog.Logger
	storage  *postgres.Storage
	hub      *realtime.Hub
	listener *postgres.Listener
	server   *http.Server
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := postgres.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	hub := realtime.NewHub(realtime.DefaultBuffer, log)
	router := api.New(cfg, storage, hub, log)

	return &App{
		cfg:      cfg,
		log:      log,
		storage:  storage,
		hub:      hub,
		listener: postgres.NewListener(storage.Pool(), hub, log),
		server: &http.Server{
			Addr:              cfg.Server.RunAddress,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// WriteTimeout не задан: SSE-соединения живут долго
		},
	}, nil
}

// Run блокируется до отмены ctx, затем корректно останавливает сервер
func (a *App) Run(ctx context.Context) error {
	defer a.storage.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.listener.Run(gctx)
	})

	g.Go(func() error {
		a.log.Info("server started", "address", a.server.Addr, "env", a.cfg.Env)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
