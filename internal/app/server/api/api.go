// POST /user/register                # Регистрация (публичный)
// POST /user/login                   # Логин (публичный)
// POST /user/logout                  # Выход (auth)
// GET  /api/v1/health                # Состояние сервиса
// GET  /api/v1/sips                  # Все строки (auth)
// POST /api/v1/sips/upsert           # Пакетная запись (auth)
// POST /api/v1/sips/delete           # Пакетное удаление (auth)
// GET  /api/v1/sips/history          # Диапазон дат (auth)
// GET  /api/v1/sips/changes          # SSE поток изменений (auth)
// POST /api/v1/sips/{id}/garmin      # Отметка внешней синхронизации (x-api-key)
// GET  /api/v1/presets               # Пресеты (auth)
// POST /api/v1/presets/upsert        # (auth)
// POST /api/v1/presets/delete        # (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/api/http/health"
	"hydrosync/internal/app/server/api/http/middleware"
	"hydrosync/internal/app/server/api/http/middleware/auth"
	"hydrosync/internal/app/server/api/http/middleware/logger"
	"hydrosync/internal/app/server/api/http/middleware/ratelimit"
	"hydrosync/internal/app/server/api/http/middleware/servicekey"
	presetAPI "hydrosync/internal/app/server/api/http/preset"
	sipAPI "hydrosync/internal/app/server/api/http/sip"
	userAPI "hydrosync/internal/app/server/api/http/user"
	"hydrosync/internal/app/server/config"
	"hydrosync/internal/domain/preset"
	"hydrosync/internal/domain/realtime"
	"hydrosync/internal/domain/session"
	"hydrosync/internal/domain/sip"
	"hydrosync/internal/domain/user"
	"hydrosync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *health.Handler
	User   *userAPI.Handler
	Sip    *sipAPI.Handler
	Preset *presetAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(cfg *config.Config, storage *postgres.Storage, hub *realtime.Hub, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Hydrosync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(cfg, storage, hub, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Sip.SetupRoutes(API)
	h.Preset.SetupRoutes(API)

	return mux
}

func handlers(cfg *config.Config, storage *postgres.Storage, hub *realtime.Hub, log *slog.Logger) *Handlers {
	pool := storage.Pool()

	sessionRepo := postgres.NewSessionRepository(storage, log)
	sessionService := session.NewService(sessionRepo, cfg.Server.SessionTTL, log)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	serviceMW := servicekey.New(cfg.Server.ServiceAPIKey, log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := health.NewHandler(storage, log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(pool, log)
	userService := user.NewService(userRepo, user.NewPasswordValidator(), log)
	middlewares.Add(loggerMW.Middleware(), limiter.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(authMW.Middleware(), loggerMW.Middleware())
	userHandler := userAPI.NewHandler(userService, sessionService, log, public, middlewares.GetAllAndClear())

	sipRepo := postgres.NewSipRepository(pool, log)
	sipService := sip.NewService(sipRepo, log)
	var sipMWs sipAPI.Middlewares
	middlewares.Add(authMW.Middleware(), loggerMW.Middleware(), limiter.Middleware())
	sipMWs.Default = middlewares.GetAllAndClear()
	middlewares.Add(authMW.Middleware(), loggerMW.Middleware())
	sipMWs.Stream = middlewares.GetAllAndClear()
	middlewares.Add(serviceMW.Middleware(), loggerMW.Middleware())
	sipMWs.Service = middlewares.GetAllAndClear()
	sipHandler := sipAPI.NewHandler(sipService, hub, log, sipMWs)

	presetRepo := postgres.NewPresetRepository(pool, log)
	presetService := preset.NewService(presetRepo, log)
	middlewares.Add(authMW.Middleware(), loggerMW.Middleware(), limiter.Middleware())
	presetHandler := presetAPI.NewHandler(presetService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Sip:    sipHandler,
		Preset: presetHandler,
	}
}
