// Package servicekey пропускает служебные запросы по общему ключу в заголовке x-api-key.
package servicekey

import (
	"crypto/subtle"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/api/http/middleware/auth"
)

const Header = "x-api-key"

type ServiceKey struct {
	key string
	log *slog.Logger
}

func New(key string, log *slog.Logger) *ServiceKey {
	return &ServiceKey{
		key: key,
		log: log.With(slog.String("component", "service_key_middleware")),
	}
}

// Middleware без настроенного ключа отклоняет все запросы
func (s *ServiceKey) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		got := ctx.Header(Header)
		if s.key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.key)) != 1 {
			s.log.Warn("invalid service key", "path", ctx.URL().Path, "remote_addr", ctx.RemoteAddr())
			auth.Unauthorized(ctx, s.log)
			return
		}
		next(ctx)
	}
}
