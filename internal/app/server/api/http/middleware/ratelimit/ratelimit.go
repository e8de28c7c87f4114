// Package ratelimit ограничивает частоту запросов одного пользователя.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"

	"hydrosync/internal/app/server/api/http/middleware/auth"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimit struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func New(rps float64, burst int, log *slog.Logger) *RateLimit {
	return &RateLimit{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
		now:      time.Now,
		log:      log.With(slog.String("component", "rate_limit_middleware")),
	}
}

// Allow расходует один токен ключа; простаивающие ключи вычищаются
func (r *RateLimit) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for k, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.ttl {
			delete(r.visitors, k)
		}
	}

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware ставится после auth: ключ - пользователь, без него - адрес клиента
func (r *RateLimit) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key, ok := auth.GetUserID(ctx.Context())
		if !ok {
			key = ctx.RemoteAddr()
		}

		if !r.Allow(key) {
			r.log.Warn("rate limit exceeded", "key", key, "path", ctx.URL().Path)
			ctx.SetHeader("Content-Type", "application/json")
			ctx.SetHeader("Retry-After", "1")
			ctx.SetStatus(http.StatusTooManyRequests)
			if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
				"status": "Error",
				"error":  "Too Many Requests",
			}); err != nil {
				r.log.Error("json encode", "error", err)
			}
			return
		}
		next(ctx)
	}
}
