package middleware

import (
	"net/http"

	"pathfinder/pkg/logger"
	"pathfinder/pkg/ratelimit"
)

// RateLimit ограничивает частоту запросов по адресу клиента
func RateLimit(limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				// Лимитер недоступен - пропускаем запрос, но логируем
				logger.Log.Warn("rate limiter failure", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many requests"}}`)) //nolint:errcheck
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
