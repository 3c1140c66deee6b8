package middleware

import (
	"net/http"
	"strconv"
	"time"

	"pathfinder/pkg/metrics"
)

// Metrics собирает Prometheus метрики запросов
func Metrics() Middleware {
	m := metrics.Get()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			m.RecordHTTPRequest(r.URL.Path, r.Method, strconv.Itoa(sw.status), time.Since(start))
		})
	}
}
