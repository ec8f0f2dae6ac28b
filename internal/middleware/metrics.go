package middleware

import (
	"net/http"
	"time"

	"github.com/mcoot/domonhunt/internal/metrics"
)

// Metrics records the method, status and latency of every request
func Metrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := WrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			m.RecordHTTPRequest(r.Method, wrapped.Status(), time.Since(start))
		})
	}
}
