package middleware

import (
	"net/http"
	"time"

	"github.com/renohaus/renohaus-backend/pkg/metrics"
)

// Metrics observes every request under its chi route pattern, so journey and
// image ids do not explode the label space.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.Observe(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}
