package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/climatologylab/labsite/internal/metrics"
)

// Instrument records request count, duration and response size. Paths are
// labelled by their route pattern to keep label cardinality bounded.
func Instrument(m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}
			m.Observe(r.Method, path, strconv.Itoa(rec.status), time.Since(start), rec.size)
		})
	}
}
