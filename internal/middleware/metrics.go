package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// RequestRecorder is the slice of *metrics.Metrics this middleware needs.
type RequestRecorder interface {
	RecordRequest(method, route, status string, duration time.Duration)
}

// Metrics records request count and latency per method, route pattern and status.
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			rec.RecordRequest(r.Method, routePattern(r), strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}
