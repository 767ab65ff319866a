package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsRecorder is the slice of metrics.Registry the middleware needs.
type MetricsRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	RecordResponseSize(method, path string, size float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// PathLabeler maps a request to its path label. Servers pass one that folds
// unknown paths together to bound label cardinality.
type PathLabeler func(*http.Request) string

// Metrics records count, latency, response size and in-flight requests. A nil
// recorder disables it; a nil label records r.URL.Path as is.
func Metrics(recorder MetricsRecorder, label PathLabeler) func(http.Handler) http.Handler {
	if label == nil {
		label = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			path := label(r)
			recorder.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
			recorder.RecordResponseSize(r.Method, path, float64(rec.bytes))
		})
	}
}
