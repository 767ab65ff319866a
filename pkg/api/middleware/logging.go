package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/seedvault/pkg/logging"
)

// Logging creates middleware that logs HTTP requests with timing information.
// It uses the request ID from context if available. Bodies are never logged.
func Logging(logger logging.Logger, getRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(logging.Component("http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", rec.status),
				logging.Size(rec.bytes),
				logging.Latency(time.Since(start)),
			}
			// Include request ID in logs for tracing
			if getRequestID != nil {
				if id := getRequestID(r); id != "" {
					fields = append(fields, logging.RequestID(id))
				}
			}

			if rec.status >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
			} else {
				logger.Info("request", fields...)
			}
		})
	}
}
