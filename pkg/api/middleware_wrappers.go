package api

import (
	"fmt"
	"net/http"

	"github.com/dd0wney/seedvault/pkg/api/middleware"
)

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r)
}

// panicRecoveryMiddleware recovers from panics in HTTP handlers
func (s *Server) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return middleware.PanicRecovery(s.logger)(next)
}

// loggingMiddleware logs HTTP requests with timing information
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return middleware.Logging(s.logger, middleware.GetRequestID)(next)
}

// metricsMiddleware records Prometheus request metrics
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return middleware.Metrics(s.metricsRegistry, s.pathLabel)(next)
}

// corsMiddleware handles Cross-Origin Resource Sharing
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return middleware.CORS(s.corsConfig)(next)
}

// bodySizeLimitMiddleware limits the size of incoming request bodies
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return middleware.BodySizeLimit(s.maxBodyBytes, s.respondTooLarge)(next)
}

func (s *Server) respondTooLarge(w http.ResponseWriter, _ *http.Request) {
	s.respondError(w, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("request body exceeds %d bytes", s.maxBodyBytes), KindValidation)
}

// requestIDMiddleware adds a unique request ID to each request
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return middleware.RequestID()(next)
}

// securityHeadersMiddleware adds security headers to responses
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	config := &middleware.SecurityHeadersConfig{
		TLSEnabled: s.tlsEnabled,
	}
	return middleware.SecurityHeaders(config)(next)
}

// rateLimitMiddleware throttles the key-derivation endpoints per client IP.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ClientIP(s.trustedProxies), s.respondRateLimited)(next)
}

func (s *Server) respondRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metricsRegistry.RecordRateLimited(s.pathLabel(r))
	s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded", KindRateLimited)
}

// pathLabel folds unregistered paths into one metric label.
func (s *Server) pathLabel(r *http.Request) string {
	if s.routes[r.URL.Path] {
		return r.URL.Path
	}
	return "other"
}
