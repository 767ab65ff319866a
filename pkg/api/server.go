// Package api serves the vault operations as JSON over HTTP.
package api

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/dd0wney/seedvault/pkg/api/middleware"
	"github.com/dd0wney/seedvault/pkg/health"
	"github.com/dd0wney/seedvault/pkg/logging"
	"github.com/dd0wney/seedvault/pkg/metrics"
	"github.com/dd0wney/seedvault/pkg/vault"
)

// Route paths
const (
	PathEncrypt            = "/v1/encrypt"
	PathDecrypt            = "/v1/decrypt"
	PathAdvancedEncrypt    = "/v1/advanced/encrypt"
	PathAdvancedDecrypt    = "/v1/advanced/decrypt"
	PathIntegrityVerify    = "/v1/integrity/verify"
	PathIntegrityInfo      = "/v1/integrity/info"
	PathIntegrityExport    = "/v1/integrity/export"
	PathPassphraseValidate = "/v1/passphrase/validate"
	PathPassphraseGenerate = "/v1/passphrase/generate"
	PathHealth             = "/health"
	PathLiveness           = "/health/live"
	PathReadiness          = "/health/ready"
	PathMetrics            = "/metrics"
)

// NewServer creates a new API server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Vault == nil {
		return nil, errors.New("api: vault is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	registry := cfg.Metrics
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	cors := cfg.CORS
	if cors == nil {
		cors = middleware.DefaultCORSConfig()
	}

	s := &Server{
		vault:           cfg.Vault,
		wordlist:        cfg.Wordlist,
		enforceWordlist: cfg.EnforceWordlist,
		metricsRegistry: registry,
		healthChecker:   cfg.Health,
		logger:          logger.With(logging.Component("api")),
		corsConfig:      cors,
		trustedProxies:  cfg.TrustedProxies,
		maxBodyBytes:    maxBody,
		tlsEnabled:      cfg.TLSEnabled,
		routes:          make(map[string]bool),
		startTime:       time.Now(),
		version:         cfg.Version,
	}
	if cfg.RateLimit != nil {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}
	if s.healthChecker == nil {
		s.healthChecker = s.defaultHealthChecker()
	}

	return s, nil
}

func (s *Server) defaultHealthChecker() *health.HealthChecker {
	hc := health.NewHealthChecker()
	hc.RegisterCheck("crypto", health.SelfTestCheck(vault.SelfTest))
	hc.RegisterCheck("wordlist", health.WordlistCheck(s.wordlistSize, s.enforceWordlist))
	hc.RegisterCheck("memory", health.MemoryCheck(memoryUsage))

	hc.RegisterReadinessCheck("crypto", health.SelfTestCheck(vault.SelfTest))
	hc.RegisterReadinessCheck("wordlist", health.WordlistCheck(s.wordlistSize, s.enforceWordlist))
	return hc
}

func (s *Server) wordlistSize() int {
	if s.wordlist == nil {
		return 0
	}
	return s.wordlist.Len()
}

func memoryUsage() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Key derivation is the expensive part; only these routes are throttled.
	s.handle(mux, PathEncrypt, s.rateLimitMiddleware(http.HandlerFunc(s.handleEncrypt)))
	s.handle(mux, PathDecrypt, s.rateLimitMiddleware(http.HandlerFunc(s.handleDecrypt)))
	s.handle(mux, PathAdvancedEncrypt, s.rateLimitMiddleware(http.HandlerFunc(s.handleAdvancedEncrypt)))
	s.handle(mux, PathAdvancedDecrypt, s.rateLimitMiddleware(http.HandlerFunc(s.handleAdvancedDecrypt)))

	s.handle(mux, PathIntegrityVerify, http.HandlerFunc(s.handleIntegrityVerify))
	s.handle(mux, PathIntegrityInfo, http.HandlerFunc(s.handleIntegrityInfo))
	s.handle(mux, PathIntegrityExport, http.HandlerFunc(s.handleIntegrityExport))

	s.handle(mux, PathPassphraseValidate, http.HandlerFunc(s.handlePassphraseValidate))
	s.handle(mux, PathPassphraseGenerate, http.HandlerFunc(s.handlePassphraseGenerate))

	s.handle(mux, PathHealth, http.HandlerFunc(s.handleHealth))
	s.handle(mux, PathLiveness, s.healthChecker.LivenessHandler())
	s.handle(mux, PathReadiness, s.healthChecker.ReadinessHandler())
	s.handle(mux, PathMetrics, http.HandlerFunc(s.handleMetrics))

	mux.HandleFunc("/", s.handleNotFound)

	// Wrapped innermost first; the last wrapper runs first.
	var h http.Handler = mux
	h = s.bodySizeLimitMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.securityHeadersMiddleware(h)
	h = s.metricsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.requestIDMiddleware(h)
	h = s.panicRecoveryMiddleware(h)
	return h
}

func (s *Server) handle(mux *http.ServeMux, path string, h http.Handler) {
	s.routes[path] = true
	mux.Handle(path, h)
}

// Close releases background resources. The server must not be used after.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusNotFound, "Not found", KindNotFound)
}
