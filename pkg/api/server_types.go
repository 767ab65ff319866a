package api

import (
	"time"

	"github.com/dd0wney/seedvault/pkg/api/middleware"
	"github.com/dd0wney/seedvault/pkg/health"
	"github.com/dd0wney/seedvault/pkg/logging"
	"github.com/dd0wney/seedvault/pkg/metrics"
	"github.com/dd0wney/seedvault/pkg/vault"
	"github.com/dd0wney/seedvault/pkg/wordlist"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Config wires the server's collaborators. Vault is required; everything
// else has a usable zero value.
type Config struct {
	Vault           *vault.Vault
	Wordlist        *wordlist.Wordlist // nil disables the passphrase endpoints
	EnforceWordlist bool               // reject encrypt passphrases that fail word-list validation
	Metrics         *metrics.Registry  // nil uses metrics.DefaultRegistry()
	Health          *health.HealthChecker
	Logger          logging.Logger
	MaxBodyBytes    int64
	CORS            *middleware.CORSConfig
	RateLimit       *middleware.RateLimitConfig // nil disables rate limiting
	TrustedProxies  middleware.TrustedProxies
	TLSEnabled      bool
	Version         string
}

// Server represents the HTTP API server
type Server struct {
	vault           *vault.Vault
	wordlist        *wordlist.Wordlist
	enforceWordlist bool
	metricsRegistry *metrics.Registry
	healthChecker   *health.HealthChecker
	logger          logging.Logger
	corsConfig      *middleware.CORSConfig
	rateLimiter     *middleware.RateLimiter // nil when disabled
	trustedProxies  middleware.TrustedProxies
	maxBodyBytes    int64
	tlsEnabled      bool
	routes          map[string]bool // registered paths, for metric labels
	startTime       time.Time
	version         string
}
