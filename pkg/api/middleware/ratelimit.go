package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dd0wney/seedvault/pkg/logging"
)

// RateLimitConfig configures the per-client token buckets.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration
	ClientExpiration  time.Duration // idle buckets older than this are dropped
	MaxClients        int           // 0 means unbounded
}

// DefaultRateLimitConfig is sized for key derivation cost: every crypto
// request spends on the order of 100ms of CPU in PBKDF2 or Argon2.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         20,
		CleanupInterval:   5 * time.Minute,
		ClientExpiration:  10 * time.Minute,
		MaxClients:        100000,
	}
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// RateLimiter is a token bucket per client key.
type RateLimiter struct {
	cfg    RateLimitConfig
	logger logging.Logger
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its janitor goroutine; call Stop to
// release it.
func NewRateLimiter(config *RateLimitConfig, logger logging.Logger) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	rl := &RateLimiter{
		cfg:     *config,
		logger:  logger.With(logging.Component("ratelimit")),
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if rl.cfg.CleanupInterval > 0 {
		go rl.janitor()
	}
	return rl
}

// Allow spends one token for clientID. It returns false when the bucket is
// empty or when a new client would exceed MaxClients.
func (rl *RateLimiter) Allow(clientID string) bool {
	ok, _ := rl.reserve(clientID)
	return ok
}

// reserve is Allow plus the wait until the next token.
func (rl *RateLimiter) reserve(clientID string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[clientID]
	if !ok {
		if rl.cfg.MaxClients > 0 && len(rl.buckets) >= rl.cfg.MaxClients {
			rl.logger.Warn("max clients reached, rejecting new client",
				logging.Int("max_clients", rl.cfg.MaxClients))
			return false, time.Second
		}
		b = &bucket{tokens: float64(rl.cfg.BurstSize), seen: now}
		rl.buckets[clientID] = b
	}

	b.tokens = math.Min(float64(rl.cfg.BurstSize),
		b.tokens+now.Sub(b.seen).Seconds()*rl.cfg.RequestsPerSecond)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if rl.cfg.RequestsPerSecond <= 0 {
		return false, time.Second
	}
	wait := (1 - b.tokens) / rl.cfg.RequestsPerSecond
	return false, time.Duration(wait * float64(time.Second))
}

// Clients reports how many buckets are being tracked.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	cutoff := rl.now().Add(-rl.cfg.ClientExpiration)

	rl.mu.Lock()
	removed := 0
	for id, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, id)
			removed++
		}
	}
	rl.mu.Unlock()

	if removed > 0 {
		rl.logger.Debug("removed idle clients", logging.Int("count", removed))
	}
}

// Stop ends the janitor. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// ClientIDFunc extracts the rate-limit key from a request.
type ClientIDFunc func(*http.Request) string

// RejectFunc writes the response for a request a middleware refused. For
// RateLimit, Retry-After is already set when it runs.
type RejectFunc func(w http.ResponseWriter, r *http.Request)

// RateLimit throttles requests per client. A nil limiter disables it. With a
// nil onLimited a plain-text 429 is written.
func RateLimit(limiter *RateLimiter, getClientID ClientIDFunc, onLimited RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := getClientID(r)
			ok, wait := limiter.reserve(clientID)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			limiter.logger.Warn("rate limit exceeded",
				logging.String("client", clientID),
				logging.Path(r.URL.Path))

			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			if onLimited != nil {
				onLimited(w, r)
				return
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}
