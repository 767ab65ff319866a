// Package config loads the seedvault server configuration from a YAML file
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/seedvault/pkg/api/middleware"
	"github.com/dd0wney/seedvault/pkg/kdf"
	seedtls "github.com/dd0wney/seedvault/pkg/tls"
	"github.com/dd0wney/seedvault/pkg/validation"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAddr     = "SEEDVAULT_ADDR"
	EnvLogLevel = "LOG_LEVEL"
	EnvWordlist = "SEEDVAULT_WORDLIST"
)

const (
	DefaultAddr         = "127.0.0.1:8787"
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultMaxBodyBytes = 1 << 20
	DefaultLogLevel     = "INFO"
	DefaultRateLimitRPS = 5
	DefaultRateBurst    = 20
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	TLS      seedtls.Config `yaml:"tls"`
	Crypto   CryptoConfig   `yaml:"crypto"`
	Logging  LoggingConfig  `yaml:"logging"`
	Wordlist WordlistConfig `yaml:"wordlist"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`

	// TrustedProxies lists CIDRs or addresses whose X-Forwarded-For and
	// X-Real-IP headers are believed when keying the rate limiter.
	TrustedProxies []string        `yaml:"trusted_proxies"`
	CORSOrigins    []string        `yaml:"cors_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig throttles the key-derivation endpoints per client.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CryptoConfig holds the defaults used by advanced encryption when a request
// leaves derivation or iterations unset.
type CryptoConfig struct {
	DefaultDerivation string `yaml:"default_derivation"`
	DefaultIterations int    `yaml:"default_iterations"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WordlistConfig points at an optional EFF word list. With Enforce set, encrypt
// requests whose passphrase fails word-list validation are rejected.
type WordlistConfig struct {
	Path    string `yaml:"path"`
	Enforce bool   `yaml:"enforce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MaxBodyBytes: DefaultMaxBodyBytes,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: DefaultRateLimitRPS,
				Burst:             DefaultRateBurst,
			},
		},
		TLS: *seedtls.DefaultConfig(),
		Crypto: CryptoConfig{
			DefaultDerivation: string(kdf.DefaultAlgorithm),
			DefaultIterations: kdf.DefaultIterations,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

// Load reads the YAML file at path over the defaults. An empty path or a
// missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Unset or empty variables
// leave the current value.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvWordlist); v != "" {
		c.Wordlist.Path = v
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	server := validation.NewConfigValidator("server").
		Required("addr", c.Server.Addr).
		RangeDuration("read_timeout", c.Server.ReadTimeout, time.Second, time.Hour).
		RangeDuration("write_timeout", c.Server.WriteTimeout, time.Second, time.Hour).
		RangeDuration("idle_timeout", c.Server.IdleTimeout, time.Second, time.Hour).
		Positive("max_body_bytes", c.Server.MaxBodyBytes).
		Custom("trusted_proxies", func() error {
			_, err := middleware.ParseTrustedProxies(c.Server.TrustedProxies)
			return err
		}).
		When(c.Server.RateLimit.Enabled, func(v *validation.ConfigValidator) {
			v.PositiveFloat("rate_limit.requests_per_second", c.Server.RateLimit.RequestsPerSecond)
			v.RangeInt("rate_limit.burst", c.Server.RateLimit.Burst, 1, 10000)
		})

	tls := validation.NewConfigValidator("tls").
		When(c.TLS.Enabled && !c.TLS.AutoGenerate, func(v *validation.ConfigValidator) {
			v.Required("cert_file", c.TLS.CertFile)
			v.Required("key_file", c.TLS.KeyFile)
		})

	crypto := validation.NewConfigValidator("crypto").
		OneOf("default_derivation", c.Crypto.DefaultDerivation,
			[]string{string(kdf.AlgorithmPBKDF2), string(kdf.AlgorithmArgon2)}).
		RangeInt("default_iterations", c.Crypto.DefaultIterations, 1, validation.MaxIterations)

	logging := validation.NewConfigValidator("logging").
		OneOf("level", strings.ToUpper(strings.TrimSpace(c.Logging.Level)),
			[]string{"DEBUG", "INFO", "WARN", "ERROR"})

	wordlist := validation.NewConfigValidator("wordlist").
		When(c.Wordlist.Enforce, func(v *validation.ConfigValidator) {
			v.Required("path", c.Wordlist.Path)
		})

	return errors.Join(server.Validate(), tls.Validate(), crypto.Validate(), logging.Validate(), wordlist.Validate())
}

// KDFDefaults returns the crypto section as derivation parameters.
func (c *Config) KDFDefaults() kdf.Params {
	return kdf.Params{
		Algorithm:  kdf.Algorithm(c.Crypto.DefaultDerivation),
		Iterations: c.Crypto.DefaultIterations,
	}
}

// RateLimitConfig returns the limiter settings for the API, or nil when
// rate limiting is disabled.
func (c *Config) RateLimitConfig() *middleware.RateLimitConfig {
	if !c.Server.RateLimit.Enabled {
		return nil
	}
	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = c.Server.RateLimit.RequestsPerSecond
	rl.BurstSize = c.Server.RateLimit.Burst
	return rl
}

// CORSConfig returns the CORS policy. No configured origins means
// cross-origin requests are refused.
func (c *Config) CORSConfig() *middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return cors
}
