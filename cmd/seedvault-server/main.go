package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/seedvault/pkg/api"
	"github.com/dd0wney/seedvault/pkg/api/middleware"
	"github.com/dd0wney/seedvault/pkg/config"
	"github.com/dd0wney/seedvault/pkg/logging"
	"github.com/dd0wney/seedvault/pkg/metrics"
	"github.com/dd0wney/seedvault/pkg/server"
	seedtls "github.com/dd0wney/seedvault/pkg/tls"
	"github.com/dd0wney/seedvault/pkg/vault"
	"github.com/dd0wney/seedvault/pkg/wordlist"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("SEEDVAULT_CONFIG"), "Path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "seedvault-server: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logging.SetDefaultLogger(logger)

	logger.Info("seedvault server starting",
		logging.String("version", Version),
		logging.String("addr", cfg.Server.Addr),
		logging.Derivation(cfg.KDFDefaults().Label()))

	if err := vault.SelfTest(); err != nil {
		return fmt.Errorf("crypto self-test failed: %w", err)
	}

	var wl *wordlist.Wordlist
	if cfg.Wordlist.Path != "" {
		if wl, err = wordlist.Load(cfg.Wordlist.Path); err != nil {
			return err
		}
		logger.Info("word list loaded",
			logging.Path(cfg.Wordlist.Path),
			logging.Int("words", wl.Len()),
			logging.Bool("enforce", cfg.Wordlist.Enforce))
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	tlsConfig, err := seedtls.LoadTLSConfig(&cfg.TLS)
	if err != nil {
		return err
	}
	if tlsConfig != nil {
		if info, err := seedtls.LeafInfo(tlsConfig); err == nil {
			logger.Info("TLS enabled",
				logging.String("subject", info.Subject),
				logging.Any("dns_names", info.DNSNames),
				logging.Any("ip_addresses", info.IPAddresses),
				logging.Duration("expires_in", info.ExpiresIn()))
		}
	}

	registry := metrics.DefaultRegistry()
	v := vault.New(
		vault.WithLogger(logger),
		vault.WithRecorder(registry),
		vault.WithDefaults(cfg.KDFDefaults()),
	)

	apiServer, err := api.NewServer(api.Config{
		Vault:           v,
		Wordlist:        wl,
		EnforceWordlist: cfg.Wordlist.Enforce,
		Metrics:         registry,
		Logger:          logger,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		CORS:            cfg.CORSConfig(),
		RateLimit:       cfg.RateLimitConfig(),
		TrustedProxies:  proxies,
		TLSEnabled:      tlsConfig != nil,
		Version:         Version,
	})
	if err != nil {
		return err
	}
	defer apiServer.Close()

	gs := server.NewGracefulServer(cfg.Server.Addr, apiServer.Handler(), server.Options{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Logger:       logger,
		TLSConfig:    tlsConfig,
	})

	// Only the log level is reloadable; everything else needs a restart.
	gs.SetConfigReloadFunc(func() error {
		next, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(logging.ParseLevel(next.Logging.Level))
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gs.Run(ctx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
