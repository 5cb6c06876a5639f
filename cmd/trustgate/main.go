package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/schedly/trustgate/internal/api"
	"github.com/schedly/trustgate/internal/auth"
	"github.com/schedly/trustgate/internal/authz"
	"github.com/schedly/trustgate/internal/config"
	"github.com/schedly/trustgate/internal/events"
	"github.com/schedly/trustgate/internal/lock"
	"github.com/schedly/trustgate/internal/log"
	"github.com/schedly/trustgate/internal/ratelimit"
	"github.com/schedly/trustgate/internal/store"
	"github.com/schedly/trustgate/internal/webhook"
)

const version = "0.2.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "config":
		os.Exit(runConfig(args))
	case "version":
		fmt.Printf("trustgate version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`trustgate - trust-boundary gateway for the scheduling service

Usage:
  trustgate <command> [flags]

Commands:
  start         Start the gateway in the foreground
  config lock   Record the integrity checksum of the current config
  config check  Verify the config against its recorded checksum
  version       Show version information
  help          Show this help message

Flags:
  --config <path>   Configuration file (default: config.yaml)
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	_ = fs.Parse(args)

	if err := config.VerifyChecksum(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "config integrity: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Log.Level, cfg.Log.Hardened)
	logger := log.WithComponent("trustgate")
	logger.Info("starting", "version", version, "hardened", cfg.Log.Hardened)

	if cfg.LockPath != "" {
		pidLock, err := lock.Acquire(cfg.LockPath)
		if err != nil {
			logger.Error("instance lock", "error", err)
			return 1
		}
		defer func() { _ = pidLock.Release() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store", "error", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	windowStore, closeWindows, err := openWindowStore(cfg)
	if err != nil {
		logger.Error("rate-limit store", "error", err)
		return 1
	}
	defer closeWindows()

	provider := auth.NewHTTPProvider(cfg.Auth.ProviderURL, cfg.Auth.Timeout)

	server := api.New(
		api.Config{
			Listen:       cfg.Server.Listen,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			APIRate: api.RateLimitRule{
				MaxRequests: cfg.RateLimit.MaxRequests,
				Window:      cfg.RateLimit.Window,
			},
			WebhookRate: api.RateLimitRule{
				MaxRequests: cfg.RateLimit.WebhookMaxRequests,
				Window:      cfg.RateLimit.WebhookWindow,
			},
			Webhook: webhook.Config{
				Secrets:         cfg.Webhook.Secrets,
				SignatureHeader: cfg.Webhook.SignatureHeader,
				MaxBodySize:     cfg.Webhook.MaxBodySize,
			},
		},
		ratelimit.New(windowStore),
		auth.NewAuthenticator(provider, log.WithComponent("auth")),
		authz.NewGuard(st, log.WithComponent("authz")),
		st,
		events.NewHub(256),
		log.WithComponent("api"),
	)

	if err := server.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("server stopped", "error", err)
		return 1
	}
	logger.Info("stopped")
	return 0
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.ConnectPostgres(ctx, store.PostgresConfig{
			DSN:      cfg.Store.Postgres.DSN,
			MaxConns: cfg.Store.Postgres.MaxConns,
		}, log.WithComponent("store"))
	default:
		logger.Info("using sqlite store", "path", cfg.Store.SQLite.Path)
		return store.OpenSQLite(ctx, cfg.Store.SQLite.Path)
	}
}

func openWindowStore(cfg *config.Config) (ratelimit.Store, func(), error) {
	if cfg.RateLimit.Driver == "redis" {
		rs, err := ratelimit.NewRedisStore(ratelimit.RedisConfig{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	return ratelimit.NewMemoryStore(), func() {}, nil
}

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "config requires an action: lock | check")
		return 1
	}
	action := args[0]

	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	_ = fs.Parse(args[1:])

	switch action {
	case "lock":
		if err := config.WriteChecksum(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config lock: %v\n", err)
			return 1
		}
		fmt.Printf("checksum recorded for %s\n", *configPath)
		return 0
	case "check":
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config check: %v\n", err)
			return 1
		}
		if err := config.VerifyChecksum(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config check: %v\n", err)
			return 1
		}
		fmt.Println("config OK")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown config action: %s\n", action)
		return 1
	}
}
