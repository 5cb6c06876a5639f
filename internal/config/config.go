// Package config loads and validates the gateway configuration from a
// YAML file with TRUSTGATE_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Store     StoreConfig     `koanf:"store"`
	Log       LogConfig       `koanf:"log"`
	LockPath  string          `koanf:"lock_path"`
}

type ServerConfig struct {
	Listen       string        `koanf:"listen" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type AuthConfig struct {
	// ProviderURL is the base URL of the external identity provider.
	ProviderURL string        `koanf:"provider_url" validate:"required,url"`
	Timeout     time.Duration `koanf:"timeout"`
}

type RateLimitConfig struct {
	// General API traffic limits.
	MaxRequests int           `koanf:"max_requests" validate:"min=0"`
	Window      time.Duration `koanf:"window"`

	// Stricter limits for the anti-abuse webhook endpoint.
	WebhookMaxRequests int           `koanf:"webhook_max_requests" validate:"min=0"`
	WebhookWindow      time.Duration `koanf:"webhook_window"`

	// Driver selects the window store: the in-process table or a
	// shared redis instance for multi-instance deployments.
	Driver string      `koanf:"driver" validate:"oneof=memory redis"`
	Redis  RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type WebhookConfig struct {
	SignatureHeader string            `koanf:"signature_header"`
	MaxBodySize     int64             `koanf:"max_body_size"`
	Secrets         map[string]string `koanf:"secrets" validate:"required"`
}

type StoreConfig struct {
	Driver   string         `koanf:"driver" validate:"oneof=postgres sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
}

type PostgresConfig struct {
	DSN      string `koanf:"dsn"`
	MaxConns int32  `koanf:"max_conns"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	// Hardened enables sensitive-field masking in emitted logs. Set
	// once at process start; never toggled at runtime.
	Hardened bool `koanf:"hardened"`
}

// Load reads the YAML config at path, layers TRUSTGATE_ environment
// overrides on top (TRUSTGATE_SERVER__LISTEN=:9090 sets server.listen),
// applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}

	err := k.Load(env.Provider("TRUSTGATE_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "TRUSTGATE_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := checkDriverOptions(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Auth.Timeout == 0 {
		cfg.Auth.Timeout = 5 * time.Second
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 10
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.RateLimit.WebhookMaxRequests == 0 {
		cfg.RateLimit.WebhookMaxRequests = 30
	}
	if cfg.RateLimit.WebhookWindow == 0 {
		cfg.RateLimit.WebhookWindow = time.Minute
	}
	if cfg.RateLimit.Driver == "" {
		cfg.RateLimit.Driver = "memory"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = "data/trustgate.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
}

// checkDriverOptions enforces the options each selected driver needs;
// struct tags can't express the conditional requirement.
func checkDriverOptions(cfg *Config) error {
	if cfg.RateLimit.Driver == "redis" && cfg.RateLimit.Redis.Addr == "" {
		return fmt.Errorf("ratelimit.redis.addr is required when ratelimit.driver is redis")
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required when store.driver is postgres")
	}
	for source, secret := range cfg.Webhook.Secrets {
		if secret == "" {
			return fmt.Errorf("webhook.secrets.%s is empty", source)
		}
	}
	return nil
}
