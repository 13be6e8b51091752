// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	PublicURL  string `yaml:"public_url"`  // storefront origin, used for checkout redirect URLs
	SuccessURL string `yaml:"success_url"` // payment-success landing, defaults to {public_url}/payment-success
	CancelURL  string `yaml:"cancel_url"`
}

type DatabaseConfig struct {
	URI     string        `yaml:"uri"`
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // pending-order cache TTL
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type PaymentConfig struct {
	Stripe struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"stripe"`
	Coinbase struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"coinbase"`
	LemonSqueezy struct {
		APIKey    string `yaml:"api_key"`
		StoreID   string `yaml:"store_id"`
		VariantID string `yaml:"variant_id"`
	} `yaml:"lemonsqueezy"`
}

type AiraloConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BaseURL      string `yaml:"base_url"`
	Sandbox      bool   `yaml:"sandbox"`
}

type SyncConfig struct {
	Interval        time.Duration `yaml:"interval"`         // catalog sync period
	ReconcileEvery  time.Duration `yaml:"reconcile_every"`  // stale-order scan period
	StaleAfter      time.Duration `yaml:"stale_after"`      // how old a pending order must be to retry
	Workers         int           `yaml:"workers"`          // catalog write fan-out
	PollInterval    time.Duration `yaml:"poll_interval"`    // provisioning status poll
	PollMaxAttempts int           `yaml:"poll_max_attempts"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Airalo   AiraloConfig   `yaml:"airalo"`
	Sync     SyncConfig     `yaml:"sync"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SuccessURL == "" {
		cfg.Server.SuccessURL = cfg.Server.PublicURL + "/payment-success"
	}
	if cfg.Server.CancelURL == "" {
		cfg.Server.CancelURL = cfg.Server.PublicURL + "/checkout"
	}
	if cfg.Database.Timeout <= 0 {
		cfg.Database.Timeout = 10 * time.Second
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "esim"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Airalo.BaseURL == "" {
		if cfg.Airalo.Sandbox {
			cfg.Airalo.BaseURL = "https://sandbox-partners-api.airalo.com/v2"
		} else {
			cfg.Airalo.BaseURL = "https://partners-api.airalo.com/v2"
		}
	}
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = 6 * time.Hour
	}
	if cfg.Sync.ReconcileEvery <= 0 {
		cfg.Sync.ReconcileEvery = time.Minute
	}
	if cfg.Sync.StaleAfter <= 0 {
		cfg.Sync.StaleAfter = 10 * time.Minute
	}
	if cfg.Sync.Workers <= 0 {
		cfg.Sync.Workers = 8
	}
	if cfg.Sync.PollInterval <= 0 {
		cfg.Sync.PollInterval = time.Second
	}
	if cfg.Sync.PollMaxAttempts <= 0 {
		cfg.Sync.PollMaxAttempts = 30
	}

	// Minimal validation
	if cfg.Database.URI == "" {
		return nil, errors.New("database.uri is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
