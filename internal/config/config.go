package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port       string   `env:"PORT" envDefault:"5001"`
	CORSOrigin []string `env:"CORS_ORIGIN" envSeparator:","`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites those headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/bunnyfocus.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	ProfileID   string `env:"PROFILE_ID" envDefault:"default"`

	CatalogPath string `env:"CATALOG_PATH"`
	Timezone    string `env:"TIMEZONE" envDefault:"Local"`

	PasswordHash string        `env:"ACCESS_PASSWORD_HASH"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	ChatRateLimit   int           `env:"CHAT_RATE_LIMIT" envDefault:"20"`
	ChatRateWindow  time.Duration `env:"CHAT_RATE_WINDOW" envDefault:"1h"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	ChatModel     string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
}

// AuthEnabled reports whether the API is locked behind a passphrase.
func (c Config) AuthEnabled() bool {
	return c.PasswordHash != ""
}

// ChatEnabled reports whether the chat proxy has credentials.
func (c Config) ChatEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Location resolves the zone that defines the calendar day.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ProfileID == "" {
		return errors.New("PROFILE_ID is required")
	}
	if c.AuthEnabled() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ACCESS_PASSWORD_HASH is set")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.RedisAddr != "" {
		if c.ChatRateLimit <= 0 || c.ChatRateWindow <= 0 {
			return errors.New("CHAT_RATE_LIMIT and CHAT_RATE_WINDOW must be positive")
		}
		if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
			return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
