// internal/config/config.go
//
// Environment configuration for the board server.
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQL    = "sql"
	StoreMemory = "memory"
)

// Config is the full server configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Store string `env:"STORE" envDefault:"sql"`

	// The store DSN may arrive under any of these names; see DatabaseURL.
	DatabaseURLPrimary string `env:"DATABASE_URL"`
	NeonDatabaseURL    string `env:"NEON_DATABASE_URL"`
	NetlifyDatabaseURL string `env:"NETLIFY_DATABASE_URL"`

	AdminCode     string `env:"ADMIN_CODE"`
	AdminCodeHash string `env:"ADMIN_CODE_HASH"`

	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"*"`
	BoardID        string        `env:"BOARD_ID" envDefault:"default"`
	BoardName      string        `env:"BOARD_NAME"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

// DatabaseURL returns the first non-empty DSN alias.
func (c Config) DatabaseURL() string {
	for _, v := range []string{c.DatabaseURLPrimary, c.NeonDatabaseURL, c.NetlifyDatabaseURL} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Load reads .env (if any) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case StoreSQL, StoreMemory:
	default:
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StoreSQL, StoreMemory, cfg.Store)
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}
