// Package config reads runtime settings for the activity board from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the board server settings read from environment variables,
// falling back to sensible local-development defaults.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// ActivitiesAPIURL is the base URL of the backend that owns /activities.
	ActivitiesAPIURL string `env:"ACTIVITIES_API_URL" envDefault:"http://localhost:8000"`
	// APITimeout bounds each backend call. Zero disables the bound.
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"0s"`

	// CSRFKey is a hex encoded 32 byte key. Empty disables CSRF protection.
	CSRFKey    string `env:"CSRF_KEY"`
	CSRFSecure bool   `env:"CSRF_SECURE" envDefault:"false"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	// SessionMaxBoards caps live visitor boards; the longest idle is evicted first.
	SessionMaxBoards    int           `env:"SESSION_MAX_BOARDS" envDefault:"10000"`
	SignupBannerTTL     time.Duration `env:"SIGNUP_BANNER_TTL" envDefault:"5s"`
	UnregisterBannerTTL time.Duration `env:"UNREGISTER_BANNER_TTL" envDefault:"4s"`
}

// Load parses the environment into a Config and validates it.
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

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	u, err := url.Parse(c.ActivitiesAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ACTIVITIES_API_URL must be an absolute URL, got %q", c.ActivitiesAPIURL)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("API_TIMEOUT must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SessionMaxBoards <= 0 {
		return fmt.Errorf("SESSION_MAX_BOARDS must be positive")
	}
	if c.SignupBannerTTL <= 0 || c.UnregisterBannerTTL <= 0 {
		return fmt.Errorf("banner TTLs must be positive")
	}
	if _, err := c.CSRFKeyBytes(); err != nil {
		return err
	}
	return nil
}

// CSRFKeyBytes decodes CSRFKey. It returns nil when no key is configured.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil {
		return nil, fmt.Errorf("CSRF_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
