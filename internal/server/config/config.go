// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfig marks an unusable configuration.
var ErrConfig = errors.New("invalid configuration")

// Config holds runtime settings for the portfolio server.
//
// Fields:
//   - HTTPAddr: bind address for the JSON API.
//   - DatabaseDriver / DatabaseDSN: "postgres" (pgx) or "sqlite" (modernc) and its DSN.
//   - AccessSecret / RefreshSecret: distinct HMAC keys for the two token types.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes.
//   - StoreTimeout / NotifyTimeout: per-call deadlines for the store and mail delivery.
//   - SMTP*: outbound mail; an empty SMTPHost selects the logging notifier.
//   - AdminEmail: inbox that receives a copy of every new work request.
//   - RedisURL / LoginMaxAttempts / LoginWindow: failed-login throttling, off without RedisURL.
type Config struct {
	HTTPAddr       string
	DatabaseDriver string
	DatabaseDSN    string

	AccessSecret      string
	RefreshSecret     string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	AccessCookieName  string
	RefreshCookieName string
	SecureCookies     bool

	StoreTimeout  time.Duration
	NotifyTimeout time.Duration

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPImplicitTLS bool
	AdminEmail      string

	RedisURL         string
	LoginMaxAttempts int64
	LoginWindow      time.Duration

	MetricsEnabled bool
	LogLevel       string
}

// LoadDefaults populates Config with development defaults. Secrets are left
// empty on purpose so that Validate rejects an unconfigured server.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:portfolio.db"
	c.AccessTokenTTL = 15 * time.Minute
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.AccessCookieName = "access_token"
	c.RefreshCookieName = "refresh_token"
	c.SecureCookies = true
	c.StoreTimeout = 5 * time.Second
	c.NotifyTimeout = 10 * time.Second
	c.SMTPPort = 587
	c.LoginMaxAttempts = 5
	c.LoginWindow = 15 * time.Minute
	c.MetricsEnabled = true
	c.LogLevel = "info"
}

// Validate reports ErrConfig when the server cannot run safely with c.
func (c *Config) Validate() error {
	switch {
	case c.AccessSecret == "" || c.RefreshSecret == "":
		return fmt.Errorf("%w: access and refresh secrets are required", ErrConfig)
	case c.AccessSecret == c.RefreshSecret:
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrConfig)
	case c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0:
		return fmt.Errorf("%w: token lifetimes must be positive", ErrConfig)
	case c.RefreshTokenTTL <= c.AccessTokenTTL:
		return fmt.Errorf("%w: refresh lifetime must exceed access lifetime", ErrConfig)
	case c.AccessCookieName == "" || c.RefreshCookieName == "" || c.AccessCookieName == c.RefreshCookieName:
		return fmt.Errorf("%w: cookie names must be set and distinct", ErrConfig)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database dsn is required", ErrConfig)
	case c.StoreTimeout <= 0 || c.NotifyTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrConfig)
	case c.SMTPHost != "" && c.SMTPFrom == "":
		return fmt.Errorf("%w: smtp sender address is required", ErrConfig)
	case c.RedisURL != "" && (c.LoginMaxAttempts <= 0 || c.LoginWindow <= 0):
		return fmt.Errorf("%w: login throttle limits must be positive", ErrConfig)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
