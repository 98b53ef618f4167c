package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/flagx"
	"github.com/dmitrijs2005/portfolio/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Absent keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr       *string `json:"http_addr"`
	DatabaseDriver *string `json:"database_driver"`
	DatabaseDSN    *string `json:"database_dsn"`

	AccessSecret      *string         `json:"access_secret"`
	RefreshSecret     *string         `json:"refresh_secret"`
	AccessTokenTTL    *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL   *timex.Duration `json:"refresh_token_ttl"`
	AccessCookieName  *string         `json:"access_cookie_name"`
	RefreshCookieName *string         `json:"refresh_cookie_name"`
	SecureCookies     *bool           `json:"secure_cookies"`

	StoreTimeout  *timex.Duration `json:"store_timeout"`
	NotifyTimeout *timex.Duration `json:"notify_timeout"`

	SMTPHost        *string `json:"smtp_host"`
	SMTPPort        *int    `json:"smtp_port"`
	SMTPUsername    *string `json:"smtp_username"`
	SMTPPassword    *string `json:"smtp_password"`
	SMTPFrom        *string `json:"smtp_from"`
	SMTPImplicitTLS *bool   `json:"smtp_implicit_tls"`
	AdminEmail      *string `json:"admin_email"`

	RedisURL         *string         `json:"redis_url"`
	LoginMaxAttempts *int64          `json:"login_max_attempts"`
	LoginWindow      *timex.Duration `json:"login_window"`

	MetricsEnabled *bool   `json:"metrics_enabled"`
	LogLevel       *string `json:"log_level"`
}

// parseJSON loads the file named by -c/-config, if any, into config.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.DatabaseDriver, c.DatabaseDriver)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.AccessSecret, c.AccessSecret)
	set(&config.RefreshSecret, c.RefreshSecret)
	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setDuration(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	set(&config.AccessCookieName, c.AccessCookieName)
	set(&config.RefreshCookieName, c.RefreshCookieName)
	set(&config.SecureCookies, c.SecureCookies)
	setDuration(&config.StoreTimeout, c.StoreTimeout)
	setDuration(&config.NotifyTimeout, c.NotifyTimeout)
	set(&config.SMTPHost, c.SMTPHost)
	set(&config.SMTPPort, c.SMTPPort)
	set(&config.SMTPUsername, c.SMTPUsername)
	set(&config.SMTPPassword, c.SMTPPassword)
	set(&config.SMTPFrom, c.SMTPFrom)
	set(&config.SMTPImplicitTLS, c.SMTPImplicitTLS)
	set(&config.AdminEmail, c.AdminEmail)
	set(&config.RedisURL, c.RedisURL)
	set(&config.LoginMaxAttempts, c.LoginMaxAttempts)
	setDuration(&config.LoginWindow, c.LoginWindow)
	set(&config.MetricsEnabled, c.MetricsEnabled)
	set(&config.LogLevel, c.LogLevel)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
