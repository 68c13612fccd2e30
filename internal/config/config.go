// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"talentgrid/backend/internal/region"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DirectoryDatabaseURL is the Postgres DSN of the global directory database.
	DirectoryDatabaseURL string `mapstructure:"DIRECTORY_DATABASE_URL"`
	// RegionDatabaseURLs maps region codes to their Postgres DSNs, in the form
	// "IND1=dsn;USA1=dsn;DEU1=dsn". Every supported region must be present.
	RegionDatabaseURLs string `mapstructure:"REGION_DATABASE_URLS"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// Token lifetimes, as Go durations. CI environments use very short
	// signup and TFA windows to exercise expiry.
	SignupTokenTTL     string `mapstructure:"SIGNUP_TOKEN_TTL"`
	TFATokenTTL        string `mapstructure:"TFA_TOKEN_TTL"`
	SessionTTL         string `mapstructure:"SESSION_TTL"`
	RememberSessionTTL string `mapstructure:"REMEMBER_SESSION_TTL"`
	PasswordResetTTL   string `mapstructure:"PASSWORD_RESET_TTL"`
	EmailChangeTTL     string `mapstructure:"EMAIL_CHANGE_TTL"`

	// SweepInterval is how often the worker deletes expired token rows.
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`

	// Outbound mail. When SMTPHost is empty, messages go to the log instead
	// of a relay; that mode is refused when APP_ENV=production.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	// MailBaseURL is the public base URL the emailed links point at.
	MailBaseURL string `mapstructure:"MAIL_BASE_URL"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. localhost:4317).
	// Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DIRECTORY_DATABASE_URL", "")
	v.SetDefault("REGION_DATABASE_URLS", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNUP_TOKEN_TTL", "24h")
	v.SetDefault("TFA_TOKEN_TTL", "10m")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REMEMBER_SESSION_TTL", "720h") // 30d
	v.SetDefault("PASSWORD_RESET_TTL", "1h")
	v.SetDefault("EMAIL_CHANGE_TTL", "24h")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@talentgrid.example")
	v.SetDefault("MAIL_BASE_URL", "http://localhost:8080")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.SMTPHost == "" && cfg.Env == "production" {
		return nil, errors.New("config: SMTP_HOST must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// RegionURLs parses RegionDatabaseURLs into a per-region DSN map. Every
// supported region must be present; unknown region codes are an error.
func (c *Config) RegionURLs() (map[region.Region]string, error) {
	out := make(map[region.Region]string)
	for _, part := range strings.Split(c.RegionDatabaseURLs, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, dsn, ok := strings.Cut(part, "=")
		if !ok || dsn == "" {
			return nil, fmt.Errorf("config: malformed REGION_DATABASE_URLS entry %q", part)
		}
		rg, err := region.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("config: REGION_DATABASE_URLS: %w", err)
		}
		out[rg] = dsn
	}
	for _, rg := range region.All {
		if out[rg] == "" {
			return nil, fmt.Errorf("config: REGION_DATABASE_URLS missing region %s", rg)
		}
	}
	return out, nil
}

func ttl(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// SignupTTL parses SignupTokenTTL. Returns 24h if unset or invalid.
func (c *Config) SignupTTL() time.Duration { return ttl(c.SignupTokenTTL, 24*time.Hour) }

// TFATTL parses TFATokenTTL. Returns 10m if unset or invalid.
func (c *Config) TFATTL() time.Duration { return ttl(c.TFATokenTTL, 10*time.Minute) }

// SessionTokenTTL parses SessionTTL. Returns 24h if unset or invalid.
func (c *Config) SessionTokenTTL() time.Duration { return ttl(c.SessionTTL, 24*time.Hour) }

// RememberTTL parses RememberSessionTTL. Returns 720h if unset or invalid.
func (c *Config) RememberTTL() time.Duration { return ttl(c.RememberSessionTTL, 720*time.Hour) }

// ResetTTL parses PasswordResetTTL. Returns 1h if unset or invalid.
func (c *Config) ResetTTL() time.Duration { return ttl(c.PasswordResetTTL, time.Hour) }

// EmailChangeTokenTTL parses EmailChangeTTL. Returns 24h if unset or invalid.
func (c *Config) EmailChangeTokenTTL() time.Duration { return ttl(c.EmailChangeTTL, 24*time.Hour) }

// SweepEvery parses SweepInterval. Returns 1h if unset or invalid.
func (c *Config) SweepEvery() time.Duration { return ttl(c.SweepInterval, time.Hour) }
