package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the authboot client.
type Config struct {
	AuthURL string `validate:"required,url"`
	APIKey  string

	// ProfilesDSN is a Postgres DSN; empty keeps profiles in memory.
	ProfilesDSN string

	// SessionDBPath is the local SQLite file holding the sealed session;
	// empty keeps the session in memory only.
	SessionDBPath     string
	SessionPassphrase string `validate:"required_with=SessionDBPath"`

	SignInTimeout      time.Duration `validate:"gt=0"`
	SignUpTimeout      time.Duration `validate:"gt=0"`
	SessionTimeout     time.Duration `validate:"gt=0"`
	MaxRetries         uint64        `validate:"lte=10"`
	RetryBackoff       time.Duration `validate:"gt=0"`
	ExponentialBackoff bool

	OnlineCheckInterval time.Duration `validate:"gt=0"`

	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3BaseEndpoint  string `validate:"required_with=S3Bucket"`
	S3Bucket        string
	S3PublicBaseURL string `validate:"omitempty,url"`

	LogLevel    string `validate:"oneof=debug info warn error"`
	MetricsAddr string
}

// Environment variables for secrets that should not appear on the command
// line.
const (
	EnvAPIKey            = "AUTHBOOT_API_KEY"
	EnvSessionPassphrase = "AUTHBOOT_SESSION_PASSPHRASE"
	EnvS3SecretKey       = "AUTHBOOT_S3_SECRET_KEY"
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.AuthURL = "http://127.0.0.1:54321"
	c.SignInTimeout = 30 * time.Second
	c.SignUpTimeout = 15 * time.Second
	c.SessionTimeout = 10 * time.Second
	c.MaxRetries = 2
	c.RetryBackoff = 1 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// AvatarsEnabled reports whether avatar uploads are configured.
func (c *Config) AvatarsEnabled() bool {
	return c.S3Bucket != ""
}

// Validate checks the combined configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), secrets from the environment and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseEnv(cfg)
	parseFlags(cfg, os.Args[1:])
	return cfg
}

func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvSessionPassphrase); ok {
		cfg.SessionPassphrase = v
	}
	if v, ok := os.LookupEnv(EnvS3SecretKey); ok {
		cfg.S3SecretKey = v
	}
}
