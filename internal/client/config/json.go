package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authboot/internal/flagx"
	"github.com/dmitrijs2005/authboot/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be written as "3s" or integer nanoseconds.
// Absent keys leave the current value alone.
type JsonConfig struct {
	AuthURL             string          `json:"auth_url"`
	APIKey              string          `json:"api_key"`
	ProfilesDSN         string          `json:"profiles_dsn"`
	SessionDBPath       string          `json:"session_db_path"`
	SessionPassphrase   string          `json:"session_passphrase"`
	SignInTimeout       *timex.Duration `json:"sign_in_timeout"`
	SignUpTimeout       *timex.Duration `json:"sign_up_timeout"`
	SessionTimeout      *timex.Duration `json:"session_timeout"`
	MaxRetries          *uint64         `json:"max_retries"`
	RetryBackoff        *timex.Duration `json:"retry_backoff"`
	ExponentialBackoff  *bool           `json:"exponential_backoff"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	S3Region            string          `json:"s3_region"`
	S3AccessKey         string          `json:"s3_access_key"`
	S3SecretKey         string          `json:"s3_secret_key"`
	S3BaseEndpoint      string          `json:"s3_base_endpoint"`
	S3Bucket            string          `json:"s3_bucket"`
	S3PublicBaseURL     string          `json:"s3_public_base_url"`
	LogLevel            string          `json:"log_level"`
	MetricsAddr         string          `json:"metrics_addr"`
}

// parseJson overlays cfg with the JSON file named by -c/-config in args (or
// $AUTHBOOT_CONFIG). It panics on read or decode errors.
func parseJson(cfg *Config, args []string) {
	jsonConfigFile := flagx.ConfigPath(args)
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.AuthURL, jc.AuthURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.ProfilesDSN, jc.ProfilesDSN)
	setString(&cfg.SessionDBPath, jc.SessionDBPath)
	setString(&cfg.SessionPassphrase, jc.SessionPassphrase)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)

	if jc.SignInTimeout != nil {
		cfg.SignInTimeout = jc.SignInTimeout.Duration
	}
	if jc.SignUpTimeout != nil {
		cfg.SignUpTimeout = jc.SignUpTimeout.Duration
	}
	if jc.SessionTimeout != nil {
		cfg.SessionTimeout = jc.SessionTimeout.Duration
	}
	if jc.RetryBackoff != nil {
		cfg.RetryBackoff = jc.RetryBackoff.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.ExponentialBackoff != nil {
		cfg.ExponentialBackoff = *jc.ExponentialBackoff
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
