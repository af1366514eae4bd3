// Package config loads runtime configuration for the authboot client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config, or $AUTHBOOT_CONFIG.
//  3. Secrets from the environment: AUTHBOOT_API_KEY,
//     AUTHBOOT_SESSION_PASSPHRASE, AUTHBOOT_S3_SECRET_KEY.
//  4. Command-line flags (see parseFlags), which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so "30s" and 30000000000 are equivalent:
//
//	{
//	  "auth_url": "https://project.supabase.co",
//	  "profiles_dsn": "postgres://app:secret@db:5432/app",
//	  "session_db_path": "authboot.db",
//	  "sign_in_timeout": "30s",
//	  "sign_up_timeout": "15s",
//	  "session_timeout": "10s",
//	  "max_retries": 2,
//	  "retry_backoff": "1s",
//	  "online_check_interval": "3s",
//	  "s3_bucket": "avatars",
//	  "s3_base_endpoint": "https://project.supabase.co/storage/v1/s3"
//	}
//
// Call (*Config).Validate after loading.
package config
