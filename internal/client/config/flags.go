package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/authboot/internal/flagx"
)

var knownFlags = []string{"-u", "-k", "-d", "-s", "-r", "-b", "-e", "-t", "-i", "-l", "-m"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-u string    auth service base URL
//	-k string    project API key
//	-d string    Postgres DSN of the profile store
//	-s string    local session database file
//	-r uint      retries after a timed-out exchange
//	-b duration  delay between retries
//	-e           exponential backoff between retries
//	-t duration  session lookup timeout at startup
//	-i int       online check interval (in seconds)
//	-l string    log level (debug, info, warn, error)
//	-m string    address for the /metrics listener
//
// Only these flags are considered (flagx.FilterArgs); anything else on the
// command line belongs to another loader. Parse errors panic.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.AuthURL, "u", cfg.AuthURL, "auth service base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "project API key")
	fs.StringVar(&cfg.ProfilesDSN, "d", cfg.ProfilesDSN, "Postgres DSN of the profile store")
	fs.StringVar(&cfg.SessionDBPath, "s", cfg.SessionDBPath, "local session database file")
	fs.Uint64Var(&cfg.MaxRetries, "r", cfg.MaxRetries, "retries after a timed-out exchange")
	fs.DurationVar(&cfg.RetryBackoff, "b", cfg.RetryBackoff, "delay between retries")
	fs.BoolVar(&cfg.ExponentialBackoff, "e", cfg.ExponentialBackoff, "exponential backoff between retries")
	fs.DurationVar(&cfg.SessionTimeout, "t", cfg.SessionTimeout, "session lookup timeout at startup")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
