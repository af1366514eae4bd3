package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/authboot/internal/client/bootstrap"
	"github.com/dmitrijs2005/authboot/internal/client/client"
	"github.com/dmitrijs2005/authboot/internal/client/config"
	"github.com/dmitrijs2005/authboot/internal/client/exchange"
	"github.com/dmitrijs2005/authboot/internal/client/metrics"
	"github.com/dmitrijs2005/authboot/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/authboot/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/authboot/internal/client/services"
	"github.com/dmitrijs2005/authboot/internal/client/storage"
	"github.com/dmitrijs2005/authboot/internal/clock"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/filex"
	"github.com/dmitrijs2005/authboot/internal/logging"
	"github.com/dmitrijs2005/authboot/internal/netx"
	"github.com/prometheus/client_golang/prometheus"
)

// NewApp builds the application from cfg. Databases are opened and migrated
// here; App.Close releases them.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{
		config: cfg,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var rec metrics.Recorder = metrics.Nop{}
	if reg != nil {
		rec = metrics.NewCollector(reg)
	}
	c := clock.Real{}

	var store client.SessionStore
	if cfg.SessionDBPath != "" {
		path, err := filex.EnsureParentDir(cfg.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		db, err := sessions.OpenDB(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		a.closers = append(a.closers, func() { db.Close() })
		store = sessions.NewSQLiteStore(db, []byte(cfg.SessionPassphrase), log)
	}

	provider := client.NewGoTrueClient(cfg.AuthURL, cfg.APIKey, store, log, c)
	a.closers = append(a.closers, func() { provider.Close() })

	var repo profiles.Repository
	if cfg.ProfilesDSN != "" {
		db, err := profiles.OpenPostgres(ctx, cfg.ProfilesDSN)
		if err != nil {
			return nil, fmt.Errorf("open profile store: %w", err)
		}
		a.closers = append(a.closers, func() { db.Close() })
		repo = profiles.NewPostgresRepository(db)
	} else {
		log.Warn(ctx, "no profiles DSN configured, profiles are kept in memory")
		repo = profiles.NewMemoryRepository()
	}

	var avatars services.AvatarUploader
	if cfg.AvatarsEnabled() {
		avatars = storage.NewAvatarStore(storage.Config{
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
		}, log)
	}

	a.profiles = services.NewProfileService(repo, avatars, log, rec, c)

	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set(common.APIKeyHeaderName, cfg.APIKey)
	}
	checker := netx.NewHTTPChecker(client.HealthURL(cfg.AuthURL), header, netx.DefaultProbeTimeout)

	a.auth = services.NewAuthService(
		provider,
		exchange.NewExchanger(provider, log, rec, c),
		checker,
		policiesFrom(cfg),
		log,
	)

	a.session = bootstrap.New(provider, a.profiles, cfg.SessionTimeout, log, rec)

	ok = true
	return a, nil
}

func policiesFrom(cfg *config.Config) services.Policies {
	return services.Policies{
		SignIn: exchange.Policy{
			Timeout:     cfg.SignInTimeout,
			MaxRetries:  cfg.MaxRetries,
			Backoff:     cfg.RetryBackoff,
			Exponential: cfg.ExponentialBackoff,
		},
		SignUp: exchange.Policy{
			Timeout:     cfg.SignUpTimeout,
			MaxRetries:  cfg.MaxRetries,
			Backoff:     cfg.RetryBackoff,
			Exponential: cfg.ExponentialBackoff,
		},
	}
}
