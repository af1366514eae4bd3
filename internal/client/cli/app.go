package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/bootstrap"
	"github.com/dmitrijs2005/authboot/internal/client/client"
	"github.com/dmitrijs2005/authboot/internal/client/config"
	"github.com/dmitrijs2005/authboot/internal/client/services"
	"github.com/dmitrijs2005/authboot/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	pingTimeout = 3 * time.Second
	stateWait   = 5 * time.Second
)

// sessionState is the part of the bootstrap orchestrator the shell uses.
type sessionState interface {
	Start(ctx context.Context) bootstrap.Snapshot
	Snapshot() bootstrap.Snapshot
	Subscribe(fn func(bootstrap.Snapshot)) client.Subscription
	SignOut(ctx context.Context) error
	Close()
}

type App struct {
	config   *config.Config
	auth     services.AuthService
	profiles services.ProfileService
	session  sessionState
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	mu        sync.Mutex
	mode      Mode
	announced bool
	lastUser  string

	closers []func()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// Mode returns the last observed connectivity mode.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().State == bootstrap.StateAuthenticated
}

func (a *App) getStatus() string {
	s := ""
	snap := a.session.Snapshot()
	if snap.State == bootstrap.StateAuthenticated {
		s = displayName(snap) + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func displayName(snap bootstrap.Snapshot) string {
	if snap.Profile != nil {
		return "@" + snap.Profile.Username
	}
	if snap.Session != nil {
		return snap.Session.User.Email
	}
	return ""
}

// StartOnlineStatusWatcher pings the auth service every interval and flips
// the connectivity mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	check := func() {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := a.auth.Ping(ctx)
		cancel()

		if err != nil {
			a.setMode(ModeOffline)
		} else {
			a.setMode(ModeOnline)
		}
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}

// onStateChange announces sign-in and sign-out. Token refreshes for the
// same user stay quiet.
func (a *App) onStateChange(snap bootstrap.Snapshot) {
	a.mu.Lock()
	var msg string
	switch snap.State {
	case bootstrap.StateAuthenticated:
		id := snap.Session.User.ID
		if id != a.lastUser {
			msg = "Signed in as " + displayName(snap)
		}
		a.lastUser = id
	case bootstrap.StateUnauthenticated:
		if a.lastUser != "" {
			msg = "Signed out."
		} else if !a.announced {
			msg = "Not signed in. Use 'signin' or 'signup'."
		}
		a.lastUser = ""
	}
	a.announced = true
	a.mu.Unlock()

	if msg != "" {
		printlnFn(msg)
	}
}

// awaitState waits until the session reaches want, so the next prompt
// reflects the command that just ran.
func (a *App) awaitState(ctx context.Context, want bootstrap.State) bool {
	reached := make(chan struct{}, 1)
	sub := a.session.Subscribe(func(s bootstrap.Snapshot) {
		if s.State == want {
			select {
			case reached <- struct{}{}:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	if a.session.Snapshot().State == want {
		return true
	}

	timer := time.NewTimer(stateWait)
	defer timer.Stop()

	select {
	case <-reached:
		return true
	case <-timer.C:
		a.log.Warn(ctx, "auth state change not observed", "want", string(want))
		return false
	case <-ctx.Done():
		return false
	}
}

// Close releases everything NewApp opened.
func (a *App) Close() {
	if a.session != nil {
		a.session.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
