// Package bootstrap resolves who the user is when the client starts and
// keeps that answer current as auth notifications arrive.
//
// The orchestrator starts in StateLoading and moves to StateAuthenticated or
// StateUnauthenticated; it never returns to StateLoading. Startup fails
// closed: a session lookup that errors or times out is treated as signed
// out. Profile provisioning gets the same deadline; when it runs out the
// user is still authenticated, just without a profile.
package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/client"
	"github.com/dmitrijs2005/authboot/internal/client/exchange"
	"github.com/dmitrijs2005/authboot/internal/client/metrics"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/logging"
)

const DefaultSessionTimeout = 10 * time.Second

type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is what the UI renders. Profile may be nil while Authenticated
// when provisioning failed.
type Snapshot struct {
	State   State
	Session *models.Session
	Profile *models.Profile
}

// Provisioner makes sure a signed-in user has a profile.
type Provisioner interface {
	EnsureProfileFor(ctx context.Context, user models.UserIdentity) *models.Profile
}

type Orchestrator struct {
	provider       client.AuthProvider
	profiles       Provisioner
	sessionTimeout time.Duration
	metrics        metrics.Recorder
	log            logging.Logger
	observers      *client.Hub[Snapshot]

	// background work started by notifications stops when ctx is cancelled
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	snap     Snapshot
	gen      uint64
	started  bool
	closed   bool
	sub      client.Subscription
	resolved chan struct{}

	// keeps observer notifications in the order snapshots were applied
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// New creates an orchestrator in StateLoading. A sessionTimeout <= 0 uses
// DefaultSessionTimeout.
func New(provider client.AuthProvider, profiles Provisioner, sessionTimeout time.Duration, log logging.Logger, m metrics.Recorder) *Orchestrator {
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}
	if log == nil {
		log = logging.Discard()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		provider:       provider,
		profiles:       profiles,
		sessionTimeout: sessionTimeout,
		metrics:        m,
		log:            log.With("module", "bootstrap"),
		observers:      client.NewHub[Snapshot](),
		ctx:            ctx,
		cancel:         cancel,
		snap:           Snapshot{State: StateLoading},
		resolved:       make(chan struct{}),
	}
}

// Start subscribes to auth notifications, then looks up the current
// session. It returns once the state has left StateLoading or ctx is done.
// Calling Start again returns the current snapshot.
func (o *Orchestrator) Start(ctx context.Context) Snapshot {
	o.mu.Lock()
	if o.started || o.closed {
		o.mu.Unlock()
		return o.Snapshot()
	}
	o.started = true
	o.mu.Unlock()

	sub := o.provider.OnAuthStateChange(o.onAuthEvent)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		sub.Unsubscribe()
		return o.Snapshot()
	}
	o.sub = sub
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	session, err := exchange.WithTimeout(ctx, o.sessionTimeout, o.provider.GetSession)
	if err != nil {
		o.log.Warn(ctx, "session lookup failed, continuing signed out", "error", err)
		session = nil
	}
	o.apply(gen, o.resolve(ctx, session))

	select {
	case <-o.resolved:
	case <-ctx.Done():
	}
	return o.Snapshot()
}

// onAuthEvent runs on the provider's goroutine; the work is moved off it so
// a slow profile store never blocks sign-in or sign-out.
func (o *Orchestrator) onAuthEvent(ev models.AuthEvent) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.gen++
	gen := o.gen
	o.wg.Add(1)
	o.mu.Unlock()

	o.log.Debug(o.ctx, "auth notification", "kind", string(ev.Kind), "generation", gen)

	go func() {
		defer o.wg.Done()
		o.apply(gen, o.resolve(o.ctx, ev.Session))
	}()
}

func (o *Orchestrator) resolve(ctx context.Context, session *models.Session) Snapshot {
	if session == nil || session.User.ID == "" {
		return Snapshot{State: StateUnauthenticated}
	}
	profile, err := exchange.WithTimeout(ctx, o.sessionTimeout, func(ctx context.Context) (*models.Profile, error) {
		return o.profiles.EnsureProfileFor(ctx, session.User), nil
	})
	if err != nil {
		o.log.Warn(ctx, "profile provisioning did not finish, continuing without profile",
			"user_id", session.User.ID, "error", err)
		profile = nil
	}
	return Snapshot{State: StateAuthenticated, Session: session, Profile: profile}
}

// apply installs snap unless a newer notification has been seen since gen
// was taken.
func (o *Orchestrator) apply(gen uint64, snap Snapshot) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		o.log.Debug(o.ctx, "discarding superseded result", "generation", gen)
		return
	}
	o.snap = snap
	o.markResolved()
	o.mu.Unlock()

	o.metrics.RecordBootstrap(string(snap.State))
	o.log.Info(o.ctx, "auth state", "state", string(snap.State), "user_id", userID(snap))
	o.observers.Publish(snap)
}

// markResolved must be called with o.mu held.
func (o *Orchestrator) markResolved() {
	select {
	case <-o.resolved:
	default:
		close(o.resolved)
	}
}

func userID(s Snapshot) string {
	if s.Session == nil {
		return ""
	}
	return s.Session.User.ID
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Subscribe registers fn for every state change applied after this call.
// Callbacks are delivered one at a time, in order, and must not call Close.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) client.Subscription {
	return o.observers.Subscribe(fn)
}

// SignOut asks the provider to end the session. The state changes when the
// resulting notification is processed.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	return o.provider.SignOut(ctx)
}

// Close stops listening to the provider, drops observers and waits for
// in-flight notification work. It is safe to call more than once.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.markResolved()
	sub := o.sub
	o.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	o.cancel()
	o.wg.Wait()
	o.observers.Close()
}
