package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/bootstrap"
	"github.com/dmitrijs2005/authboot/internal/client/client"
	"github.com/dmitrijs2005/authboot/internal/client/config"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/logging"
)

type fakeSession struct {
	mu      sync.Mutex
	snap    bootstrap.Snapshot
	hub     *client.Hub[bootstrap.Snapshot]
	started int
	closed  int
	outErr  error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		snap: bootstrap.Snapshot{State: bootstrap.StateLoading},
		hub:  client.NewHub[bootstrap.Snapshot](),
	}
}

func (f *fakeSession) set(snap bootstrap.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
	f.hub.Publish(snap)
}

func (f *fakeSession) signIn(user models.UserIdentity, p *models.Profile) {
	f.set(bootstrap.Snapshot{
		State:   bootstrap.StateAuthenticated,
		Session: &models.Session{User: user, AccessToken: "at", Expiry: time.Now().Add(time.Hour)},
		Profile: p,
	})
}

func (f *fakeSession) Start(ctx context.Context) bootstrap.Snapshot {
	f.mu.Lock()
	f.started++
	if f.snap.State == bootstrap.StateLoading {
		f.snap = bootstrap.Snapshot{State: bootstrap.StateUnauthenticated}
	}
	snap := f.snap
	f.mu.Unlock()
	f.hub.Publish(snap)
	return snap
}

func (f *fakeSession) Snapshot() bootstrap.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) Subscribe(fn func(bootstrap.Snapshot)) client.Subscription {
	return f.hub.Subscribe(fn)
}

func (f *fakeSession) SignOut(ctx context.Context) error {
	if f.outErr != nil {
		return f.outErr
	}
	f.set(bootstrap.Snapshot{State: bootstrap.StateUnauthenticated})
	return nil
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	f.hub.Close()
}

type fakeAuth struct {
	mu      sync.Mutex
	signIn  func(models.Credentials) (*models.AuthResult, error)
	signUp  func(models.SignUpForm) (*models.AuthResult, error)
	pingErr error
	pings   int
}

func (f *fakeAuth) SignIn(_ context.Context, creds models.Credentials) (*models.AuthResult, error) {
	return f.signIn(creds)
}

func (f *fakeAuth) SignUp(_ context.Context, form models.SignUpForm) (*models.AuthResult, error) {
	return f.signUp(form)
}

func (f *fakeAuth) SignOut(context.Context) error { return nil }

func (f *fakeAuth) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeAuth) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

type fakeProfiles struct {
	byID    map[string]*models.Profile
	ensured int
	getErr  error
	updErr  error
	avatar  *models.AvatarUpload
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: map[string]*models.Profile{}}
}

func (f *fakeProfiles) EnsureProfile(ctx context.Context, userID, emailHint string) *models.Profile {
	return f.EnsureProfileFor(ctx, models.UserIdentity{ID: userID, Email: emailHint})
}

func (f *fakeProfiles) EnsureProfileFor(_ context.Context, user models.UserIdentity) *models.Profile {
	f.ensured++
	p, ok := f.byID[user.ID]
	if !ok {
		p = &models.Profile{ID: user.ID, Username: "user" + user.ID, DisplayName: "User"}
		f.byID[user.ID] = p
	}
	return p
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, userID string, upd models.ProfileUpdate) (*models.Profile, error) {
	if f.updErr != nil {
		return nil, f.updErr
	}
	p := f.byID[userID]
	if upd.DisplayName != nil {
		p.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		if *upd.Bio == "" {
			p.Bio = nil
		} else {
			b := *upd.Bio
			p.Bio = &b
		}
	}
	return p, nil
}

func (f *fakeProfiles) SetAvatar(_ context.Context, userID string, upload models.AvatarUpload) (*models.Profile, error) {
	if f.updErr != nil {
		return nil, f.updErr
	}
	f.avatar = &upload
	p := f.byID[userID]
	url := "https://cdn.example.com/avatars/" + userID
	p.AvatarURL = &url
	return p, nil
}

// newTestApp builds an App over fakes reading commands from input.
func newTestApp(input string) (*App, *fakeSession, *fakeAuth, *fakeProfiles) {
	sess := newFakeSession()
	auth := &fakeAuth{}
	prof := newFakeProfiles()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	a := &App{
		config:   cfg,
		auth:     auth,
		profiles: prof,
		session:  sess,
		log:      logging.Discard(),
		reader:   bufio.NewReader(strings.NewReader(input)),
		out:      io.Discard,
	}
	return a, sess, auth, prof
}

// captureOutput redirects printlnFn for the duration of the test.
func captureOutput(t *testing.T) *outputLog {
	t.Helper()
	o := &outputLog{}
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.lines = append(o.lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return o
}

type outputLog struct {
	mu    sync.Mutex
	lines []string
}

func (o *outputLog) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.lines...)
}

func (o *outputLog) String() string {
	return strings.Join(o.Lines(), "\n")
}

// stubPrompts replaces the interactive input seams with scripted answers.
func stubPrompts(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origText, origPw, origMulti := getSimpleText, getPassword, getMultiline

	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getMultiline = getSimpleText
	getPassword = func(_ io.Writer, prompt string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		s := passwords[0]
		passwords = passwords[1:]
		return []byte(s), nil
	}

	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline = origText, origPw, origMulti
	})
}
