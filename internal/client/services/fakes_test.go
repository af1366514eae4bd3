package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/authboot/internal/client/client"
	"github.com/dmitrijs2005/authboot/internal/client/metrics"
	"github.com/dmitrijs2005/authboot/internal/client/models"
)

type fakeProvider struct {
	signInCalls  atomic.Int32
	signUpCalls  atomic.Int32
	signOutCalls atomic.Int32

	signInErr  error
	signUpErr  error
	pingErr    error
	lastCreds  models.Credentials
	lastMeta   map[string]any
	userForAny models.UserIdentity
}

func (f *fakeProvider) SignIn(_ context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.signInCalls.Add(1)
	f.lastCreds = creds
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	s := &models.Session{User: f.userForAny, AccessToken: "acc"}
	return &models.AuthResult{User: f.userForAny, Session: s}, nil
}

func (f *fakeProvider) SignUp(_ context.Context, creds models.Credentials, meta map[string]any) (*models.AuthResult, error) {
	f.signUpCalls.Add(1)
	f.lastCreds = creds
	f.lastMeta = meta
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.AuthResult{User: f.userForAny}, nil
}

func (f *fakeProvider) GetSession(context.Context) (*models.Session, error) { return nil, nil }

func (f *fakeProvider) OnAuthStateChange(func(models.AuthEvent)) client.Subscription {
	return client.NewHub[models.AuthEvent]().Subscribe(func(models.AuthEvent) {})
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.signOutCalls.Add(1)
	return nil
}

func (f *fakeProvider) Ping(context.Context) error { return f.pingErr }

func (f *fakeProvider) Close() error { return nil }

type fakeChecker struct {
	err   error
	calls atomic.Int32
}

func (c *fakeChecker) Check(context.Context) error {
	c.calls.Add(1)
	return c.err
}

type provisionRecorder struct {
	metrics.Nop
	mu       sync.Mutex
	outcomes []string
}

func (r *provisionRecorder) RecordProvision(outcome string) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func (r *provisionRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

type fakeUploader struct {
	url  string
	err  error
	last string
}

func (u *fakeUploader) Upload(_ context.Context, userID string, _ []byte, contentType string) (string, error) {
	u.last = userID + " " + contentType
	return u.url, u.err
}
