package client

import (
	"context"

	"github.com/dmitrijs2005/authboot/internal/client/models"
)

// AuthProvider is the contract the client needs from the hosted auth
// service.
//
// Contract:
//   - SignIn / SignUp: exchange credentials for an identity and, when the
//     account is confirmed, a session. Errors are mapped to the sentinels in
//     package common.
//   - GetSession: return the current session or nil when signed out.
//     Restores a persisted session and refreshes it when expired.
//   - OnAuthStateChange: deliver every sign-in, sign-out and refresh.
//   - SignOut: invalidate the session; subscribers observe the result.
//   - Ping: check that the service is reachable.
//
// All methods must honor context cancellation.
type AuthProvider interface {
	SignIn(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	SignUp(ctx context.Context, creds models.Credentials, metadata map[string]any) (*models.AuthResult, error)
	GetSession(ctx context.Context) (*models.Session, error)
	OnAuthStateChange(fn func(models.AuthEvent)) Subscription
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// SessionStore persists the current session between runs. Load returns
// (nil, nil) when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
