// Package models defines client-side data models shared by the exchange,
// provisioning and bootstrap layers.
package models

import (
	"strings"
	"time"
)

// Credentials are the email/password pair submitted by the user. They are
// held only for the duration of one exchange and never logged in full.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Normalize trims surrounding whitespace from the email.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.TrimSpace(c.Email)
	return c
}

// SignUpForm is what the user fills in to create an account.
type SignUpForm struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
	Username        string `validate:"required,max=32"`
	DisplayName     string `validate:"required,max=64"`
}

// Metadata returns the user metadata sent along with a sign-up request.
func (f SignUpForm) Metadata() map[string]any {
	return map[string]any{
		"username":     strings.ToLower(strings.TrimSpace(f.Username)),
		"display_name": strings.TrimSpace(f.DisplayName),
	}
}

// UserIdentity is issued by the auth provider and never mutated locally.
type UserIdentity struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// MetadataString returns the metadata value under key if it is a non-empty
// string.
func (u UserIdentity) MetadataString(key string) string {
	if u.Metadata == nil {
		return ""
	}
	s, _ := u.Metadata[key].(string)
	return strings.TrimSpace(s)
}

// Session is owned by the auth provider; the client only observes it.
type Session struct {
	User         UserIdentity `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Expiry       time.Time    `json:"expires_at"`
}

// expiryLeeway refreshes tokens slightly before they actually lapse.
const expiryLeeway = 30 * time.Second

// Expired reports whether the access token should no longer be used at now.
// A zero Expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.Expiry.IsZero() {
		return false
	}
	return !now.Add(expiryLeeway).Before(s.Expiry)
}

// AuthResult is the outcome of a successful credential exchange. Session is
// nil after a sign-up that still awaits email confirmation.
type AuthResult struct {
	User    UserIdentity
	Session *Session
}
