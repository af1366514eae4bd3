// Package common defines shared constants and sentinel errors used across
// the authboot client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Timeout race errors.
	ErrTimeout        = errors.New("operation timed out")
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// Credential exchange errors reported by the auth provider.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password too weak")
	ErrProvider           = errors.New("auth provider error")

	// Local validation errors, raised before any network call.
	ErrValidation       = errors.New("validation error")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// Connectivity errors.
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrUnavailable        = errors.New("server unavailable")

	// Profile provisioning failure. EnsureProfile logs it instead of
	// returning it.
	ErrProfileProvision = errors.New("profile provisioning failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
