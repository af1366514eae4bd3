package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/services"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", &common.TimeoutError{After: time.Second}, "The server took too long to respond. Please try again."},
		{"invalid credentials", fmt.Errorf("sign in: %w", common.ErrInvalidCredentials), "Incorrect email or password."},
		{"email not confirmed", common.ErrEmailNotConfirmed, "Please confirm your email address before signing in."},
		{"already registered", common.ErrAlreadyRegistered, "This email is already registered. Try signing in instead."},
		{"weak password", common.ErrWeakPassword, "Password is too weak: at least 6 characters required."},
		{"weak password from provider", fmt.Errorf("%w: Password should contain a digit.", common.ErrWeakPassword), "Password is too weak: Password should contain a digit."},
		{"mismatch", common.ErrPasswordMismatch, "Passwords do not match."},
		{"validation", fmt.Errorf("%w: email is not a valid email", common.ErrValidation), "Invalid input: email is not a valid email."},
		{"validation bare", common.ErrValidation, "Invalid input: please check the form."},
		{"network", common.ErrNetworkUnavailable, "No network connection. Check your connection and try again."},
		{"unavailable", common.ErrUnavailable, "The sign-in service is unavailable right now. Please try again later."},
		{"unauthorized", fmt.Errorf("%w: Invalid API key", common.ErrorUnauthorized), "The sign-in service rejected this client. Check the configured API key."},
		{"invalid token", fmt.Errorf("%w: token is malformed", common.ErrInvalidToken), "Your session token is not valid. Please sign in again."},
		{"provider", common.ErrProvider, "The sign-in service sent an unexpected response."},
		{"avatars", services.ErrAvatarStorageDisabled, "Avatar uploads are not configured."},
		{"not found", common.ErrorNotFound, "Profile not found."},
		{"deadline", fmt.Errorf("post /token: %w", context.DeadlineExceeded), "The operation ran out of time. Please try again."},
		{"cancelled", context.Canceled, "Cancelled."},
		{"other", errors.New("boom"), "Something went wrong: boom"},
	}

	seen := map[string]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			assert.Equal(t, tt.want, got)
			if prev, ok := seen[got]; ok {
				t.Errorf("%s and %s share the message %q", prev, tt.name, got)
			}
			seen[got] = tt.name
		})
	}

	assert.Equal(t, "", UserMessage(nil))
}
