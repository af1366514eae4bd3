package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authboot/internal/client/services"
	"github.com/dmitrijs2005/authboot/internal/common"
)

// UserMessage turns an error from a command into the sentence shown to the
// user. Every known failure has its own wording.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrTimeout):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, common.ErrEmailNotConfirmed):
		return "Please confirm your email address before signing in."
	case errors.Is(err, common.ErrAlreadyRegistered):
		return "This email is already registered. Try signing in instead."
	case errors.Is(err, common.ErrWeakPassword):
		return "Password is too weak: " + weakReason(err) + "."
	case errors.Is(err, common.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + detail(err, common.ErrValidation) + "."
	case errors.Is(err, common.ErrNetworkUnavailable):
		return "No network connection. Check your connection and try again."
	case errors.Is(err, common.ErrUnavailable):
		return "The sign-in service is unavailable right now. Please try again later."
	case errors.Is(err, common.ErrorUnauthorized):
		return "The sign-in service rejected this client. Check the configured API key."
	case errors.Is(err, common.ErrInvalidToken):
		return "Your session token is not valid. Please sign in again."
	case errors.Is(err, common.ErrProvider):
		return "The sign-in service sent an unexpected response."
	case errors.Is(err, common.ErrProfileProvision):
		return "Your profile could not be set up. It will be retried on next sign-in."
	case errors.Is(err, services.ErrAvatarStorageDisabled):
		return "Avatar uploads are not configured."
	case errors.Is(err, common.ErrorNotFound):
		return "Profile not found."
	case errors.Is(err, context.DeadlineExceeded):
		return "The operation ran out of time. Please try again."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return "Something went wrong: " + err.Error()
	}
}

// weakReason keeps the provider's explanation when it gave one.
func weakReason(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrWeakPassword.Error())
	msg = strings.TrimRight(strings.TrimLeft(msg, ": "), ". ")
	if msg == "" {
		return fmt.Sprintf("at least %d characters required", common.MinPasswordLength)
	}
	return msg
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimLeft(msg, ": ")
	if msg == "" {
		return "please check the form"
	}
	return msg
}
