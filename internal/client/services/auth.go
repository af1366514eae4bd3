// Package services contains the application services of the client: the
// authentication front door and profile provisioning.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authboot/internal/client/client"
	"github.com/dmitrijs2005/authboot/internal/client/exchange"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/logging"
	"github.com/dmitrijs2005/authboot/internal/netx"
	"github.com/go-playground/validator/v10"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - SignIn/SignUp: validate input locally, check connectivity, then run a
//     retrying credential exchange.
//   - SignOut: revoke the current session.
//   - Ping: check provider liveness.
//
// Local failures (ErrValidation, ErrWeakPassword, ErrPasswordMismatch,
// ErrNetworkUnavailable) never reach the provider.
type AuthService interface {
	SignIn(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	SignUp(ctx context.Context, form models.SignUpForm) (*models.AuthResult, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Policies are the exchange policies per operation.
type Policies struct {
	SignIn exchange.Policy
	SignUp exchange.Policy
}

func DefaultPolicies() Policies {
	return Policies{SignIn: exchange.SignInPolicy(), SignUp: exchange.SignUpPolicy()}
}

type authService struct {
	provider  client.AuthProvider
	exchanger *exchange.Exchanger
	checker   netx.Checker
	policies  Policies
	validate  *validator.Validate
	log       logging.Logger
}

// NewAuthService wires an AuthService. A nil checker assumes the network is
// always reachable.
func NewAuthService(provider client.AuthProvider, exchanger *exchange.Exchanger, checker netx.Checker, p Policies, log logging.Logger) AuthService {
	if checker == nil {
		checker = netx.AlwaysOnline{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &authService{
		provider:  provider,
		exchanger: exchanger,
		checker:   checker,
		policies:  p,
		validate:  validator.New(),
		log:       log.With("module", "auth"),
	}
}

func (a *authService) SignIn(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	creds = creds.Normalize()
	if err := a.validate.Struct(creds); err != nil {
		return nil, validationError(err)
	}

	if err := a.online(ctx); err != nil {
		return nil, err
	}

	return a.exchanger.Exchange(ctx, models.OperationSignIn, creds, nil, a.policies.SignIn)
}

func (a *authService) SignUp(ctx context.Context, form models.SignUpForm) (*models.AuthResult, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Username = strings.TrimSpace(form.Username)
	form.DisplayName = strings.TrimSpace(form.DisplayName)

	if err := a.validate.Struct(form); err != nil {
		return nil, validationError(err)
	}
	if form.Password != form.ConfirmPassword {
		return nil, common.ErrPasswordMismatch
	}
	if len([]rune(form.Password)) < common.MinPasswordLength {
		return nil, fmt.Errorf("%w: at least %d characters required", common.ErrWeakPassword, common.MinPasswordLength)
	}

	if err := a.online(ctx); err != nil {
		return nil, err
	}

	creds := models.Credentials{Email: form.Email, Password: form.Password}
	return a.exchanger.Exchange(ctx, models.OperationSignUp, creds, form.Metadata(), a.policies.SignUp)
}

func (a *authService) SignOut(ctx context.Context) error {
	return a.provider.SignOut(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.provider.Ping(ctx)
}

func (a *authService) online(ctx context.Context) error {
	if err := a.checker.Check(ctx); err != nil {
		a.log.Warn(ctx, "auth service unreachable", "error", err)
		if errors.Is(err, common.ErrNetworkUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrNetworkUnavailable, err)
	}
	return nil
}

// validationError names the first offending field.
func validationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return fmt.Errorf("%w: %s is %s", common.ErrValidation, strings.ToLower(fe.Field()), describeTag(fe.Tag()))
	}
	return fmt.Errorf("%w: %w", common.ErrValidation, err)
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "not a valid email address"
	case "max":
		return "too long"
	default:
		return "invalid"
	}
}
