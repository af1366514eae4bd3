package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/metrics"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/clock"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultBackoff    = 1 * time.Second
	maxBackoff        = 30 * time.Second
	defaultMaxRetries = 2
)

// Provider is the part of the auth provider the exchange talks to.
type Provider interface {
	SignIn(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	SignUp(ctx context.Context, creds models.Credentials, metadata map[string]any) (*models.AuthResult, error)
}

// Policy bounds one exchange. Attempts made are MaxRetries+1 at most.
type Policy struct {
	Timeout     time.Duration
	MaxRetries  uint64
	Backoff     time.Duration
	Exponential bool
}

func SignInPolicy() Policy {
	return Policy{Timeout: 30 * time.Second, MaxRetries: defaultMaxRetries, Backoff: DefaultBackoff}
}

func SignUpPolicy() Policy {
	return Policy{Timeout: 15 * time.Second, MaxRetries: defaultMaxRetries, Backoff: DefaultBackoff}
}

func (p Policy) backoff() retry.Backoff {
	base := p.Backoff
	if base <= 0 {
		base = DefaultBackoff
	}

	var b retry.Backoff
	if p.Exponential {
		b = retry.WithCappedDuration(maxBackoff, retry.NewExponential(base))
	} else {
		b = retry.NewConstant(base)
	}
	return retry.WithMaxRetries(p.MaxRetries, b)
}

// Exchanger performs sign-in and sign-up calls with timeout and retry.
// It is safe for concurrent use; each Exchange call owns its retry state.
type Exchanger struct {
	provider Provider
	log      logging.Logger
	metrics  metrics.Recorder
	clock    clock.Clock
}

func NewExchanger(provider Provider, log logging.Logger, m metrics.Recorder, c clock.Clock) *Exchanger {
	if log == nil {
		log = logging.Discard()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Exchanger{provider: provider, log: log.With("module", "exchange"), metrics: m, clock: c}
}

// Exchange runs op against the provider under policy p.
//
// Only timeouts are retried. Terminal errors (invalid credentials, already
// registered, weak password, email not confirmed, ...) are returned after a
// single call. When every attempt times out, the last *common.TimeoutError
// is returned.
func (e *Exchanger) Exchange(ctx context.Context, op models.Operation, creds models.Credentials, metadata map[string]any, p Policy) (*models.AuthResult, error) {
	if p.Timeout <= 0 {
		return nil, common.ErrInvalidTimeout
	}
	if op != models.OperationSignIn && op != models.OperationSignUp {
		return nil, fmt.Errorf("unknown operation %q", op)
	}

	log := e.log.With("op", string(op), "email", logging.MaskEmail(creds.Email))
	started := time.Now()
	defer func() {
		e.metrics.RecordExchangeLatency(string(op), time.Since(started))
	}()

	var (
		result *models.AuthResult
		number int
	)

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		number++
		attempt := models.ExchangeAttempt{
			ID:        uuid.NewString(),
			Operation: op,
			Number:    number,
			Deadline:  e.clock.Now().Add(p.Timeout),
		}
		e.metrics.RecordAttempt(string(op))
		log.Debug(ctx, "exchange attempt", "attempt_id", attempt.ID, "attempt", attempt.Number, "deadline", attempt.Deadline)

		res, err := WithTimeout(ctx, p.Timeout, func(ctx context.Context) (*models.AuthResult, error) {
			return e.call(ctx, op, creds, metadata)
		})
		if err != nil {
			if errors.Is(err, common.ErrTimeout) {
				e.metrics.RecordTimeout(string(op))
				log.Warn(ctx, "exchange attempt timed out", "attempt_id", attempt.ID, "attempt", attempt.Number, "timeout", p.Timeout)
				return retry.RetryableError(err)
			}
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrTimeout) {
			log.Error(ctx, "exchange gave up after timeouts", "attempts", number)
		} else {
			e.metrics.RecordTerminalError(string(op), ErrorKind(err))
			log.Info(ctx, "exchange failed", "attempts", number, "kind", ErrorKind(err))
		}
		return nil, err
	}

	log.Info(ctx, "exchange succeeded", "attempts", number, "user_id", result.User.ID)
	return result, nil
}

func (e *Exchanger) call(ctx context.Context, op models.Operation, creds models.Credentials, metadata map[string]any) (*models.AuthResult, error) {
	if op == models.OperationSignUp {
		return e.provider.SignUp(ctx, creds, metadata)
	}
	return e.provider.SignIn(ctx, creds)
}

// ErrorKind gives a short stable label for err, used in logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, common.ErrTimeout):
		return "timeout"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrEmailNotConfirmed):
		return "email_not_confirmed"
	case errors.Is(err, common.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, common.ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, common.ErrNetworkUnavailable):
		return "network_unavailable"
	case errors.Is(err, common.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
