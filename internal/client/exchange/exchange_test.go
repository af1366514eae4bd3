package exchange

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts one behaviour per call. A nil step hangs until the
// attempt context is cancelled.
type fakeProvider struct {
	mu       sync.Mutex
	steps    []func() (*models.AuthResult, error)
	calls    atomic.Int32
	lastOp   models.Operation
	lastMeta map[string]any
	starts   []time.Time
}

func (f *fakeProvider) next(ctx context.Context, op models.Operation, meta map[string]any) (*models.AuthResult, error) {
	n := int(f.calls.Add(1))

	f.mu.Lock()
	f.lastOp = op
	f.lastMeta = meta
	f.starts = append(f.starts, time.Now())
	var step func() (*models.AuthResult, error)
	if n-1 < len(f.steps) {
		step = f.steps[n-1]
	} else if len(f.steps) > 0 {
		step = f.steps[len(f.steps)-1]
	}
	f.mu.Unlock()

	if step == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return step()
}

func (f *fakeProvider) SignIn(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	return f.next(ctx, models.OperationSignIn, nil)
}

func (f *fakeProvider) SignUp(ctx context.Context, creds models.Credentials, meta map[string]any) (*models.AuthResult, error) {
	return f.next(ctx, models.OperationSignUp, meta)
}

type countingRecorder struct {
	mu       sync.Mutex
	attempts int
	timeouts int
	terminal []string
}

func (r *countingRecorder) RecordAttempt(string) {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordTimeout(string) {
	r.mu.Lock()
	r.timeouts++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordTerminalError(_, kind string) {
	r.mu.Lock()
	r.terminal = append(r.terminal, kind)
	r.mu.Unlock()
}

func (r *countingRecorder) RecordExchangeLatency(string, time.Duration) {}
func (r *countingRecorder) RecordProvision(string) {}
func (r *countingRecorder) RecordBootstrap(string) {}

func okResult(id string) func() (*models.AuthResult, error) {
	return func() (*models.AuthResult, error) {
		return &models.AuthResult{
			User:    models.UserIdentity{ID: id, Email: "a@b.com"},
			Session: &models.Session{User: models.UserIdentity{ID: id}, AccessToken: "tok-" + id},
		}, nil
	}
}

func failWith(err error) func() (*models.AuthResult, error) {
	return func() (*models.AuthResult, error) { return nil, err }
}

var creds = models.Credentials{Email: "a@b.com", Password: "secret"}

func TestExchange_TimesOutTwiceThenSucceeds(t *testing.T) {
	if testing.Short() {
		t.Skip("uses real one-second timeouts")
	}
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){nil, nil, okResult("u-3")}}
	ex := NewExchanger(p, nil, nil, nil)

	start := time.Now()
	res, err := ex.Exchange(context.Background(), models.OperationSignIn, creds, nil,
		Policy{Timeout: 1000 * time.Millisecond, MaxRetries: 2, Backoff: time.Second})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "u-3", res.User.ID)
	assert.Equal(t, "tok-u-3", res.Session.AccessToken)
	assert.Equal(t, int32(3), p.calls.Load())
	assert.GreaterOrEqual(t, elapsed, 2000*time.Millisecond)
	assert.Less(t, elapsed, 5000*time.Millisecond)
}

func TestExchange_RetryBoundOnRepeatedTimeouts(t *testing.T) {
	for _, n := range []uint64{0, 1, 3} {
		p := &fakeProvider{steps: []func() (*models.AuthResult, error){nil}}
		rec := &countingRecorder{}
		ex := NewExchanger(p, nil, rec, nil)

		_, err := ex.Exchange(context.Background(), models.OperationSignIn, creds, nil,
			Policy{Timeout: 15 * time.Millisecond, MaxRetries: n, Backoff: 5 * time.Millisecond})

		var te *common.TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, int32(n+1), p.calls.Load(), "maxRetries=%d", n)
		assert.Equal(t, int(n+1), rec.attempts)
		assert.Equal(t, int(n+1), rec.timeouts)
		assert.Empty(t, rec.terminal)
	}
}

func TestExchange_TerminalErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		op   models.Operation
		err  error
		kind string
	}{
		{"invalid credentials", models.OperationSignIn, common.ErrInvalidCredentials, "invalid_credentials"},
		{"email not confirmed", models.OperationSignIn, common.ErrEmailNotConfirmed, "email_not_confirmed"},
		{"already registered", models.OperationSignUp, common.ErrAlreadyRegistered, "already_registered"},
		{"weak password", models.OperationSignUp, common.ErrWeakPassword, "weak_password"},
		{"transport", models.OperationSignIn, common.ErrUnavailable, "unavailable"},
		{"anything else", models.OperationSignIn, errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{steps: []func() (*models.AuthResult, error){failWith(tt.err)}}
			rec := &countingRecorder{}
			ex := NewExchanger(p, nil, rec, nil)

			_, err := ex.Exchange(context.Background(), tt.op, creds, nil,
				Policy{Timeout: time.Second, MaxRetries: 2, Backoff: time.Second})

			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, int32(1), p.calls.Load())
			assert.Equal(t, []string{tt.kind}, rec.terminal)
		})
	}
}

func TestExchange_SignUpAlreadyRegistered(t *testing.T) {
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){failWith(common.ErrAlreadyRegistered)}}
	ex := NewExchanger(p, nil, nil, nil)

	start := time.Now()
	_, err := ex.Exchange(context.Background(), models.OperationSignUp,
		models.Credentials{Email: "dup@x.com", Password: "123456"}, nil, SignUpPolicy())

	require.ErrorIs(t, err, common.ErrAlreadyRegistered)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Less(t, time.Since(start), 500*time.Millisecond, "terminal errors return without backoff")
}

func TestExchange_TimeoutThenTerminalStops(t *testing.T) {
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){nil, failWith(common.ErrInvalidCredentials), okResult("never")}}
	ex := NewExchanger(p, nil, nil, nil)

	_, err := ex.Exchange(context.Background(), models.OperationSignIn, creds, nil,
		Policy{Timeout: 15 * time.Millisecond, MaxRetries: 5, Backoff: 5 * time.Millisecond})

	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestExchange_PassesSignUpMetadata(t *testing.T) {
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){okResult("u-1")}}
	ex := NewExchanger(p, nil, nil, nil)

	meta := map[string]any{"username": "jane", "display_name": "Jane"}
	_, err := ex.Exchange(context.Background(), models.OperationSignUp, creds, meta, SignUpPolicy())
	require.NoError(t, err)

	assert.Equal(t, models.OperationSignUp, p.lastOp)
	assert.Equal(t, meta, p.lastMeta)
}

func TestExchange_AttemptsAreSequentialWithBackoff(t *testing.T) {
	const (
		timeout = 20 * time.Millisecond
		backoff = 30 * time.Millisecond
	)
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){nil, nil, okResult("u")}}
	ex := NewExchanger(p, nil, nil, nil)

	_, err := ex.Exchange(context.Background(), models.OperationSignIn, creds, nil,
		Policy{Timeout: timeout, MaxRetries: 2, Backoff: backoff})
	require.NoError(t, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.starts, 3)
	for i := 1; i < len(p.starts); i++ {
		assert.GreaterOrEqual(t, p.starts[i].Sub(p.starts[i-1]), timeout+backoff)
	}
}

func TestExchange_ExponentialBackoff(t *testing.T) {
	const base = 20 * time.Millisecond
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){failWith(&common.TimeoutError{After: time.Millisecond})}}
	ex := NewExchanger(p, nil, nil, nil)

	start := time.Now()
	_, err := ex.Exchange(context.Background(), models.OperationSignIn, creds, nil,
		Policy{Timeout: time.Second, MaxRetries: 2, Backoff: base, Exponential: true})

	require.ErrorIs(t, err, common.ErrTimeout)
	assert.Equal(t, int32(3), p.calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), base+2*base)
}

func TestExchange_InvalidPolicy(t *testing.T) {
	p := &fakeProvider{}
	ex := NewExchanger(p, nil, nil, nil)

	_, err := ex.Exchange(context.Background(), models.OperationSignIn, creds, nil, Policy{})
	require.ErrorIs(t, err, common.ErrInvalidTimeout)

	_, err = ex.Exchange(context.Background(), models.Operation("reset"), creds, nil, SignInPolicy())
	require.Error(t, err)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestExchange_ContextCancelledDuringBackoff(t *testing.T) {
	p := &fakeProvider{steps: []func() (*models.AuthResult, error){nil}}
	ex := NewExchanger(p, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(40 * time.Millisecond)
		cancel()
	}()

	_, err := ex.Exchange(ctx, models.OperationSignIn, creds, nil,
		Policy{Timeout: 10 * time.Millisecond, MaxRetries: 10, Backoff: time.Second})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "none", ErrorKind(nil))
	assert.Equal(t, "timeout", ErrorKind(&common.TimeoutError{}))
	assert.Equal(t, "network_unavailable", ErrorKind(common.ErrNetworkUnavailable))
	assert.Equal(t, "cancelled", ErrorKind(context.DeadlineExceeded))
}
