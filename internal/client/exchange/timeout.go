package exchange

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authboot/internal/common"
)

type outcome[T any] struct {
	value T
	err   error
}

// WithTimeout runs op and waits at most d for it to settle.
//
// If op finishes first its value and error are returned unchanged. If d
// elapses first a *common.TimeoutError is returned and op's eventual result
// is discarded. Cancelling ctx ends the wait with ctx.Err(). d must be
// positive.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return zero, common.ErrInvalidTimeout
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so a late op never blocks on send
	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(opCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return zero, &common.TimeoutError{After: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
