package common

import (
	"fmt"
	"time"
)

// TimeoutError reports that an operation did not settle within its deadline.
// It matches ErrTimeout under errors.Is and is never produced by the
// operation itself.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
