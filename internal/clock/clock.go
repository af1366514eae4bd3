// Package clock abstracts wall-clock reads so timestamps and token expiry
// checks can be driven deterministically in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}
