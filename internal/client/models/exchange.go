package models

import "time"

type Operation string

const (
	OperationSignIn Operation = "sign_in"
	OperationSignUp Operation = "sign_up"
)

// ExchangeAttempt describes one iteration of the retry loop. It lives only
// in memory and is discarded when the attempt settles.
type ExchangeAttempt struct {
	ID        string
	Operation Operation
	Number    int
	Deadline  time.Time
}
