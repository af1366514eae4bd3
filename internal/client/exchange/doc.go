// Package exchange implements the resilient credential exchange used by the
// authboot client.
//
// # Timeout race
//
// WithTimeout runs an operation against a hard deadline. Whichever settles
// first wins: the operation's own result, or a *common.TimeoutError. A result
// that arrives after the deadline is dropped. The operation's context is
// cancelled once the race is decided, but callers must not rely on the
// remote side honouring that.
//
// # Retrying exchange
//
// Exchanger applies WithTimeout to a single sign-in or sign-up call and
// retries only on timeouts, sleeping a fixed backoff between attempts
// (exponential when Policy.Exponential is set). Every other error is
// terminal and is returned after one call. Attempts run strictly one after
// another; after MaxRetries+1 timeouts the last TimeoutError is returned.
package exchange
