// Package client talks to the hosted auth provider.
//
// # Overview
//
// The package provides:
//  1. The AuthProvider contract used by the exchange, services and
//     bootstrap layers: SignIn, SignUp, GetSession, OnAuthStateChange,
//     SignOut and Ping.
//  2. GoTrueClient, an AuthProvider over the GoTrue REST API. It persists
//     the session through a SessionStore, refreshes expired tokens and
//     publishes every state change to its subscribers.
//  3. Hub, a small generic fan-out used for auth events and for bootstrap
//     snapshots.
//
// # Error Handling
//
// Provider responses are mapped to the sentinels in package common, so
// callers match them with errors.Is: ErrInvalidCredentials,
// ErrEmailNotConfirmed, ErrAlreadyRegistered, ErrWeakPassword,
// ErrUnavailable and ErrProvider.
//
// All operations accept context.Context and honor cancellation.
package client
