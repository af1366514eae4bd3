// Package cli provides the interactive authboot shell.
//
// NewApp wires configuration, session persistence, the auth and profile
// services and the bootstrap orchestrator. App.Run resolves the stored
// session, starts a background connectivity watcher and serves REPL
// commands until the user exits.
//
// Commands:
//   - signin / signup / signout
//   - whoami, profile, edit, avatar <path>
//   - status, help, exit
//
// Errors are shown to the user through UserMessage; each failure kind has
// its own wording.
package cli
