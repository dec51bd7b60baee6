// Package cli provides the interactive somtik command-line client.
//
// It wires configuration, local session storage, the backend API client,
// and an interactive REPL. Typical flow: restore any persisted session,
// load the profile, and execute user commands.
//
// Key features:
//   - Sign up with email verification (6-digit code, rate-limited resend)
//   - Login / Logout with persisted sessions across restarts
//   - Show, edit, and refresh the user profile
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartResendCooldownWatcher, and runREPL for details.
package cli
