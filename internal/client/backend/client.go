// Package backend defines the hosted-platform collaborator consumed by the
// client core: auth operations, profile row access, auth-state
// notifications, and local session persistence. The platform itself (its
// schema, row-level security, and server-side triggers) is external; this
// package only speaks its API.
package backend

import (
	"context"

	"github.com/somtik/somtik-client/internal/client/models"
)

// AuthStateCallback receives the new session on every auth-state change.
// A nil session means signed out (or nothing to restore at startup).
type AuthStateCallback func(session *models.Session)

// Client is the backend collaborator contract.
//
// OnAuthStateChange must fire each registered callback at least once after
// RestoreSession, with the restored session or nil.
type Client interface {
	// SignUp registers a new user. The username travels as pending user
	// metadata; the platform dispatches an OTP email out-of-band.
	SignUp(ctx context.Context, email, password, username string) error

	// VerifyOTP submits a signup confirmation code. The returned session
	// may be nil: not every backend configuration issues one here, which
	// is why the flow controller signs in explicitly afterwards.
	VerifyOTP(ctx context.Context, email, code string) (*models.Session, error)

	// SignInWithPassword exchanges credentials for a session. Credential
	// rejections surface as common.ErrInvalidCredentials.
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignOut revokes the current session server-side and clears the
	// persisted one. On error the session is left intact.
	SignOut(ctx context.Context) error

	// ResendSignUpOTP requests a fresh confirmation email. Server-side
	// rate limiting surfaces as *common.ThrottledError.
	ResendSignUpOTP(ctx context.Context, email string) error

	// OnAuthStateChange registers cb and returns its unsubscribe func.
	OnAuthStateChange(cb AuthStateCallback) (func(), error)

	// RestoreSession loads the persisted session (if any) from local
	// storage and fires the auth-state callbacks with it, or with nil.
	RestoreSession(ctx context.Context) error

	// SelectProfile reads the profile row by user id;
	// common.ErrNotFound when no row exists.
	SelectProfile(ctx context.Context, userID string) (*models.Profile, error)

	// SelectProfileByEmail reads a profile row by email. Used only as the
	// best-effort pre-signup check.
	SelectProfileByEmail(ctx context.Context, email string) (*models.Profile, error)

	// InsertProfile creates the profile row. A unique-constraint
	// rejection on id surfaces as common.ErrConflict, distinguishable
	// from every other failure.
	InsertProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)

	// UpdateProfile applies a partial update to the row with the given id
	// and returns the updated row.
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)

	Close() error
}
