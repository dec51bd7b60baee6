// Package services contains the application services of the somtik client.
// This file defines the auth flow controller: a state machine over
// sign-up, OTP verification, sign-in, sign-out, and OTP resend.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somtik/somtik-client/internal/client/backend"
	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/client/session"
	"github.com/somtik/somtik-client/internal/common"
	"github.com/somtik/somtik-client/internal/logging"
)

// State is the auth flow controller's current position.
type State string

const (
	StateAnonymous           State = "anonymous"
	StatePendingVerification State = "pending_verification"
	StateAuthenticated       State = "authenticated"
)

// AuthService drives the authentication flow.
//
// Contract:
//   - SignUp: Anonymous -> PendingVerification; caches credentials and arms
//     the resend cooldown. The backend mails an OTP out-of-band.
//   - VerifyOTP: PendingVerification -> Authenticated; signs in with the
//     cached password and seeds the profile row (best effort).
//   - ResendOTP: requests a fresh code, gated by the cooldown.
//   - SignIn / SignOut: direct credential transitions.
//
// All methods honor context cancellation through the backend client.
type AuthService interface {
	SignUp(ctx context.Context, email, password, username string) error
	VerifyOTP(ctx context.Context, code string) (*models.Session, error)
	ResendOTP(ctx context.Context) error
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error

	State() State
	PendingEmail() string
	// ResendCooldown returns whole seconds until resend is allowed, 0 when
	// it already is.
	ResendCooldown() int
}

type authService struct {
	client   backend.Client
	sessions *session.Store
	logger   logging.Logger
	validate *validator.Validate
	cooldown time.Duration
	now      func() time.Time

	mu            sync.Mutex
	pending       *models.PendingCredentials
	resendReadyAt time.Time
}

// NewAuthService constructs an AuthService bound to the given backend
// client and session store. cooldown is the minimum wait between OTP
// resend requests.
func NewAuthService(client backend.Client, sessions *session.Store, cooldown time.Duration, logger logging.Logger) AuthService {
	return &authService{
		client:   client,
		sessions: sessions,
		logger:   logger,
		validate: validator.New(),
		cooldown: cooldown,
		now:      time.Now,
	}
}

type signUpInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Username string `validate:"required,min=3,max=24"`
}

type signInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (a *authService) State() State {
	if a.sessions.Current() != nil {
		return StateAuthenticated
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		return StatePendingVerification
	}
	return StateAnonymous
}

func (a *authService) PendingEmail() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return ""
	}
	return a.pending.Email
}

func (a *authService) ResendCooldown() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.secondsUntilResendLocked()
}

func (a *authService) secondsUntilResendLocked() int {
	left := a.resendReadyAt.Sub(a.now())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// SignUp registers a new account and moves the flow to
// PendingVerification. The pre-signup email check is a UX hint only: a
// lookup failure never blocks sign-up, the authoritative guarantee is the
// backend's unique constraint.
func (a *authService) SignUp(ctx context.Context, email, password, username string) error {
	in := signUpInput{Email: email, Password: password, Username: username}
	if err := a.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	if _, err := a.client.SelectProfileByEmail(ctx, email); err == nil {
		return common.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, common.ErrNotFound) {
		a.logger.Warn(ctx, "pre-signup email check failed, proceeding", "error", err)
	}

	if err := a.client.SignUp(ctx, email, password, username); err != nil {
		a.clearPending()
		return fmt.Errorf("%w: %w", common.ErrSignUpRejected, err)
	}

	a.mu.Lock()
	a.pending = &models.PendingCredentials{Email: email, Password: password, Username: username}
	a.resendReadyAt = a.now().Add(a.cooldown)
	a.mu.Unlock()

	a.logger.Info(ctx, "sign up accepted, verification pending", "email", email)
	return nil
}

// VerifyOTP confirms the pending registration. On acceptance it signs in
// with the cached password explicitly: the verification call alone does
// not guarantee an active session in every backend configuration. Profile
// row creation failure is logged, not fatal; the row is created lazily on
// first profile read.
func (a *authService) VerifyOTP(ctx context.Context, code string) (*models.Session, error) {
	a.mu.Lock()
	pending := a.pending
	a.mu.Unlock()

	if pending == nil {
		// Reaching here means a screen let the user verify without a
		// prior sign-up in this process: a UI-flow bug.
		a.logger.Error(ctx, "verification attempted without pending registration")
		return nil, common.ErrMissingRegistrationState
	}

	if !common.IsValidOTP(code) {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, common.ErrMalformedOTP)
	}

	if _, err := a.client.VerifyOTP(ctx, pending.Email, code); err != nil {
		return nil, err
	}

	sess, err := a.client.SignInWithPassword(ctx, pending.Email, pending.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in after verification: %w", err)
	}

	profile := models.NewDefaultProfile(sess.UserID, pending.Email, pending.Username)
	if _, err := a.client.InsertProfile(ctx, profile); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// The server-side trigger won the race. Nothing to do.
			a.logger.Debug(ctx, "profile row already created", "user_id", sess.UserID)
		} else {
			a.logger.Warn(ctx, "profile creation failed, will retry on first read",
				"user_id", sess.UserID, "error", err)
		}
	}

	a.clearPending()
	a.logger.Info(ctx, "email verified", "user_id", sess.UserID)
	return sess, nil
}

// ResendOTP requests a fresh verification code. While the cooldown is
// running it fails with *common.ThrottledError carrying the remaining
// seconds, and the cooldown is not reset.
func (a *authService) ResendOTP(ctx context.Context) error {
	a.mu.Lock()
	pending := a.pending
	left := a.secondsUntilResendLocked()
	a.mu.Unlock()

	if pending == nil {
		a.logger.Error(ctx, "resend attempted without pending registration")
		return common.ErrMissingRegistrationState
	}
	if left > 0 {
		return &common.ThrottledError{SecondsRemaining: left}
	}

	if err := a.client.ResendSignUpOTP(ctx, pending.Email); err != nil {
		return err
	}

	a.mu.Lock()
	a.resendReadyAt = a.now().Add(a.cooldown)
	a.mu.Unlock()
	return nil
}

// SignIn performs a direct credential sign-in. A credential rejection is
// an expected user-facing outcome and is never logged at error severity.
func (a *authService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	in := signInInput{Email: email, Password: password}
	if err := a.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	sess, err := a.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			a.logger.Debug(ctx, "sign in declined", "email", email)
			return nil, err
		}
		a.logger.Error(ctx, "sign in failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrSignInRejected, err)
	}
	return sess, nil
}

// SignOut revokes the current session. On backend failure the session is
// left intact: no optimistic clearing.
func (a *authService) SignOut(ctx context.Context) error {
	if err := a.client.SignOut(ctx); err != nil {
		a.logger.Error(ctx, "sign out failed", "error", err)
		return fmt.Errorf("%w: %w", common.ErrSignOutFailed, err)
	}
	return nil
}

func (a *authService) clearPending() {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
}
