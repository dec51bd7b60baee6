// Package common defines shared constants and sentinel errors used across
// the somtik client layers. Callers should use errors.Is / errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Validation errors, caught before any network call.
	ErrValidation   = errors.New("validation error")
	ErrMalformedOTP = errors.New("verification code must be exactly 6 digits")

	// Sign-up / sign-in flow errors.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrSignUpRejected         = errors.New("sign up rejected")
	ErrInvalidCredentials     = errors.New("invalid login credentials")
	ErrSignInRejected         = errors.New("sign in rejected")
	ErrSignOutFailed          = errors.New("sign out failed")

	// State errors (operation attempted without required prior state).
	ErrMissingRegistrationState = errors.New("missing registration state")

	// OTP verification outcomes. Expired/Invalid are a best-effort
	// classification of backend responses, see backend.classifyVerifyError.
	ErrOTPExpired  = errors.New("verification code expired")
	ErrOTPInvalid  = errors.New("invalid verification code")
	ErrOTPRejected = errors.New("verification rejected")

	// Row-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Profile store errors.
	ErrProfileNotLoaded = errors.New("profile not loaded")

	ErrUnauthorized = errors.New("unauthorized")
)

// ThrottledError reports that a resend was attempted while the cooldown is
// still running, either client-side or enforced by the backend rate limiter.
// SecondsRemaining is zero when the backend throttled us without saying for
// how long.
type ThrottledError struct {
	SecondsRemaining int
}

func (e *ThrottledError) Error() string {
	if e.SecondsRemaining > 0 {
		return fmt.Sprintf("resend throttled, retry in %ds", e.SecondsRemaining)
	}
	return "resend throttled"
}
