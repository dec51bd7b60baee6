package cli

import (
	"context"
	"errors"
	"os"

	"github.com/somtik/somtik-client/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// SignUp prompts for email, username and password and starts a new
// registration. On acceptance the backend mails a verification code and the
// flow moves to the pending-verification state.
//
// The password byte slice is securely wiped before returning.
func (a *App) SignUp(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.SignUp(ctx, email, string(password), username); err != nil {
		switch {
		case errors.Is(err, common.ErrEmailAlreadyRegistered):
			printlnFn("This email is already registered. Try 'login' instead.")
		case errors.Is(err, common.ErrValidation):
			printlnFn("Invalid input:", err)
		default:
			printlnFn("Sign up failed:", err)
		}
		return err
	}

	printfFn("Almost there! We sent a verification code to %s. Type 'verify' to enter it.\n", email)
	return nil
}

// Login prompts for credentials, signs in, and loads the user's profile.
// A credential rejection is reported to the user without detail beyond the
// fact of the rejection.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			printlnFn("Invalid email or password.")
		} else {
			printlnFn("Login failed:", err)
		}
		return err
	}

	if _, err := a.profiles.EnsureProfile(ctx, sess); err != nil {
		a.logger.Warn(ctx, "profile load failed after login", "user_id", sess.UserID, "error", err)
	}

	printlnFn("Welcome back!")
	return nil
}

// Logout revokes the session and drops the cached profile. On backend
// failure the session stays active.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		printlnFn("Logout failed, you are still signed in:", err)
		return err
	}
	a.profiles.Clear()
	printlnFn("Signed out.")
	return nil
}
