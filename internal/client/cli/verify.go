package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/somtik/somtik-client/internal/client/services"
	"github.com/somtik/somtik-client/internal/common"
)

// Verify prompts for the emailed 6-digit code and completes the pending
// registration. Obviously malformed codes are rejected before any network
// call; on success the profile is created and loaded.
func (a *App) Verify(ctx context.Context) error {
	raw, err := getSimpleText(a.reader, fmt.Sprintf("Enter the 6-digit code sent to %s", a.auth.PendingEmail()), os.Stdout)
	if err != nil {
		return err
	}

	code := common.NormalizeOTP(raw)

	sess, err := a.auth.VerifyOTP(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrMalformedOTP):
			printlnFn("The code must be exactly 6 digits.")
		case errors.Is(err, common.ErrOTPExpired):
			printlnFn("That code has expired. Type 'resend' to request a new one.")
		case errors.Is(err, common.ErrOTPInvalid):
			printlnFn("That code is not right. Check your email and try again.")
		case errors.Is(err, common.ErrMissingRegistrationState):
			printlnFn("There is no registration in progress. Type 'signup' first.")
		default:
			printlnFn("Verification failed:", err)
		}
		return err
	}

	if _, err := a.profiles.EnsureProfile(ctx, sess); err != nil {
		a.logger.Warn(ctx, "profile load failed after verification", "user_id", sess.UserID, "error", err)
	}

	printlnFn("Email verified. Welcome to somtik!")
	return nil
}

// Resend requests a fresh verification code, honoring the cooldown.
func (a *App) Resend(ctx context.Context) error {
	err := a.auth.ResendOTP(ctx)
	if err != nil {
		var throttled *common.ThrottledError
		switch {
		case errors.As(err, &throttled):
			if throttled.SecondsRemaining > 0 {
				printfFn("Please wait %d more seconds before requesting a new code.\n", throttled.SecondsRemaining)
			} else {
				printlnFn("Too many requests, please wait a bit before trying again.")
			}
		case errors.Is(err, common.ErrMissingRegistrationState):
			printlnFn("There is no registration in progress. Type 'signup' first.")
		default:
			printlnFn("Could not resend the code:", err)
		}
		return err
	}

	printfFn("A new code is on its way to %s.\n", a.auth.PendingEmail())
	return nil
}

// StartResendCooldownWatcher ticks once a second while a verification is
// pending and announces when the resend cooldown has elapsed. It returns
// when ctx is cancelled.
func (a *App) StartResendCooldownWatcher(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	armed := false
	for {
		select {
		case <-ticker.C:
			if a.auth.State() != services.StatePendingVerification {
				armed = false
				continue
			}
			left := a.auth.ResendCooldown()
			if left > 0 {
				armed = true
				continue
			}
			if armed {
				armed = false
				printlnFn("You can request a new verification code now (type 'resend').")
			}

		case <-ctx.Done():
			return
		}
	}
}
