package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/client/session"
	"github.com/somtik/somtik-client/internal/common"
	"github.com/somtik/somtik-client/internal/logging"
)

func newAuthFixture(t *testing.T, fake *fakeClient) (*authService, *session.Store) {
	t.Helper()
	store, err := session.NewStore(fake, logging.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	svc := NewAuthService(fake, store, 60*time.Second, logging.NopLogger{}).(*authService)
	return svc, store
}

func signedInSession() *models.Session {
	return &models.Session{
		UserID:         "5a0e0fd0-9173-4a60-90f1-8ebb0b1e0001",
		Email:          "a@x.com",
		EmailConfirmed: true,
		AccessToken:    "tok",
	}
}

// ---- SignUp ----

func TestSignUp_TransitionsToPendingVerification(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	require.Equal(t, StateAnonymous, svc.State())

	err := svc.SignUp(ctx, "a@x.com", "p1secret", "alice")
	require.NoError(t, err)

	require.Equal(t, StatePendingVerification, svc.State())
	require.Equal(t, "a@x.com", svc.PendingEmail())
	require.Equal(t, "a@x.com", fake.LastSignUpEmail)
	require.Equal(t, "p1secret", fake.LastSignUpPassword)
	require.Equal(t, "alice", fake.LastSignUpUsername)

	// cooldown armed at 60
	require.Equal(t, 60, svc.ResendCooldown())
}

func TestSignUp_ValidationFailsBeforeNetwork(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)

	tests := []struct {
		name                      string
		email, password, username string
	}{
		{"bad email", "not-an-email", "p1secret", "alice"},
		{"short password", "a@x.com", "p", "alice"},
		{"missing username", "a@x.com", "p1secret", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.SignUp(context.Background(), tc.email, tc.password, tc.username)
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
	require.Zero(t, fake.SignUpCalls)
	require.Equal(t, StateAnonymous, svc.State())
}

func TestSignUp_EmailAlreadyRegistered(t *testing.T) {
	fake := newFakeClient()
	fake.SelectByEmailRet = &models.Profile{ID: "u1", Email: "a@x.com"}
	fake.SelectByEmailErr = nil
	svc, _ := newAuthFixture(t, fake)

	err := svc.SignUp(context.Background(), "a@x.com", "p1secret", "alice")
	require.ErrorIs(t, err, common.ErrEmailAlreadyRegistered)
	require.Zero(t, fake.SignUpCalls)
}

func TestSignUp_PreCheckFailureDoesNotBlock(t *testing.T) {
	fake := newFakeClient()
	fake.SelectByEmailErr = errors.New("profiles table unreachable")
	svc, _ := newAuthFixture(t, fake)

	require.NoError(t, svc.SignUp(context.Background(), "a@x.com", "p1secret", "alice"))
	require.Equal(t, 1, fake.SignUpCalls)
}

func TestSignUp_BackendRejection(t *testing.T) {
	fake := newFakeClient()
	fake.SignUpErr = errors.New("signup disabled")
	svc, _ := newAuthFixture(t, fake)

	err := svc.SignUp(context.Background(), "a@x.com", "p1secret", "alice")
	require.ErrorIs(t, err, common.ErrSignUpRejected)
	require.ErrorContains(t, err, "signup disabled")
	require.Equal(t, StateAnonymous, svc.State())
}

// ---- VerifyOTP ----

func TestVerifyOTP_WithoutSignUp_FailsFastWithoutNetwork(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)

	_, err := svc.VerifyOTP(context.Background(), "123456")
	require.ErrorIs(t, err, common.ErrMissingRegistrationState)
	require.Zero(t, fake.VerifyCalls)
}

func TestVerifyOTP_RejectsMalformedCodeClientSide(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	for _, code := range []string{"", "12345", "1234567", "12e456"} {
		_, err := svc.VerifyOTP(ctx, code)
		require.ErrorIs(t, err, common.ErrMalformedOTP, "code %q", code)
	}
	require.Zero(t, fake.VerifyCalls)
	// credentials survive a rejected input
	require.Equal(t, StatePendingVerification, svc.State())
}

func TestVerifyOTP_HappyPath(t *testing.T) {
	fake := newFakeClient()
	fake.SignInRet = signedInSession()
	svc, store := newAuthFixture(t, fake)
	ctx := context.Background()

	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	sess, err := svc.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, fake.SignInRet.UserID, sess.UserID)

	require.Equal(t, "a@x.com", fake.LastVerifyEmail)
	require.Equal(t, "123456", fake.LastVerifyCode)

	// defensive sign-in with the cached password
	require.Equal(t, 1, fake.SignInCalls)
	require.Equal(t, "p1secret", fake.LastSignInPasword)

	// session store saw the new session
	require.Equal(t, StateAuthenticated, svc.State())
	require.Equal(t, sess.UserID, store.Current().UserID)

	// profile row seeded with the chosen username, counters zero
	p, ok := fake.profiles[sess.UserID]
	require.True(t, ok)
	require.Equal(t, "alice", p.Username)
	require.Zero(t, p.FollowersCount)

	// credentials-in-flight consumed exactly once
	_, err = svc.VerifyOTP(ctx, "123456")
	require.ErrorIs(t, err, common.ErrMissingRegistrationState)
}

func TestVerifyOTP_ProfileInsertFailureDoesNotFailTransition(t *testing.T) {
	fake := newFakeClient()
	fake.SignInRet = signedInSession()
	fake.InsertErr = errors.New("rls violation")
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	_, err := svc.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, svc.State())

	// credentials cleared regardless of the insert outcome
	require.Equal(t, "", svc.PendingEmail())
}

func TestVerifyOTP_BackendRejectionKeepsPendingState(t *testing.T) {
	fake := newFakeClient()
	fake.VerifyErr = common.ErrOTPInvalid
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	_, err := svc.VerifyOTP(ctx, "123456")
	require.ErrorIs(t, err, common.ErrOTPInvalid)
	require.Equal(t, StatePendingVerification, svc.State())
}

// ---- ResendOTP ----

func TestResendOTP_ThrottledWhileCooldownRuns(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	// 5 seconds in: throttled with ~55s remaining, cooldown untouched
	svc.now = func() time.Time { return base.Add(5 * time.Second) }

	err := svc.ResendOTP(ctx)
	var throttled *common.ThrottledError
	require.ErrorAs(t, err, &throttled)
	require.Equal(t, 55, throttled.SecondsRemaining)
	require.Zero(t, fake.ResendCalls)
	require.Equal(t, 55, svc.ResendCooldown())
}

func TestResendOTP_SucceedsAtZeroAndResetsTo60(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	svc.now = func() time.Time { return base.Add(60 * time.Second) }
	require.Zero(t, svc.ResendCooldown())

	require.NoError(t, svc.ResendOTP(ctx))
	require.Equal(t, 1, fake.ResendCalls)
	require.Equal(t, "a@x.com", fake.LastResendEmail)
	require.Equal(t, 60, svc.ResendCooldown())
}

func TestResendOTP_WithoutSignUp(t *testing.T) {
	fake := newFakeClient()
	svc, _ := newAuthFixture(t, fake)

	err := svc.ResendOTP(context.Background())
	require.ErrorIs(t, err, common.ErrMissingRegistrationState)
	require.Zero(t, fake.ResendCalls)
}

func TestResendOTP_BackendRateLimitPassesThrough(t *testing.T) {
	fake := newFakeClient()
	fake.ResendErr = &common.ThrottledError{}
	svc, _ := newAuthFixture(t, fake)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.SignUp(ctx, "a@x.com", "p1secret", "alice"))

	svc.now = func() time.Time { return base.Add(time.Minute) }

	err := svc.ResendOTP(ctx)
	var throttled *common.ThrottledError
	require.ErrorAs(t, err, &throttled)
}

// ---- SignIn / SignOut ----

func TestSignIn_Succeeds(t *testing.T) {
	fake := newFakeClient()
	fake.SignInRet = signedInSession()
	svc, store := newAuthFixture(t, fake)

	sess, err := svc.SignIn(context.Background(), "a@x.com", "p1secret")
	require.NoError(t, err)
	require.Equal(t, fake.SignInRet.UserID, sess.UserID)
	require.Equal(t, StateAuthenticated, svc.State())
	require.NotNil(t, store.Current())
}

func TestSignIn_InvalidCredentialsPassedThroughUnwrapped(t *testing.T) {
	fake := newFakeClient()
	fake.SignInErr = common.ErrInvalidCredentials
	svc, _ := newAuthFixture(t, fake)

	_, err := svc.SignIn(context.Background(), "a@x.com", "wrong1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	require.NotErrorIs(t, err, common.ErrSignInRejected)
}

func TestSignIn_OtherBackendErrorsWrapped(t *testing.T) {
	fake := newFakeClient()
	fake.SignInErr = errors.New("service unavailable")
	svc, _ := newAuthFixture(t, fake)

	_, err := svc.SignIn(context.Background(), "a@x.com", "p1secret")
	require.ErrorIs(t, err, common.ErrSignInRejected)
}

func TestSignOut_FailureLeavesSessionIntact(t *testing.T) {
	fake := newFakeClient()
	fake.SignInRet = signedInSession()
	svc, store := newAuthFixture(t, fake)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "a@x.com", "p1secret")
	require.NoError(t, err)

	fake.SignOutErr = errors.New("backend down")
	err = svc.SignOut(ctx)
	require.ErrorIs(t, err, common.ErrSignOutFailed)
	require.NotNil(t, store.Current())
	require.Equal(t, StateAuthenticated, svc.State())
}

func TestSignOut_Succeeds(t *testing.T) {
	fake := newFakeClient()
	fake.SignInRet = signedInSession()
	svc, store := newAuthFixture(t, fake)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "a@x.com", "p1secret")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx))
	require.Nil(t, store.Current())
	require.Equal(t, StateAnonymous, svc.State())
}
