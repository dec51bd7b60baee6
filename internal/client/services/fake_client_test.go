package services

import (
	"context"
	"sync"

	"github.com/somtik/somtik-client/internal/client/backend"
	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/common"
)

// fakeClient implements backend.Client for unit tests. Profile rows live
// in an in-memory map guarded by a mutex so concurrency tests exercise the
// real creation race. notFoundTimes makes the first N SelectProfile calls
// report no row regardless of map contents, emulating the window between
// sign-up and the server-side trigger.
type fakeClient struct {
	mu sync.Mutex

	SignUpErr          error
	SignUpCalls        int
	LastSignUpEmail    string
	LastSignUpPassword string
	LastSignUpUsername string

	VerifyErr       error
	VerifyRet       *models.Session
	VerifyCalls     int
	LastVerifyEmail string
	LastVerifyCode  string

	SignInErr         error
	SignInRet         *models.Session
	SignInCalls       int
	LastSignInEmail   string
	LastSignInPasword string

	SignOutErr   error
	SignOutCalls int

	ResendErr       error
	ResendCalls     int
	LastResendEmail string

	SelectByEmailRet *models.Profile
	SelectByEmailErr error

	profiles      map[string]models.Profile
	notFoundTimes int
	SelectErr     error
	InsertErr     error
	InsertCalls   int
	UpdateErr     error
	LastUpdateID  string
	LastPatch     models.ProfilePatch

	cb backend.AuthStateCallback
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		profiles:         map[string]models.Profile{},
		SelectByEmailErr: common.ErrNotFound,
	}
}

func (f *fakeClient) SignUp(ctx context.Context, email, password, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignUpCalls++
	f.LastSignUpEmail = email
	f.LastSignUpPassword = password
	f.LastSignUpUsername = username
	return f.SignUpErr
}

func (f *fakeClient) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VerifyCalls++
	f.LastVerifyEmail = email
	f.LastVerifyCode = code
	return f.VerifyRet, f.VerifyErr
}

func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	f.SignInCalls++
	f.LastSignInEmail = email
	f.LastSignInPasword = password
	ret, err := f.SignInRet, f.SignInErr
	cb := f.cb
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if cb != nil {
		cb(ret)
	}
	return ret, nil
}

func (f *fakeClient) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	err := f.SignOutErr
	cb := f.cb
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if cb != nil {
		cb(nil)
	}
	return nil
}

func (f *fakeClient) ResendSignUpOTP(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResendCalls++
	f.LastResendEmail = email
	return f.ResendErr
}

func (f *fakeClient) OnAuthStateChange(cb backend.AuthStateCallback) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	return func() {}, nil
}

func (f *fakeClient) RestoreSession(ctx context.Context) error {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
	return nil
}

func (f *fakeClient) SelectProfile(ctx context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SelectErr != nil {
		return nil, f.SelectErr
	}
	if f.notFoundTimes > 0 {
		f.notFoundTimes--
		return nil, common.ErrNotFound
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (f *fakeClient) SelectProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SelectByEmailRet, f.SelectByEmailErr
}

func (f *fakeClient) InsertProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertCalls++
	if f.InsertErr != nil {
		return nil, f.InsertErr
	}
	if _, exists := f.profiles[p.ID]; exists {
		return nil, common.ErrConflict
	}
	f.profiles[p.ID] = *p
	cp := *p
	return &cp, nil
}

func (f *fakeClient) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastUpdateID = userID
	f.LastPatch = patch
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	p = patch.Apply(p)
	f.profiles[userID] = p
	return &p, nil
}

func (f *fakeClient) Close() error { return nil }
