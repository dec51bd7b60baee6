package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/somtik/somtik-client/internal/client/backend"
	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/common"
	"github.com/somtik/somtik-client/internal/logging"
)

// ProfileService is the client-side cache of the signed-in user's profile
// row, populated lazily by whichever caller first needs it.
//
// EnsureProfile is safe to call redundantly and concurrently: duplicate
// insert attempts lose to the backend's unique constraint on id, and that
// rejection is treated as success (re-read and return the existing row).
type ProfileService interface {
	// EnsureProfile reads the profile row for the session's user,
	// creating a default one if no row exists yet.
	EnsureProfile(ctx context.Context, sess *models.Session) (*models.Profile, error)

	// Current returns the cached profile, or nil if none is loaded.
	Current() *models.Profile

	// UpdateProfile applies a partial update and optimistically merges it
	// into the cache. Counter freshness is not resolved here: re-fetch
	// with Refresh if it matters.
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error)

	// Refresh re-reads the row and replaces the cache.
	Refresh(ctx context.Context, userID string) (*models.Profile, error)

	// Clear drops the cached profile (on sign-out).
	Clear()
}

type profileService struct {
	client backend.Client
	logger logging.Logger

	mu      sync.RWMutex
	profile *models.Profile
}

func NewProfileService(client backend.Client, logger logging.Logger) ProfileService {
	return &profileService{client: client, logger: logger}
}

func (p *profileService) EnsureProfile(ctx context.Context, sess *models.Session) (*models.Profile, error) {
	if sess == nil {
		return nil, common.ErrUnauthorized
	}

	prof, err := p.client.SelectProfile(ctx, sess.UserID)
	if err == nil {
		p.setCache(prof)
		return prof, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	username := sess.PendingUsername
	if username == "" {
		username = common.EmailLocalPart(sess.Email)
	}

	inserted, err := p.client.InsertProfile(ctx, models.NewDefaultProfile(sess.UserID, sess.Email, username))
	if err == nil {
		p.setCache(inserted)
		return inserted, nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	// Lost the creation race (server trigger or a concurrent caller).
	// The row exists now; re-read it.
	p.logger.Debug(ctx, "profile insert conflicted, re-reading", "user_id", sess.UserID)
	prof, err = p.client.SelectProfile(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("re-read profile after conflict: %w", err)
	}
	p.setCache(prof)
	return prof, nil
}

func (p *profileService) Current() *models.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return nil
	}
	cp := *p.profile
	return &cp
}

func (p *profileService) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	p.mu.RLock()
	cached := p.profile
	p.mu.RUnlock()

	if cached == nil {
		return nil, common.ErrProfileNotLoaded
	}
	if patch.IsEmpty() {
		return p.Current(), nil
	}

	if _, err := p.client.UpdateProfile(ctx, cached.ID, patch); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	p.mu.Lock()
	merged := patch.Apply(*p.profile)
	p.profile = &merged
	p.mu.Unlock()

	return p.Current(), nil
}

func (p *profileService) Refresh(ctx context.Context, userID string) (*models.Profile, error) {
	prof, err := p.client.SelectProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.setCache(prof)
	return prof, nil
}

func (p *profileService) Clear() {
	p.mu.Lock()
	p.profile = nil
	p.mu.Unlock()
}

func (p *profileService) setCache(prof *models.Profile) {
	p.mu.Lock()
	p.profile = prof
	p.mu.Unlock()
}
