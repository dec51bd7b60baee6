package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/client/repositories/kvstore"
	"github.com/somtik/somtik-client/internal/common"
	"github.com/somtik/somtik-client/internal/logging"
)

// sessionKey is the local storage key holding the persisted session.
const sessionKey = "auth.session"

// HTTPClient talks to the platform's REST surface: the auth API under
// /auth/v1 and the row API under /rest/v1. It also owns the persisted
// session and the auth-state callback registry.
type HTTPClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	kv      kvstore.Repository
	logger  logging.Logger
	now     func() time.Time

	mu        sync.RWMutex
	session   *models.Session
	callbacks map[int]AuthStateCallback
	nextCB    int
	closed    bool
}

func NewHTTPClient(baseURL, apiKey string, kv kvstore.Repository, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		httpc:     &http.Client{},
		kv:        kv,
		logger:    logger,
		now:       time.Now,
		callbacks: make(map[int]AuthStateCallback),
	}
}

// ---- wire types ----

type userPayload struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *userPayload `json:"user"`
}

func (c *HTTPClient) sessionFrom(tr *tokenResponse) *models.Session {
	if tr.AccessToken == "" {
		return nil
	}
	s := &models.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if u := tr.User; u != nil {
		s.UserID = u.ID
		s.Email = u.Email
		s.EmailConfirmed = u.EmailConfirmedAt != ""
		if v, ok := u.UserMetadata["username"].(string); ok {
			s.PendingUsername = v
		}
	}
	hydrateFromToken(s)
	return s
}

// hydrateFromToken fills identity fields from the access token's claims
// when the response body did not carry them. The token is parsed without
// signature verification: the client is not the party that trusts it.
func hydrateFromToken(s *models.Session) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return
	}
	if s.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.UserID = sub
		}
	}
	if s.Email == "" {
		if email, ok := claims["email"].(string); ok {
			s.Email = email
		}
	}
	if s.ExpiresAt.IsZero() {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
	}
}

// ---- request plumbing ----

func (c *HTTPClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil {
		return c.session.AccessToken
	}
	return c.apiKey
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// ---- auth operations ----

func (c *HTTPClient) SignUp(ctx context.Context, email, password, username string) error {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]any{
			"username":   username,
			"avatar_url": nil,
			"bio":        nil,
		},
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", nil, body, nil)
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	body := map[string]any{"type": "signup", "email": email, "token": code}

	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/verify", nil, body, &tr); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return nil, classifyVerifyError(ae)
		}
		return nil, err
	}
	// Whether a session comes back here depends on backend configuration;
	// the flow controller signs in explicitly either way.
	return c.sessionFrom(&tr), nil
}

func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]any{"email": email, "password": password}

	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", nil, body, &tr); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return nil, classifySignInError(ae)
		}
		return nil, err
	}

	sess := c.sessionFrom(&tr)
	if sess == nil {
		return nil, fmt.Errorf("backend: token response without access token")
	}
	c.setSession(ctx, sess)
	return sess, nil
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil); err != nil {
		return err
	}
	c.clearSession(ctx)
	return nil
}

func (c *HTTPClient) ResendSignUpOTP(ctx context.Context, email string) error {
	body := map[string]any{"type": "signup", "email": email}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/resend", nil, body, nil); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return classifyResendError(ae)
		}
		return err
	}
	return nil
}

// ---- session persistence and notifications ----

func (c *HTTPClient) setSession(ctx context.Context, sess *models.Session) {
	data, err := json.Marshal(sess)
	if err == nil {
		// Replace any previous user's record and the new one atomically.
		err = c.kv.Update(ctx, func(r kvstore.Repository) error {
			if err := r.Delete(ctx, sessionKey); err != nil {
				return err
			}
			return r.Set(ctx, sessionKey, data)
		})
	}
	if err != nil {
		// Persistence failure degrades restart behavior, not this session.
		c.logger.Warn(ctx, "failed to persist session", "error", err)
	}

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	c.notify(sess)
}

func (c *HTTPClient) clearSession(ctx context.Context) {
	if err := c.kv.Delete(ctx, sessionKey); err != nil {
		c.logger.Warn(ctx, "failed to remove persisted session", "error", err)
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.notify(nil)
}

func (c *HTTPClient) notify(sess *models.Session) {
	c.mu.RLock()
	cbs := make([]AuthStateCallback, 0, len(c.callbacks))
	for _, cb := range c.callbacks {
		cbs = append(cbs, cb)
	}
	c.mu.RUnlock()

	for _, cb := range cbs {
		cb(sess)
	}
}

func (c *HTTPClient) OnAuthStateChange(cb AuthStateCallback) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("backend: client closed")
	}
	id := c.nextCB
	c.nextCB++
	c.callbacks[id] = cb

	return func() {
		c.mu.Lock()
		delete(c.callbacks, id)
		c.mu.Unlock()
	}, nil
}

func (c *HTTPClient) RestoreSession(ctx context.Context) error {
	data, err := c.kv.Get(ctx, sessionKey)
	if errors.Is(err, common.ErrNotFound) {
		c.notify(nil)
		return nil
	}
	if err != nil {
		// The process starts signed out either way; subscribers must not
		// be left waiting for the startup notification.
		c.notify(nil)
		return fmt.Errorf("load persisted session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		c.logger.Warn(ctx, "discarding corrupt persisted session", "error", err)
		_ = c.kv.Delete(ctx, sessionKey)
		c.notify(nil)
		return nil
	}

	hydrateFromToken(&sess)

	if sess.Expired(c.now()) || uuid.Validate(sess.UserID) != nil {
		c.logger.Info(ctx, "persisted session expired or malformed, discarding")
		_ = c.kv.Delete(ctx, sessionKey)
		c.notify(nil)
		return nil
	}

	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()

	c.logger.Info(ctx, "session restored", "user_id", sess.UserID)
	c.notify(&sess)
	return nil
}

// ---- profile rows ----

type profileRow struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	LikesCount     int64     `json:"likes_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r *profileRow) toModel() *models.Profile {
	return &models.Profile{
		ID:             r.ID,
		Email:          r.Email,
		Username:       r.Username,
		FullName:       r.FullName,
		Bio:            r.Bio,
		AvatarURL:      r.AvatarURL,
		FollowersCount: r.FollowersCount,
		FollowingCount: r.FollowingCount,
		LikesCount:     r.LikesCount,
		UpdatedAt:      r.UpdatedAt,
	}
}

func rowFromModel(p *models.Profile) *profileRow {
	return &profileRow{
		ID:             p.ID,
		Email:          p.Email,
		Username:       p.Username,
		FullName:       p.FullName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
		LikesCount:     p.LikesCount,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (c *HTTPClient) selectProfileWhere(ctx context.Context, filter string) (*models.Profile, error) {
	var rows []profileRow
	if err := c.doJSON(ctx, http.MethodGet, "/rest/v1/profiles?select=*&"+filter, nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return rows[0].toModel(), nil
}

func (c *HTTPClient) SelectProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return c.selectProfileWhere(ctx, "id=eq."+url.QueryEscape(userID))
}

func (c *HTTPClient) SelectProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return c.selectProfileWhere(ctx, "email=eq."+url.QueryEscape(email))
}

func (c *HTTPClient) InsertProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []profileRow
	if err := c.doJSON(ctx, http.MethodPost, "/rest/v1/profiles", headers, rowFromModel(p), &rows); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return nil, classifyInsertError(ae)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("backend: insert returned no representation")
	}
	return rows[0].toModel(), nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	headers := map[string]string{"Prefer": "return=representation"}
	body := struct {
		models.ProfilePatch
		UpdatedAt string `json:"updated_at"`
	}{patch, c.now().UTC().Format(time.RFC3339)}

	var rows []profileRow
	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(userID)
	if err := c.doJSON(ctx, http.MethodPatch, path, headers, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return rows[0].toModel(), nil
}

func (c *HTTPClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.callbacks = map[int]AuthStateCallback{}
	c.mu.Unlock()

	c.httpc.CloseIdleConnections()
	return nil
}
