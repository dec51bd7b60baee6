// Package session holds the process-wide session store: the single owner
// of the current auth session, fed by the backend's auth-change stream.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/somtik/somtik-client/internal/client/backend"
	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/logging"
)

// Store exposes the current Session (or nil) and a loading flag that stays
// true only until the first auth-state notification after process start.
// It is the single writer of the session value; everything else reads.
type Store struct {
	logger logging.Logger

	mu          sync.RWMutex
	session     *models.Session
	loading     bool
	unsubscribe func()
}

// AuthStateSource is the slice of the backend contract the store needs.
type AuthStateSource interface {
	OnAuthStateChange(cb backend.AuthStateCallback) (func(), error)
}

// NewStore registers one subscription on the backend's auth-change stream.
// A failed registration is fatal to the store and returned to the caller.
// Call Close to release the subscription.
func NewStore(b AuthStateSource, logger logging.Logger) (*Store, error) {
	s := &Store{logger: logger, loading: true}

	unsub, err := b.OnAuthStateChange(s.onAuthStateChange)
	if err != nil {
		return nil, fmt.Errorf("subscribe to auth changes: %w", err)
	}
	s.unsubscribe = unsub
	return s, nil
}

func (s *Store) onAuthStateChange(sess *models.Session) {
	s.mu.Lock()
	s.session = sess
	s.loading = false
	s.mu.Unlock()

	if sess != nil {
		s.logger.Debug(context.Background(), "auth state changed", "user_id", sess.UserID)
	} else {
		s.logger.Debug(context.Background(), "auth state changed", "user_id", "")
	}
}

// Current returns the held session, or nil when signed out or still
// loading.
func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Loading reports whether the first auth-state notification has not yet
// arrived.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Close unsubscribes from the auth-change stream. Safe to call more than
// once.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
