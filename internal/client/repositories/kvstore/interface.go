// Package kvstore is the persisted local key-value storage backing session
// persistence across restarts. The backend treats it as an opaque
// get/set/remove surface, so the SQLite implementation here is
// interchangeable with any platform-appropriate store.
package kvstore

import (
	"context"

	"github.com/somtik/somtik-client/internal/dbx"
)

// Repository is a persisted byte-valued key-value store.
type Repository interface {
	// Get returns the stored value, or common.ErrNotFound if the key is
	// absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every stored key.
	Clear(ctx context.Context) error
	// Update runs fn against a transactional view of the repository,
	// committing on nil and rolling back on error. Calling Update on a
	// view that is already transactional runs fn in the same
	// transaction.
	Update(ctx context.Context, fn func(Repository) error) error

	// WithTx returns a repository view bound to the given transactional
	// handle.
	WithTx(tx dbx.DBTX) Repository
}
