// Package storage provides the durable key-value layer behind the
// session store, the cart store and the feedback retry queue.  Each
// consumer owns a disjoint key namespace, so there is no cross-store
// contention.  Values are JSON blobs; list keys back the retry queue.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.  Callers treat it
// as "no state yet", not as a failure.
var ErrNotFound = errors.New("storage: key not found")

// KV is the minimal contract the stores need.  Two implementations
// exist: a Redis-backed one for production and an in-memory one for
// tests and for running without Redis.
type KV interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores the blob under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key.  Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// ListAll returns every element of the list stored under key,
	// oldest first.  A missing list yields an empty slice.
	ListAll(ctx context.Context, key string) ([][]byte, error)
	// ListPush appends one element to the list stored under key.
	ListPush(ctx context.Context, key string, value []byte) error
	// ListRemove deletes the first element of the list equal to
	// value.  Removing an element that is not present is a no-op, so
	// concurrent pushers and removers never step on each other.
	ListRemove(ctx context.Context, key string, value []byte) error
}
