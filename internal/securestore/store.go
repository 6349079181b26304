// Package securestore defines the secure key-value capability that secret
// values live behind, plus the built-in backends.
//
// The store is deliberately dumb: opaque string keys, string values, no
// notion of which keys are in use. Everything above it (reference format,
// key derivation, garbage collection) is layered on by the secrets package.
// The interface is injected into every component that needs it so tests can
// substitute the in-memory backend.
//
// A backend may hold keys owned by other subsystems; Keys returns all of
// them and callers filter by prefix.
package securestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("secret not found")

// Store is the secure-storage primitive. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the value under key. Deleting an absent key is not an
	// error: cleanup sweeps must be safe to re-run.
	Delete(ctx context.Context, key string) error

	// Keys lists every key in the backend, including keys owned by other
	// subsystems sharing the same storage namespace.
	Keys(ctx context.Context) ([]string, error)
}
