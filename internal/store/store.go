// Package store provides an explicit key-value persistence interface with
// in-memory, Postgres and Redis implementations. The prediction core uses
// it to persist snapshots of the latest validated predictions so a restart
// can serve degraded-but-present data.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no value exists for a key
var ErrNotFound = errors.New("store: key not found")

// Store is a minimal key-value persistence contract. Implementations must
// be safe for concurrent use.
type Store interface {
	// Load returns the value for key, or ErrNotFound
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value under key, overwriting any previous value
	Save(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Ping checks connectivity for readiness probes
	Ping(ctx context.Context) error

	// Close releases underlying resources
	Close() error
}
