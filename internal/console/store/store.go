package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// KV is the string key-value substrate the session is persisted in. Concrete
// drivers (sqlite, redis, memory) implement this.
type KV interface {
	// Get returns ErrNotFound when key has no value.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases any underlying resources.
	Close() error
}

// Keys the session is persisted under. They are stable across releases so a
// restarted console picks up where it left off.
const (
	KeyAccessToken  = "session.access_token"
	KeyRefreshToken = "session.refresh_token"
	KeyPrincipal    = "session.principal"
)

// SessionKeys lists every key the session owns. Clearing the session touches
// exactly these.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyPrincipal}
