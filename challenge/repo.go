package challenge

import (
	"context"
	"time"
)

// Repo defines the key/value storage contract for live challenges. Entries
// expire on their own; at most one live entry exists per key.
type Repo interface {
	// Get returns the live challenge value for key and how long it has left,
	// or errors.ErrNotFound when no live entry exists.
	Get(ctx context.Context, key string) (value string, ttlRemaining time.Duration, err error)

	// SetNX stores value under key with the given TTL only if no live entry
	// exists. Returns false when another value was already present.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes the entry for key, if any.
	Delete(ctx context.Context, key string) error
}
