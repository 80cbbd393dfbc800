package sessions

import (
	"context"
	"time"
)

// Repo defines session storage. Implementations must keep the id->member and
// member->id directions consistent and expire both together.
type Repo interface {
	// Put stores a session in both directions with the given TTL.
	Put(ctx context.Context, session *Session, ttl time.Duration) error

	// GetByID returns the session for an identifier, or errors.ErrNotFound.
	GetByID(ctx context.Context, sessionID string) (*Session, error)

	// GetByMember returns the live session for a member, or errors.ErrNotFound.
	GetByMember(ctx context.Context, memberUUID string) (*Session, error)

	// Delete removes both directions of the mapping.
	Delete(ctx context.Context, sessionID string) error
}
