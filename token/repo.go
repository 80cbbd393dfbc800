package token

import (
	"context"
	"time"
)

// StoredRefreshToken is the server-side copy of an issued refresh token. The
// stored copy, not the signature, is the source of truth for validity: a
// correctly signed token whose record was deleted or rotated out is rejected.
type StoredRefreshToken struct {
	Subject   string    `json:"subject"`
	Domain    Domain    `json:"domain"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// RefreshRepo stores refresh tokens keyed by (domain, subject): one live
// refresh token per subject per trust domain.
type RefreshRepo interface {
	// Get returns the stored token for a subject, or errors.ErrNotFound.
	Get(ctx context.Context, domain Domain, subject string) (*StoredRefreshToken, error)

	// Upsert stores a token with a TTL equal to its remaining lifetime,
	// replacing any previous token for the same subject.
	Upsert(ctx context.Context, stored *StoredRefreshToken, ttl time.Duration) error

	// Delete removes the stored token for a subject, if any.
	Delete(ctx context.Context, domain Domain, subject string) error
}

// RevocationStore records invalidated access tokens by jti. Entries carry a
// TTL no longer than the token's own remaining lifetime, so the blacklist
// never outgrows the set of tokens that could still be presented.
type RevocationStore interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
