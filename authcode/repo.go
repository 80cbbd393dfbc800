package authcode

import (
	"context"
	"time"
)

// Repo stores authorization codes. Consume must be a single atomic
// fetch-and-delete: when N callers race on the same code, exactly one may
// receive the grant. A read followed by a separate delete is not acceptable.
type Repo interface {
	// Put stores a grant under code with the given TTL.
	Put(ctx context.Context, code string, grant *Grant, ttl time.Duration) error

	// Consume atomically removes and returns the grant for code, or
	// errors.ErrNotFound when the code is absent, expired or already spent.
	Consume(ctx context.Context, code string) (*Grant, error)
}
