package members

import "context"

// Repo is the read-side contract against the member directory.
type Repo interface {
	// GetByUUID resolves a card UUID to a member, or errors.ErrNotFound.
	GetByUUID(ctx context.Context, uuid string) (*Member, error)

	// Upsert creates or updates a member record.
	Upsert(ctx context.Context, member *Member) error
}
