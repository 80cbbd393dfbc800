package users

import "context"

// Repo defines user account storage for the app trust domain.
type Repo interface {
	// GetByUsername returns the account for a login id, or errors.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns the account by its identifier, or errors.ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// Upsert creates or updates an account.
	Upsert(ctx context.Context, user *User) error

	// BindCard records the card UUID on an existing account.
	BindCard(ctx context.Context, userID, cardUUID string) error
}
