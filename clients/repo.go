package clients

import "context"

// Repo is the read-side contract against the registered-services catalog.
type Repo interface {
	// GetByAPIKey returns the registration for an API key, or errors.ErrNotFound.
	GetByAPIKey(ctx context.Context, apiKey string) (*Client, error)

	// Upsert creates or updates a registration.
	Upsert(ctx context.Context, client *Client) error
}
