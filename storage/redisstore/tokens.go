package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/token"
)

const (
	refreshPrefix = "ospass:refresh_token:"
	revokedPrefix = "ospass:revoked:"
)

// RefreshStore is a Redis implementation of token.RefreshRepo, keyed by
// (domain, subject) so each subject holds one live refresh token per domain.
type RefreshStore struct {
	client *redis.Client
}

var _ token.RefreshRepo = (*RefreshStore)(nil)

// NewRefreshStore creates a Redis-backed refresh token store.
func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

func refreshKey(domain token.Domain, subject string) string {
	return refreshPrefix + string(domain) + ":" + subject
}

func (s *RefreshStore) Get(ctx context.Context, domain token.Domain, subject string) (*token.StoredRefreshToken, error) {
	payload, err := s.client.Get(ctx, refreshKey(domain, subject)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get refresh token")
	}

	var stored token.StoredRefreshToken
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal refresh token")
	}
	return &stored, nil
}

func (s *RefreshStore) Upsert(ctx context.Context, stored *token.StoredRefreshToken, ttl time.Duration) error {
	payload, err := json.Marshal(stored)
	if err != nil {
		return errors.Wrap(err, "failed to marshal refresh token")
	}
	if err := s.client.Set(ctx, refreshKey(stored.Domain, stored.Subject), payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store refresh token")
	}
	return nil
}

func (s *RefreshStore) Delete(ctx context.Context, domain token.Domain, subject string) error {
	if err := s.client.Del(ctx, refreshKey(domain, subject)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete refresh token")
	}
	return nil
}

// RevocationStore is a Redis implementation of token.RevocationStore.
type RevocationStore struct {
	client *redis.Client
}

var _ token.RevocationStore = (*RevocationStore)(nil)

// NewRevocationStore creates a Redis-backed revocation store.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func (s *RevocationStore) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to add revocation entry")
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := s.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check revocation entry")
	}
	return exists > 0, nil
}
