package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ospass/ospass-server/challenge"
	apperrors "github.com/ospass/ospass-server/internal/errors"
)

const challengePrefix = "ospass:challenge:"

// ChallengeStore is a Redis implementation of challenge.Repo.
type ChallengeStore struct {
	client *redis.Client
}

var _ challenge.Repo = (*ChallengeStore)(nil)

// NewChallengeStore creates a Redis-backed challenge store.
func NewChallengeStore(client *redis.Client) *ChallengeStore {
	return &ChallengeStore{client: client}
}

func (s *ChallengeStore) Get(ctx context.Context, key string) (string, time.Duration, error) {
	redisKey := challengePrefix + key

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, redisKey)
	ttlCmd := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", 0, apperrors.ErrNotFound
		}
		return "", 0, errors.Wrap(err, "failed to get challenge")
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		return "", 0, apperrors.ErrNotFound
	}
	return getCmd.Val(), ttl, nil
}

func (s *ChallengeStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	stored, err := s.client.SetNX(ctx, challengePrefix+key, value, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to set challenge")
	}
	return stored, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, challengePrefix+key).Err(); err != nil {
		return errors.Wrap(err, "failed to delete challenge")
	}
	return nil
}
