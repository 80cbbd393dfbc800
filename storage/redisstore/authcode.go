package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ospass/ospass-server/authcode"
	apperrors "github.com/ospass/ospass-server/internal/errors"
)

const codePrefix = "ospass:code:"

// CodeStore is a Redis implementation of authcode.Repo. Consumption is a
// single GETDEL, so two racing exchange attempts can never both obtain the
// grant - this is the store-level guarantee the whole exchange relies on.
type CodeStore struct {
	client *redis.Client
}

var _ authcode.Repo = (*CodeStore)(nil)

// NewCodeStore creates a Redis-backed authorization code store.
func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func (s *CodeStore) Put(ctx context.Context, code string, grant *authcode.Grant, ttl time.Duration) error {
	payload, err := json.Marshal(grant)
	if err != nil {
		return errors.Wrap(err, "failed to marshal grant")
	}
	if err := s.client.Set(ctx, codePrefix+code, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store authorization code")
	}
	return nil
}

func (s *CodeStore) Consume(ctx context.Context, code string) (*authcode.Grant, error) {
	payload, err := s.client.GetDel(ctx, codePrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to consume authorization code")
	}

	var grant authcode.Grant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal grant")
	}
	return &grant, nil
}
