package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/sessions"
)

const (
	sessionPrefix       = "ospass:session:"
	sessionMemberPrefix = "ospass:session:member:"
)

// SessionStore is a Redis implementation of sessions.Repo. Both directions of
// the mapping are written with the same TTL so they expire together.
type SessionStore struct {
	client *redis.Client
}

var _ sessions.Repo = (*SessionStore)(nil)

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Put(ctx context.Context, session *sessions.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionPrefix+session.ID, payload, ttl)
	pipe.Set(ctx, sessionMemberPrefix+session.MemberUUID, session.ID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to store session")
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (*sessions.Session, error) {
	payload, err := s.client.Get(ctx, sessionPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get session")
	}

	var session sessions.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

func (s *SessionStore) GetByMember(ctx context.Context, memberUUID string) (*sessions.Session, error) {
	sessionID, err := s.client.Get(ctx, sessionMemberPrefix+memberUUID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get member session")
	}
	return s.GetByID(ctx, sessionID)
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionPrefix+sessionID)
	pipe.Del(ctx, sessionMemberPrefix+session.MemberUUID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}
