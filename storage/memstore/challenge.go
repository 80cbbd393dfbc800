package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ospass/ospass-server/challenge"
	apperrors "github.com/ospass/ospass-server/internal/errors"
)

type challengeEntry struct {
	value     string
	expiresAt time.Time
}

// ChallengeStore is a mutex-guarded in-memory challenge.Repo.
type ChallengeStore struct {
	mu      sync.Mutex
	entries map[string]challengeEntry
}

var _ challenge.Repo = (*ChallengeStore)(nil)

// NewChallengeStore creates an empty in-memory challenge store.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{entries: make(map[string]challengeEntry)}
}

func (s *ChallengeStore) Get(ctx context.Context, key string) (string, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", 0, apperrors.ErrNotFound
	}
	return entry.value, time.Until(entry.expiresAt), nil
}

func (s *ChallengeStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && time.Now().Before(entry.expiresAt) {
		return false, nil
	}
	s.entries[key] = challengeEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
